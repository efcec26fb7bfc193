package cmd

import (
	"github.com/fatih/color"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorTrusted = color.New(color.FgGreen, color.Bold).SprintFunc()
)

func formatRiskWithColor(level scan.RiskLevel) string {
	switch level {
	case scan.RiskTrustedPreloaded:
		return colorTrusted(string(level))
	case scan.RiskLow:
		return colorSuccess(string(level))
	case scan.RiskMedium:
		return colorWarn(string(level))
	case scan.RiskHigh:
		return colorError(string(level))
	default:
		return string(level)
	}
}

func formatYesNo(v bool) string {
	if v {
		return colorSuccess("yes")
	}
	return colorWarn("no")
}
