package cmd

import (
	"testing"

	"github.com/fatih/color"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
)

func disableColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})
}

func TestFormatRiskWithColor(t *testing.T) {
	disableColor(t)

	tests := []struct {
		name  string
		level scan.RiskLevel
		want  string
	}{
		{name: "trusted", level: scan.RiskTrustedPreloaded, want: "Trusted (Preloaded)"},
		{name: "low", level: scan.RiskLow, want: "Low"},
		{name: "medium", level: scan.RiskMedium, want: "Medium"},
		{name: "high", level: scan.RiskHigh, want: "High"},
		{name: "unknown", level: scan.RiskUnknown, want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRiskWithColor(tt.level); got != tt.want {
				t.Fatalf("formatRiskWithColor(%q) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}
