package scan

import (
	"fmt"
	"strings"
)

// RiskLevel is the five-valued classification reported per scan.
type RiskLevel string

const (
	RiskLow              RiskLevel = "Low"
	RiskMedium           RiskLevel = "Medium"
	RiskHigh             RiskLevel = "High"
	RiskTrustedPreloaded RiskLevel = "Trusted (Preloaded)"
	RiskUnknown          RiskLevel = "Unknown"
)

const (
	// highMissingThreshold is the missing-header count at which fusion reports High.
	highMissingThreshold = 3
	// headerTierMediumMax is the largest missing count the header-only tier still calls Medium.
	headerTierMediumMax = 3
)

// IsValid reports whether l is one of the enumerated levels.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskTrustedPreloaded, RiskUnknown:
		return true
	}
	return false
}

// HeaderTier is the preliminary, header-only tier for a completed header probe.
func HeaderTier(missing int) RiskLevel {
	switch {
	case missing <= 0:
		return RiskLow
	case missing <= headerTierMediumMax:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RiskInputs are the only values risk fusion depends on.
type RiskInputs struct {
	TLSValid     bool
	TLSError     string
	Preloaded    bool
	MissingCount int
	HeaderTier   RiskLevel
}

// Fuse combines the probe signals into one level. Precedence:
// TLS gate, preload attestation, header probe failure, header count.
func Fuse(in RiskInputs) RiskLevel {
	if in.TLSError != "" || !in.TLSValid {
		return RiskHigh
	}
	if in.Preloaded {
		return RiskTrustedPreloaded
	}
	if in.HeaderTier == RiskUnknown {
		return RiskUnknown
	}
	if in.MissingCount >= highMissingThreshold || in.HeaderTier == RiskHigh {
		return RiskHigh
	}
	if in.MissingCount >= 1 {
		return RiskMedium
	}
	return RiskLow
}

// Summarize renders a one-line explanation of how level was reached.
func Summarize(in RiskInputs, level RiskLevel) string {
	var parts []string
	switch {
	case in.TLSError != "":
		parts = append(parts, fmt.Sprintf("TLS probe failed (%s)", in.TLSError))
	case !in.TLSValid:
		parts = append(parts, "certificate is expired or invalid")
	default:
		parts = append(parts, "TLS certificate valid")
	}

	if in.Preloaded {
		parts = append(parts, "domain is HSTS preloaded")
	}

	if in.HeaderTier == RiskUnknown {
		parts = append(parts, "security headers could not be fetched")
	} else {
		parts = append(parts, fmt.Sprintf("%d security header(s) missing", in.MissingCount))
	}

	return fmt.Sprintf("%s: %s", level, strings.Join(parts, "; "))
}
