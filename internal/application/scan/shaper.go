package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/khanhnv2901/riskscan/internal/checker"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
)

const organizationNameKey = "organizationName"

// IssuerName returns the issuer organization, or nil when the issuer carries
// no organizationName attribute. It never falls back to the flat DN string.
func IssuerName(issuer []checker.DNAttribute) *string {
	for _, attr := range issuer {
		if strings.EqualFold(attr.Key, organizationNameKey) {
			value := attr.Value
			return &value
		}
	}
	return nil
}

// ExpiryDate formats the UTC calendar date of notAfter, or nil when unset.
func ExpiryDate(notAfter time.Time) *string {
	if notAfter.IsZero() {
		return nil
	}
	date := notAfter.UTC().Format(consts.ExpiryDateLayout)
	return &date
}

// ScanTimestamp formats t as UTC with second precision and a literal Z.
func ScanTimestamp(t time.Time) string {
	return t.UTC().Format(consts.ScanTimestampLayout)
}

// probeOutcome bundles everything the shaper needs from one scan.
type probeOutcome struct {
	target  checker.Target
	tls     checker.CertificateFacts
	headers checker.HeaderFacts
	preload checker.PreloadStatus
}

func (o probeOutcome) riskInputs() scan.RiskInputs {
	return scan.RiskInputs{
		TLSValid:     o.tls.Valid,
		TLSError:     string(o.tls.ErrorKind),
		Preloaded:    o.preload.Preloaded,
		MissingCount: len(o.headers.Missing),
		HeaderTier:   o.headers.Tier,
	}
}

// shapeResult builds the reported record. Certificate details are only shown
// for a completed handshake.
func shapeResult(o probeOutcome, level scan.RiskLevel, summary string, completedAt time.Time) *scan.Result {
	ssl := scan.SSLView{
		HTTPSSupported:   o.tls.HTTPSSupported,
		CertificateValid: o.tls.HTTPSSupported && o.tls.Valid,
		Error:            describeFailure(o.tls.ErrorKind, o.tls.ErrorMessage),
	}
	if o.tls.HTTPSSupported {
		ssl.Issuer = IssuerName(o.tls.Issuer)
		ssl.ValidUntil = ExpiryDate(o.tls.NotAfter)
		if o.tls.TLSVersion != "" {
			version := o.tls.TLSVersion
			ssl.TLSVersion = &version
		}
	}

	headers := scan.HeaderView{
		Present: append([]string{}, o.headers.Present...),
		Missing: append([]string{}, o.headers.Missing...),
		Error:   describeFailure(o.headers.ErrorKind, o.headers.ErrorMessage),
	}

	return &scan.Result{
		URL:             o.target.URL,
		ScanTimestamp:   ScanTimestamp(completedAt),
		SSL:             ssl,
		SecurityHeaders: headers,
		RiskLevel:       level,
		Summary:         summary,
		TrustedPreload:  o.preload.Preloaded,
		PreloadState:    o.preload.State,
	}
}

func describeFailure(kind checker.ErrorKind, message string) string {
	if kind == checker.ErrorKindNone {
		return ""
	}
	if message == "" {
		return string(kind)
	}
	return fmt.Sprintf("%s: %s", kind, message)
}
