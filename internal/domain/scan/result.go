package scan

import (
	"strings"
	"time"
)

// Result is the externally reported record of one scan. It is built once per
// request and never mutated; persistence works on copies.
type Result struct {
	URL             string     `json:"url"`
	ScanTimestamp   string     `json:"scan_timestamp"`
	SSL             SSLView    `json:"ssl"`
	SecurityHeaders HeaderView `json:"security_headers"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	Summary         string     `json:"summary,omitempty"`
	TrustedPreload  bool       `json:"trusted_preload"`
	PreloadState    string     `json:"preload_state,omitempty"`
	LoggedAt        string     `json:"logged_at,omitempty"`
}

// SSLView is the simplified certificate view.
type SSLView struct {
	HTTPSSupported   bool    `json:"https_supported"`
	CertificateValid bool    `json:"certificate_valid"`
	Issuer           *string `json:"issuer"`
	ValidUntil       *string `json:"valid_until"`
	TLSVersion       *string `json:"tls_version"`
	Error            string  `json:"error,omitempty"`
}

// HeaderView lists canonical security headers by presence.
type HeaderView struct {
	Present []string `json:"present"`
	Missing []string `json:"missing"`
	Error   string   `json:"error,omitempty"`
}

// WithLoggedAt returns a copy of r stamped with the given persistence time.
func (r *Result) WithLoggedAt(layout string, at time.Time) *Result {
	cp := *r
	cp.SecurityHeaders.Present = append([]string{}, r.SecurityHeaders.Present...)
	cp.SecurityHeaders.Missing = append([]string{}, r.SecurityHeaders.Missing...)
	cp.LoggedAt = at.Format(layout)
	return &cp
}

// MatchesDomain reports whether the result URL contains filter, ignoring case.
// An empty filter matches everything.
func (r *Result) MatchesDomain(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.URL), strings.ToLower(filter))
}
