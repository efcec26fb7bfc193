package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
)

const notAvailable = "N/A"

func writeJSONOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func valueOrNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// printScanResult renders one result as an aligned key/value block.
func printScanResult(w io.Writer, r *scan.Result) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "URL:\t%s\n", r.URL)
	fmt.Fprintf(tw, "Scanned at:\t%s\n", r.ScanTimestamp)
	fmt.Fprintf(tw, "Risk level:\t%s\n", formatRiskWithColor(r.RiskLevel))
	if r.Summary != "" {
		fmt.Fprintf(tw, "Summary:\t%s\n", r.Summary)
	}
	fmt.Fprintf(tw, "HTTPS supported:\t%s\n", formatYesNo(r.SSL.HTTPSSupported))
	fmt.Fprintf(tw, "Certificate valid:\t%s\n", formatYesNo(r.SSL.CertificateValid))
	fmt.Fprintf(tw, "Issuer:\t%s\n", valueOrNA(r.SSL.Issuer))
	fmt.Fprintf(tw, "Valid until:\t%s\n", valueOrNA(r.SSL.ValidUntil))
	fmt.Fprintf(tw, "TLS version:\t%s\n", valueOrNA(r.SSL.TLSVersion))
	if r.SSL.Error != "" {
		fmt.Fprintf(tw, "TLS error:\t%s\n", colorError(r.SSL.Error))
	}
	fmt.Fprintf(tw, "Headers present (%d):\t%s\n", len(r.SecurityHeaders.Present), joinOrNone(r.SecurityHeaders.Present))
	fmt.Fprintf(tw, "Headers missing (%d):\t%s\n", len(r.SecurityHeaders.Missing), joinOrNone(r.SecurityHeaders.Missing))
	if r.SecurityHeaders.Error != "" {
		fmt.Fprintf(tw, "Header error:\t%s\n", colorError(r.SecurityHeaders.Error))
	}
	preload := formatYesNo(r.TrustedPreload)
	if r.PreloadState != "" {
		preload = fmt.Sprintf("%s (%s)", preload, r.PreloadState)
	}
	fmt.Fprintf(tw, "HSTS preloaded:\t%s\n", preload)
	if r.LoggedAt != "" {
		fmt.Fprintf(tw, "Logged at:\t%s\n", r.LoggedAt)
	}
	return tw.Flush()
}
