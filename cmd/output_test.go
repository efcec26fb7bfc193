package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
)

func TestPrintScanResult(t *testing.T) {
	disableColor(t)
	issuer, until, version := "Let's Encrypt", "2026-03-01", "TLS 1.3"
	r := &scan.Result{
		URL:           "https://example.com",
		ScanTimestamp: "2025-01-01T00:00:00Z",
		RiskLevel:     scan.RiskMedium,
		Summary:       "2 security headers missing",
		SSL: scan.SSLView{
			HTTPSSupported:   true,
			CertificateValid: true,
			Issuer:           &issuer,
			ValidUntil:       &until,
			TLSVersion:       &version,
		},
		SecurityHeaders: scan.HeaderView{
			Present: []string{"strict-transport-security"},
			Missing: []string{"x-frame-options", "referrer-policy"},
		},
		PreloadState: "not_preloaded",
	}

	var buf bytes.Buffer
	if err := printScanResult(&buf, r); err != nil {
		t.Fatalf("printScanResult: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Risk level:",
		"Medium",
		"Let's Encrypt",
		"TLS 1.3",
		"Headers missing (2):",
		"x-frame-options, referrer-policy",
		"no (not_preloaded)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Logged at") {
		t.Errorf("unlogged result should not print logged_at:\n%s", out)
	}
}

func TestPrintScanResult_MissingCertificateFacts(t *testing.T) {
	disableColor(t)
	r := &scan.Result{
		URL:       "https://down.example",
		RiskLevel: scan.RiskHigh,
		SSL:       scan.SSLView{Error: "connection_refused: connection refused"},
	}

	var buf bytes.Buffer
	if err := printScanResult(&buf, r); err != nil {
		t.Fatalf("printScanResult: %v", err)
	}
	if !strings.Contains(buf.String(), "N/A") || !strings.Contains(buf.String(), "connection_refused") {
		t.Fatalf("expected N/A and the TLS error:\n%s", buf.String())
	}
}

func TestBuildReportData(t *testing.T) {
	results := []*scan.Result{
		{URL: "https://a.example", RiskLevel: scan.RiskHigh},
		{URL: "https://b.example", RiskLevel: scan.RiskHigh},
		{URL: "https://c.example", RiskLevel: scan.RiskTrustedPreloaded},
	}
	data := buildReportData(results, "example", 10, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if data.Total != 3 {
		t.Fatalf("Total = %d", data.Total)
	}
	if len(data.RiskCounts) != len(reportRiskOrder) {
		t.Fatalf("expected a row per risk level, got %d", len(data.RiskCounts))
	}
	counts := map[scan.RiskLevel]int{}
	for _, rc := range data.RiskCounts {
		counts[rc.Level] = rc.Count
	}
	if counts[scan.RiskHigh] != 2 || counts[scan.RiskTrustedPreloaded] != 1 || counts[scan.RiskLow] != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	empty := buildReportData(nil, "", 0, time.Now())
	if empty.Results == nil {
		t.Fatal("results should never be nil")
	}
}

func TestGenerateMarkdownReport_Empty(t *testing.T) {
	md, err := generateMarkdownReport(buildReportData(nil, "nothing", 0, time.Now()))
	if err != nil {
		t.Fatalf("generateMarkdownReport: %v", err)
	}
	if !strings.Contains(md, "_No scan results match._") || !strings.Contains(md, "Domain filter: `nothing`") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}

func TestGeneratePDFReportBytes(t *testing.T) {
	results := []*scan.Result{{URL: "https://bücher.example", RiskLevel: scan.RiskLow}}
	pdf, err := generatePDFReportBytes(buildReportData(results, "", 0, time.Now()))
	if err != nil {
		t.Fatalf("generatePDFReportBytes: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("expected PDF header")
	}
}

func TestHealthAPIService(t *testing.T) {
	ok := &healthAPIService{dataDir: t.TempDir()}
	if err := ok.Check(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}

	missing := &healthAPIService{dataDir: t.TempDir() + "/gone"}
	if err := missing.Check(context.Background()); err == nil {
		t.Fatal("expected error for missing data dir")
	}

	if err := (&healthAPIService{}).Check(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured data dir")
	}
}
