package cmd

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	"github.com/khanhnv2901/riskscan/internal/shared/security"
	"github.com/spf13/cobra"
)

const (
	markdownTemplatePath = "templates/report.md"
	reportsDirName       = "reports"
	reportDefaultLimit   = 50
	reportTimeLayout     = "2006-01-02 15:04:05 MST"
	pdfMaxResults        = 200
)

//go:embed templates/report.md
var reportTemplateFS embed.FS

// reportRiskOrder fixes the row order of the risk summary.
var reportRiskOrder = []scan.RiskLevel{
	scan.RiskTrustedPreloaded,
	scan.RiskLow,
	scan.RiskMedium,
	scan.RiskHigh,
	scan.RiskUnknown,
}

var (
	markdownTemplateFuncs = template.FuncMap{
		"yesNo":      yesNoPlain,
		"deref":      valueOrNA,
		"joinOrNone": joinOrNone,
	}

	markdownReportTemplate = template.Must(
		template.New("report.md").Funcs(markdownTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

// reportData is shared by every report format.
type reportData struct {
	GeneratedAt string         `json:"generated_at"`
	Domain      string         `json:"domain,omitempty"`
	Limit       int            `json:"limit"`
	Total       int            `json:"total"`
	RiskCounts  []riskCount    `json:"risk_counts"`
	Results     []*scan.Result `json:"results"`
}

type riskCount struct {
	Level scan.RiskLevel `json:"level"`
	Count int            `json:"count"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from the scan log (markdown, JSON or PDF)",
	Long: `Report summarizes logged scan results by risk level and lists each result.
Markdown and JSON go to stdout unless --output is given; PDF is always written
to a file. Report files are placed under <data_dir>/reports.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		rawFormat, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		limit, _ := cmd.Flags().GetInt("limit")
		domain, _ := cmd.Flags().GetString("domain")

		format, err := parseFormat(rawFormat, "md", "json", "pdf")
		if err != nil {
			return err
		}

		results, err := loadLogs(cmd, appCtx, scan.Query{Limit: limit, Domain: domain})
		if err != nil {
			return err
		}
		data := buildReportData(results, domain, limit, time.Now())

		var content []byte
		switch format {
		case "json":
			var buf bytes.Buffer
			if err := writeJSONOutput(&buf, data); err != nil {
				return err
			}
			content = buf.Bytes()
		case "md":
			md, err := generateMarkdownReport(data)
			if err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
			content = []byte(md)
		case "pdf":
			content, err = generatePDFReportBytes(data)
			if err != nil {
				return fmt.Errorf("failed to generate PDF report: %w", err)
			}
			if output == "" {
				output = fmt.Sprintf("report-%s.pdf", time.Now().Format("20060102-150405"))
			}
		}

		if output == "" {
			_, err := cmd.OutOrStdout().Write(content)
			return err
		}

		reportPath, err := writeReportFile(appCtx.DataDir, output, content)
		if err != nil {
			return err
		}
		appCtx.Logger.Infow("report generated", "path", reportPath, "format", format, "results", data.Total)
		fmt.Fprintf(cmd.OutOrStdout(), "%s Report generated: %s\n", colorSuccess("✓"), reportPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Format: %s\n", format)
		fmt.Fprintf(cmd.OutOrStdout(), "Results included: %d\n", data.Total)
		return nil
	},
}

func buildReportData(results []*scan.Result, domain string, limit int, now time.Time) reportData {
	counts := make(map[scan.RiskLevel]int, len(reportRiskOrder))
	for _, r := range results {
		counts[r.RiskLevel]++
	}
	riskCounts := make([]riskCount, 0, len(reportRiskOrder))
	for _, level := range reportRiskOrder {
		riskCounts = append(riskCounts, riskCount{Level: level, Count: counts[level]})
	}
	if results == nil {
		results = []*scan.Result{}
	}
	return reportData{
		GeneratedAt: now.Format(reportTimeLayout),
		Domain:      domain,
		Limit:       limit,
		Total:       len(results),
		RiskCounts:  riskCounts,
		Results:     results,
	}
}

func generateMarkdownReport(data reportData) (string, error) {
	var buf strings.Builder
	if err := markdownReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", markdownReportTemplate.Name(), err)
	}
	return buf.String(), nil
}

func generatePDFReportBytes(data reportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; URLs and issuers may carry other runes.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Website Risk Report", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", data.GeneratedAt), "", 1, "", false, 0, "")
	if data.Domain != "" {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Domain filter: %s", data.Domain)), "", 1, "", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Total scans: %d", data.Total), "", 1, "", false, 0, "")
	pdf.Ln(5)

	// Summary table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 7, "Risk level", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Scans", "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, rc := range data.RiskCounts {
		pdf.CellFormat(60, 7, string(rc.Level), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", rc.Count), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	// Results
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Results", "", 1, "", false, 0, "")
	if len(data.Results) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "No scan results match.", "", 1, "", false, 0, "")
	}

	for i, r := range data.Results {
		if i == pdfMaxResults {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 6, fmt.Sprintf("... %d additional results omitted ...", len(data.Results)-pdfMaxResults), "", 1, "", false, 0, "")
			break
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s  [%s]", r.URL, r.RiskLevel)), "", "", false)
		pdf.SetFont("Arial", "", 9)
		lines := []string{
			fmt.Sprintf("Scanned at: %s", r.ScanTimestamp),
			fmt.Sprintf("HTTPS: %s | Certificate valid: %s | TLS: %s",
				yesNoPlain(r.SSL.HTTPSSupported), yesNoPlain(r.SSL.CertificateValid), valueOrNA(r.SSL.TLSVersion)),
			fmt.Sprintf("Issuer: %s | Valid until: %s", valueOrNA(r.SSL.Issuer), valueOrNA(r.SSL.ValidUntil)),
			fmt.Sprintf("HSTS preloaded: %s", yesNoPlain(r.TrustedPreload)),
			fmt.Sprintf("Missing headers (%d): %s", len(r.SecurityHeaders.Missing), joinOrNone(r.SecurityHeaders.Missing)),
		}
		if r.Summary != "" {
			lines = append(lines, fmt.Sprintf("Summary: %s", r.Summary))
		}
		for _, line := range lines {
			pdf.MultiCell(0, 5, tr(line), "", "", false)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeReportFile stores content under <dataDir>/reports, refusing names that escape it.
func writeReportFile(dataDir, name string, content []byte) (string, error) {
	reportsDir := filepath.Join(dataDir, reportsDirName)
	reportPath, err := security.ResolveWithin(reportsDir, name)
	if err != nil {
		return "", fmt.Errorf("resolve report path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(reportPath), consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}
	if err := os.WriteFile(reportPath, content, consts.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return reportPath, nil
}

func yesNoPlain(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func init() {
	reportCmd.Flags().String("format", "md", "Output format: md|json|pdf")
	reportCmd.Flags().String("output", "", "Report file name under <data_dir>/reports (default stdout; pdf defaults to report-<time>.pdf)")
	reportCmd.Flags().Int("limit", reportDefaultLimit, "Number of logged results to include (0 = all)")
	reportCmd.Flags().String("domain", "", "Only include results whose URL contains this text")
}
