package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent scan results from the scan log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		limit, _ := cmd.Flags().GetInt("limit")
		domain, _ := cmd.Flags().GetString("domain")
		rawFormat, _ := cmd.Flags().GetString("format")

		format, err := parseFormat(rawFormat, "text", "table", "json")
		if err != nil {
			return err
		}

		results, err := loadLogs(cmd, appCtx, scan.Query{Limit: limit, Domain: domain})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			return writeJSONOutput(out, results)
		case "table":
			return printLogsTable(out, results)
		default:
			printLogsText(out, results)
			return nil
		}
	},
}

func loadLogs(cmd *cobra.Command, appCtx *AppContext, q scan.Query) ([]*scan.Result, error) {
	container, err := appCtx.openContainer(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer container.Close()

	results, err := container.ScanService.Logs(cmd.Context(), q)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan log: %w", err)
	}
	if results == nil {
		results = []*scan.Result{}
	}
	return results, nil
}

func printLogsText(w io.Writer, results []*scan.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, colorWarn("No scan results logged."))
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s  [%s]  %s  (%d missing headers)\n",
			r.ScanTimestamp, formatRiskWithColor(r.RiskLevel), r.URL, len(r.SecurityHeaders.Missing))
	}
}

func printLogsTable(w io.Writer, results []*scan.Result) error {
	if len(results) == 0 {
		fmt.Fprintln(w, colorWarn("No scan results logged."))
		return nil
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCANNED AT\tRISK\tURL\tHTTPS\tCERT VALID\tMISSING\tPRELOADED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%d\t%t\n",
			r.ScanTimestamp,
			r.RiskLevel,
			r.URL,
			r.SSL.HTTPSSupported,
			r.SSL.CertificateValid,
			len(r.SecurityHeaders.Missing),
			r.TrustedPreload,
		)
	}
	return tw.Flush()
}

func init() {
	logsCmd.Flags().Int("limit", consts.DefaultLogsLimit, "Number of results to show (0 = all)")
	logsCmd.Flags().String("domain", "", "Only show results whose URL contains this text")
	logsCmd.Flags().String("format", "text", "Output format: text|table|json")
}
