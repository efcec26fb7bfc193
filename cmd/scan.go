package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a website and print its risk level",
	Long: `Scan runs the TLS, security header and HSTS preload probes against one
URL concurrently and fuses them into a single risk level. The result is
appended to the scan log unless --no-log is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		rawFormat, _ := cmd.Flags().GetString("format")
		noLog, _ := cmd.Flags().GetBool("no-log")

		format, err := parseFormat(rawFormat, "text", "json")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := appCtx.openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		result, err := container.ScanService.RunScan(ctx, args[0])
		if err != nil {
			return err
		}

		if !noLog {
			stored, err := container.ScanService.Record(ctx, result)
			if err != nil {
				appCtx.Logger.Warnw("scan log write failed", "url", result.URL, "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "%s result not logged: %v\n", colorWarn("!"), err)
			} else {
				result = stored
			}
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			return writeJSONOutput(out, result)
		}
		return printScanResult(out, result)
	},
}

func init() {
	scanCmd.Flags().String("format", "text", "Output format: text|json")
	scanCmd.Flags().Bool("no-log", false, "Do not append the result to the scan log")
	scanCmd.Flags().DurationVar(&cliConfig.Scan.OverallTimeout, "timeout", consts.DefaultScanTimeout, "Overall scan deadline (or set scan.overall_timeout)")
	scanCmd.Flags().IntVar(&cliConfig.Scan.MaxRedirects, "max-redirects", consts.DefaultMaxRedirects, "Redirect hops the header probe follows (or set scan.max_redirects)")
}
