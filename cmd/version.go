package cmd

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via -ldflags)
// These default values indicate a development build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// buildInfo is what `riskscan version` reports.
type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Compiler  string `json:"compiler"`
}

func currentBuildInfo() buildInfo {
	return buildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Compiler:  runtime.Compiler,
	}
}

func printBuildInfo(w io.Writer, info buildInfo) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "riskscan version information:")
	fmt.Fprintf(tw, "  Version:\t%s\n", info.Version)
	fmt.Fprintf(tw, "  Git Commit:\t%s\n", info.GitCommit)
	fmt.Fprintf(tw, "  Build Date:\t%s\n", info.BuildDate)
	fmt.Fprintf(tw, "  Go Version:\t%s\n", info.GoVersion)
	fmt.Fprintf(tw, "  OS/Arch:\t%s\n", info.Platform)
	fmt.Fprintf(tw, "  Compiler:\t%s\n", info.Compiler)
	return tw.Flush()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		rawFormat, _ := cmd.Flags().GetString("format")

		format, err := parseFormat(rawFormat, "text", "json")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		info := currentBuildInfo()
		switch {
		case format == "json":
			return writeJSONOutput(out, info)
		case verbose:
			return printBuildInfo(out, info)
		default:
			_, err := fmt.Fprintf(out, "riskscan version %s\n", info.Version)
			return err
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	versionCmd.Flags().String("format", "text", "Output format: text|json")
}
