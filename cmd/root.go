package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "RISKSCAN"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "riskscan",
	Short:         "Website risk scanner: TLS, security headers and HSTS preload in one verdict",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		applyConfigDefaults(cliConfig, cmd.Flags())

		l, err := newLogger(cliConfig.Log.Development)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		dataDir := cliConfig.DataDir
		if dataDir == "" {
			dataDir = defaultDataDir
		}
		if err := os.MkdirAll(dataDir, consts.DefaultDirPerm); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		// Absolute for clarity in logs
		if abs, err := filepath.Abs(dataDir); err == nil {
			dataDir = abs
		}

		storeAppContext(cmd, &AppContext{
			Logger:  l.Sugar(),
			Config:  cliConfig,
			DataDir: dataDir,
		})
		l.Debug("configuration loaded",
			zap.String("data_dir", dataDir),
			zap.String("store", cliConfig.Store.Driver),
			zap.String("config_file", viper.ConfigFileUsed()),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appCtx := getAppContext(cmd); appCtx != nil && appCtx.Logger != nil {
			_ = appCtx.Logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(1)
	}
}

// initConfig reads the config file, if any, and enables RISKSCAN_* environment overrides.
// A missing default config file is not an error; a missing --config file is.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".riskscan")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.riskscan.yaml)")
	rootCmd.PersistentFlags().StringVar(&cliConfig.DataDir, "data-dir", defaultDataDir, "directory holding the scan log store (or set data_dir)")
	rootCmd.PersistentFlags().BoolVar(&cliConfig.Log.Development, "debug", false, "human-readable debug logging (or set log.development)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
