package cmd

import (
	"time"

	"github.com/khanhnv2901/riskscan/internal/application"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultDataDir = "./data"

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	DataDir string
	Store   StoreConfig
	Scan    ScanConfig
	Preload PreloadConfig
	Log     LogConfig
}

// StoreConfig selects the scan log backend.
type StoreConfig struct {
	Driver string
	Path   string
}

// ScanConfig bounds the probes of a single scan.
type ScanConfig struct {
	TLSTimeout     time.Duration
	HeaderTimeout  time.Duration
	PreloadTimeout time.Duration
	OverallTimeout time.Duration
	MaxRedirects   int
	UserAgent      string
}

// PreloadConfig points the preload lookup at a status service.
type PreloadConfig struct {
	BaseURL   string
	RateLimit float64
}

// LogConfig controls the zap logger built for each command.
type LogConfig struct {
	Development bool
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		DataDir: defaultDataDir,
		Store: StoreConfig{
			Driver: application.StoreDriverJSON,
		},
		Scan: ScanConfig{
			TLSTimeout:     consts.DefaultTLSTimeout,
			HeaderTimeout:  consts.DefaultHeaderTimeout,
			PreloadTimeout: consts.DefaultPreloadTimeout,
			OverallTimeout: consts.DefaultScanTimeout,
			MaxRedirects:   consts.DefaultMaxRedirects,
			UserAgent:      consts.DefaultUserAgent,
		},
		Preload: PreloadConfig{
			BaseURL:   consts.DefaultPreloadBaseURL,
			RateLimit: consts.DefaultPreloadRateLimit,
		},
	}
}

// applyConfigDefaults merges config file and environment values into cfg when the
// user did not explicitly override the corresponding flag.
func applyConfigDefaults(cfg *CLIConfig, flags *pflag.FlagSet) {
	if viper.IsSet("data_dir") {
		applyStringDefault(flags, "data-dir", viper.GetString("data_dir"), func(v string) {
			cfg.DataDir = v
		})
	}

	if viper.IsSet("store.driver") {
		cfg.Store.Driver = viper.GetString("store.driver")
	}
	if viper.IsSet("store.path") {
		cfg.Store.Path = viper.GetString("store.path")
	}

	if viper.IsSet("scan.tls_timeout") {
		cfg.Scan.TLSTimeout = viper.GetDuration("scan.tls_timeout")
	}
	if viper.IsSet("scan.header_timeout") {
		cfg.Scan.HeaderTimeout = viper.GetDuration("scan.header_timeout")
	}
	if viper.IsSet("scan.preload_timeout") {
		cfg.Scan.PreloadTimeout = viper.GetDuration("scan.preload_timeout")
	}
	if viper.IsSet("scan.overall_timeout") {
		applyDurationDefault(flags, "timeout", viper.GetDuration("scan.overall_timeout"), func(v time.Duration) {
			cfg.Scan.OverallTimeout = v
		})
	}
	if viper.IsSet("scan.max_redirects") {
		applyIntDefault(flags, "max-redirects", viper.GetInt("scan.max_redirects"), func(v int) {
			cfg.Scan.MaxRedirects = v
		})
	}
	if viper.IsSet("scan.user_agent") {
		cfg.Scan.UserAgent = viper.GetString("scan.user_agent")
	}

	if viper.IsSet("preload.base_url") {
		cfg.Preload.BaseURL = viper.GetString("preload.base_url")
	}
	if viper.IsSet("preload.rate_limit") {
		cfg.Preload.RateLimit = viper.GetFloat64("preload.rate_limit")
	}

	if viper.IsSet("log.development") {
		applyBoolDefault(flags, "debug", viper.GetBool("log.development"), func(v bool) {
			cfg.Log.Development = v
		})
	}
}

// containerConfig maps the CLI settings onto the application wiring.
func (c *CLIConfig) containerConfig(dataDir string) application.Config {
	return application.Config{
		DataDir:          dataDir,
		StoreDriver:      c.Store.Driver,
		StorePath:        c.Store.Path,
		TLSTimeout:       c.Scan.TLSTimeout,
		HeaderTimeout:    c.Scan.HeaderTimeout,
		PreloadTimeout:   c.Scan.PreloadTimeout,
		OverallTimeout:   c.Scan.OverallTimeout,
		MaxRedirects:     c.Scan.MaxRedirects,
		UserAgent:        c.Scan.UserAgent,
		PreloadBaseURL:   c.Preload.BaseURL,
		PreloadRateLimit: c.Preload.RateLimit,
	}
}

func lookupFlag(flags *pflag.FlagSet, name string) *pflag.Flag {
	if flags == nil {
		return nil
	}
	return flags.Lookup(name)
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if setter == nil {
		return
	}
	flag := lookupFlag(flags, name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if setter == nil {
		return
	}
	flag := lookupFlag(flags, name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyDurationDefault(flags *pflag.FlagSet, name string, value time.Duration, setter func(time.Duration)) {
	if setter == nil {
		return
	}
	flag := lookupFlag(flags, name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if setter == nil {
		return
	}
	flag := lookupFlag(flags, name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
