package cmd

import (
	"context"

	"github.com/khanhnv2901/riskscan/internal/application"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppContext carries what the root command resolved for its subcommands.
type AppContext struct {
	Logger  *zap.SugaredLogger
	Config  *CLIConfig
	DataDir string
}

type appContextKey struct{}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if ctx := cmd.Context(); ctx != nil {
		if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}
	return globalAppContext
}

func (a *AppContext) zapLogger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger.Desugar()
}

// openContainer wires the scan pipeline against the configured log store.
// Callers own the returned container and must Close it.
func (a *AppContext) openContainer(ctx context.Context) (*application.Container, error) {
	cfg := a.Config
	if cfg == nil {
		cfg = newCLIConfig()
	}
	return application.NewContainer(ctx, cfg.containerConfig(a.DataDir), a.zapLogger())
}
