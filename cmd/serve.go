package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanhnv2901/riskscan/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run riskscan as a REST API service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		authToken, _ := cmd.Flags().GetString("auth-token")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")
		trustedProxies, _ := cmd.Flags().GetStringSlice("trusted-proxies")

		logger := appCtx.zapLogger().Named("api")

		container, err := appCtx.openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if err := container.Close(); err != nil {
				logger.Warn("failed to close log store", zap.Error(err))
			}
		}()

		server := api.NewServer(api.Config{
			Scans:       container.ScanService,
			Logs:        container.ScanService,
			Health:      &healthAPIService{dataDir: appCtx.DataDir},
			AuthToken:   authToken,
			Logger:      logger,
			CORSOrigins: corsOrigins,
			RateLimit:   rateLimit,
			RateBurst:   rateBurst,

			TrustedProxies: trustedProxies,
		})
		defer server.Close()

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// A scan may run for the whole overall deadline before the response is written.
			WriteTimeout: appCtx.Config.Scan.OverallTimeout + 15*time.Second,
			IdleTimeout:  120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("%s API server listening on %s (data dir: %s)\n", colorInfo("→"), addr, appCtx.DataDir)
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Printf("%s Server shutdown complete\n", colorInfo("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the API server")
	serveCmd.Flags().String("auth-token", "", "Optional shared secret for scan and logs requests (X-Auth-Token)")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	serveCmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Int("rate-limit", 10, "Rate limit per IP (requests/second, 0 = disabled)")
	serveCmd.Flags().Int("rate-burst", 20, "Rate limit burst size")
	serveCmd.Flags().StringSlice("trusted-proxies", []string{}, "Proxy IPs or CIDRs whose X-Forwarded-For is honored (empty = ignore the header)")
}

// healthAPIService reports healthy while the data directory is usable.
type healthAPIService struct {
	dataDir string
}

func (s *healthAPIService) Check(ctx context.Context) error {
	if s.dataDir == "" {
		return fmt.Errorf("data directory not configured")
	}
	info, err := os.Stat(s.dataDir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", s.dataDir)
	}
	return nil
}
