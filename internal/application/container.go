package application

import (
	"context"
	"crypto/x509"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	scanapp "github.com/khanhnv2901/riskscan/internal/application/scan"
	"github.com/khanhnv2901/riskscan/internal/checker"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	"github.com/khanhnv2901/riskscan/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/riskscan/internal/infrastructure/persistence/sqlite"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
	"go.uber.org/zap"
)

// Supported log store drivers.
const (
	StoreDriverJSON   = "json"
	StoreDriverSQLite = "sqlite"
)

// Config carries everything needed to wire the scan pipeline.
type Config struct {
	DataDir     string
	StoreDriver string
	// StorePath overrides the default file inside DataDir.
	StorePath string

	TLSTimeout     time.Duration
	HeaderTimeout  time.Duration
	PreloadTimeout time.Duration
	OverallTimeout time.Duration
	MaxRedirects   int
	UserAgent      string

	PreloadBaseURL   string
	PreloadRateLimit float64

	// RootCAs replaces the system trust store for both probes. Nil in production.
	RootCAs *x509.CertPool
}

// Container holds all application services and repositories
// This is a simple dependency injection container
type Container struct {
	// Repositories
	LogRepo scan.Repository

	// Services
	ScanService *scanapp.Service
}

// NewContainer creates a new application service container
func NewContainer(ctx context.Context, cfg Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logRepo, err := newLogRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create log repository: %w", err)
	}

	probes := scanapp.Probes{
		TLS: &checker.TLSProbe{
			Timeout: cfg.TLSTimeout,
			RootCAs: cfg.RootCAs,
		},
		Headers: &checker.HeaderProbe{
			Timeout:      cfg.HeaderTimeout,
			MaxRedirects: cfg.MaxRedirects,
			UserAgent:    cfg.UserAgent,
			RootCAs:      cfg.RootCAs,
		},
		Preload: checker.NewPreloadChecker(cfg.PreloadBaseURL, cfg.PreloadTimeout, cfg.PreloadRateLimit, cfg.UserAgent),
	}

	return &Container{
		LogRepo:     logRepo,
		ScanService: scanapp.NewService(probes, logRepo, logger.Named("scan"), cfg.OverallTimeout),
	}, nil
}

// Close releases the log store.
func (c *Container) Close() error {
	if c == nil || c.LogRepo == nil {
		return nil
	}
	return c.LogRepo.Close()
}

func newLogRepository(ctx context.Context, cfg Config) (scan.Repository, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if driver == "" {
		driver = StoreDriverJSON
	}

	switch driver {
	case StoreDriverJSON:
		dir, name := cfg.DataDir, consts.DefaultLogFileName
		if cfg.StorePath != "" {
			dir, name = filepath.Dir(cfg.StorePath), filepath.Base(cfg.StorePath)
		}
		return json.NewLogRepository(dir, name)
	case StoreDriverSQLite:
		path := cfg.StorePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, consts.DefaultSQLiteFileName)
		}
		return sqlite.NewLogRepository(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", sharedErrors.ErrUnsupportedStore, cfg.StoreDriver)
	}
}
