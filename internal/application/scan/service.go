package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/khanhnv2901/riskscan/internal/checker"
	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TLSProber inspects the target's certificate.
type TLSProber interface {
	Probe(ctx context.Context, target checker.Target) checker.CertificateFacts
}

// HeaderProber fetches the target's response headers.
type HeaderProber interface {
	Probe(ctx context.Context, target checker.Target) checker.HeaderFacts
}

// PreloadLookup answers whether a host is HSTS preloaded.
type PreloadLookup interface {
	Check(ctx context.Context, host string) checker.PreloadStatus
}

// Probes groups the three collaborators of one scan.
type Probes struct {
	TLS     TLSProber
	Headers HeaderProber
	Preload PreloadLookup
}

// Service runs scans and reads/writes the scan log.
type Service struct {
	probes         Probes
	repo           scan.Repository
	logger         *zap.Logger
	overallTimeout time.Duration
	now            func() time.Time
}

// NewService creates a new scan service. A nil logger disables logging and a
// non-positive overallTimeout falls back to the default scan deadline.
func NewService(probes Probes, repo scan.Repository, logger *zap.Logger, overallTimeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if overallTimeout <= 0 {
		overallTimeout = consts.DefaultScanTimeout
	}
	return &Service{
		probes:         probes,
		repo:           repo,
		logger:         logger,
		overallTimeout: overallTimeout,
		now:            time.Now,
	}
}

// RunScan probes rawURL and fuses the signals into a result. The only error
// it returns wraps ErrInvalidTarget; every probe failure is part of the result.
func (s *Service) RunScan(ctx context.Context, rawURL string) (*scan.Result, error) {
	target, err := checker.ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	started := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.overallTimeout)
	defer cancel()

	outcome := probeOutcome{target: target}

	// Probes never fail; the group is only a join point.
	var g errgroup.Group
	g.Go(func() error {
		outcome.tls = s.probes.TLS.Probe(ctx, target)
		return nil
	})
	g.Go(func() error {
		outcome.headers = s.probes.Headers.Probe(ctx, target)
		return nil
	})
	g.Go(func() error {
		outcome.preload = s.probes.Preload.Check(ctx, target.Host)
		return nil
	})
	_ = g.Wait()

	inputs := outcome.riskInputs()
	level := scan.Fuse(inputs)
	completed := s.now()
	result := shapeResult(outcome, level, scan.Summarize(inputs, level), completed)

	if outcome.preload.Err != nil {
		s.logger.Debug("preload lookup inconclusive",
			zap.String("host", target.Host),
			zap.Int("attempts", outcome.preload.Attempts),
			zap.Error(outcome.preload.Err),
		)
	}
	s.logger.Info("scan completed",
		zap.String("url", target.URL),
		zap.String("risk_level", string(level)),
		zap.String("tls_error", string(outcome.tls.ErrorKind)),
		zap.String("header_error", string(outcome.headers.ErrorKind)),
		zap.Bool("preloaded", outcome.preload.Preloaded),
		zap.Duration("duration", completed.Sub(started)),
	)

	return result, nil
}

// Record appends result to the scan log and returns the stored copy, which
// carries logged_at. On failure the error wraps ErrLogWriteFailure; callers
// log it and keep using the original result.
func (s *Service) Record(ctx context.Context, result *scan.Result) (*scan.Result, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("%w: no log store configured", sharedErrors.ErrLogWriteFailure)
	}

	stored := result.WithLoggedAt(consts.LoggedAtLayout, s.now().Local())
	if err := s.repo.Append(ctx, stored); err != nil {
		return nil, fmt.Errorf("%w: %w", sharedErrors.ErrLogWriteFailure, err)
	}
	s.logger.Debug("scan result recorded", zap.String("url", result.URL))
	return stored, nil
}

// Logs returns persisted results, newest first.
func (s *Service) Logs(ctx context.Context, q scan.Query) ([]*scan.Result, error) {
	if s.repo == nil {
		return []*scan.Result{}, nil
	}
	results, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan logs: %w", err)
	}
	return results, nil
}
