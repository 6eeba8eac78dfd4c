// Package service runs the skim and histogram stages over the configured
// samples.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/tauskim/internal/adapters/manifest"
	"github.com/okian/tauskim/internal/adapters/nanoaod"
	"github.com/okian/tauskim/internal/config"
	"github.com/okian/tauskim/internal/domain/skim"
	"github.com/okian/tauskim/internal/domain/weights"
	"github.com/okian/tauskim/pkg/logger"
)

// Service owns the resolved configuration of one invocation.
type Service struct {
	cfg       *config.Config
	selection skim.Selection
	layout    nanoaod.Layout
	weights   *weights.Table

	manifest *manifest.Store
	progress *Progress

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithManifest records every sample in store.
func WithManifest(store *manifest.Store) Option {
	return func(s *Service) {
		s.manifest = store
	}
}

// New resolves the active profile and the weight table of cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := cfg.ActiveProfile()
	if err != nil {
		return nil, err
	}
	table, err := cfg.WeightTable()
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		selection: p.Selection(),
		weights:   table,
		progress:  NewProgress(),
		logger:    logger.Get().Named("service"),
	}
	s.layout = nanoaod.LayoutFor(s.selection)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Weights returns the sample weight table.
func (s *Service) Weights() *weights.Table {
	return s.weights
}

// Layout returns the input branches the active profile reads.
func (s *Service) Layout() nanoaod.Layout {
	return s.layout
}

// Progress returns the live progress of the current run.
func (s *Service) Progress() *Progress {
	return s.progress
}

// GetStats returns a snapshot of the current run for monitoring.
func (s *Service) GetStats() any {
	return s.progress.Snapshot()
}

// RunReport summarises one invocation of Run.
type RunReport struct {
	RunID   string
	Samples []SampleReport
}

// Failed returns the reports of samples that did not commit an output.
func (r RunReport) Failed() []SampleReport {
	var out []SampleReport
	for _, s := range r.Samples {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Run skims samples, or every configured sample when none are given, with
// at most sample_parallelism of them in flight. A failing sample does not
// stop the others; cancelling ctx stops all of them.
func (s *Service) Run(ctx context.Context, samples []string) (RunReport, error) {
	if len(samples) == 0 {
		samples = s.weights.Names()
	}
	runID := uuid.NewString()
	s.progress.Reset(runID, s.cfg.Profile, samples)

	log := s.logger.With(logger.String("run_id", runID))
	log.Info(ctx, "run started",
		logger.String("profile", s.cfg.Profile),
		logger.Int("samples", len(samples)),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("sample_parallelism", s.cfg.SampleParallelism),
	)
	start := time.Now()

	report := RunReport{RunID: runID, Samples: make([]SampleReport, len(samples))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SampleParallelism)
	for i, name := range samples {
		g.Go(func() error {
			report.Samples[i] = s.skimSample(gctx, runID, name)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn(ctx, "run cancelled", logger.Error(err))
		return report, err
	}

	failed := report.Failed()
	log.Info(ctx, "run finished",
		logger.Int("samples", len(samples)),
		logger.Int("failed", len(failed)),
		logger.Float64("seconds", time.Since(start).Seconds()),
	)
	if len(failed) > 0 {
		errs := make([]error, len(failed))
		for i, f := range failed {
			errs[i] = f.Err
		}
		return report, fmt.Errorf("%w: %d of %d: %w", ErrSamplesFailed, len(failed), len(samples), errors.Join(errs...))
	}
	return report, nil
}
