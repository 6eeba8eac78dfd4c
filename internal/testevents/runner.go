package testevents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/tauskim/internal/adapters/nanoaod"
	"github.com/okian/tauskim/pkg/logger"
)

// Run writes one synthetic <sample>.root per sample into dir.
func Run(ctx context.Context, dir, treeName string, samples []string, cfg Config, layout nanoaod.Layout) error {
	log := logger.Get().Named("testevents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		events := NewGenerator(cfg, sample).Generate()
		path := filepath.Join(dir, sample+".root")
		if err := Write(path, treeName, events, layout); err != nil {
			return fmt.Errorf("sample %s: %w", sample, err)
		}
		log.Info(ctx, "sample generated",
			logger.String("sample", sample),
			logger.String("path", path),
			logger.Int("events", len(events)),
			logger.Float64("seconds", time.Since(start).Seconds()),
		)
	}
	return nil
}
