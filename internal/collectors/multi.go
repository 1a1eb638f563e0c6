package collectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// Source is one telemetry collaborator.
type Source interface {
	Name() string
	Collect(ctx context.Context, project string, opts models.AnalyzeOptions) (models.TelemetryBundle, error)
}

// Multi fans collection out to every source concurrently and merges the results in
// source order. A failing source does not discard the others.
type Multi struct {
	logger  *slog.Logger
	sources []Source
}

// NewMulti combines sources. Nil sources are skipped.
func NewMulti(logger *slog.Logger, sources ...Source) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	kept := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Multi{logger: logger, sources: kept}
}

// Sources lists the configured source names.
func (m *Multi) Sources() []string {
	names := make([]string, 0, len(m.sources))
	for _, s := range m.sources {
		names = append(names, s.Name())
	}
	return names
}

// Collect returns the merged bundle along with the joined errors of failed sources.
func (m *Multi) Collect(ctx context.Context, project string, opts models.AnalyzeOptions) (models.TelemetryBundle, error) {
	bundles := make([]models.TelemetryBundle, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, source := range m.sources {
		g.Go(func() error {
			start := time.Now()
			bundle, err := source.Collect(ctx, project, opts)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", source.Name(), err)
				m.logger.Warn("telemetry source failed",
					slog.String("source", source.Name()),
					slog.String("project", project),
					slog.Any("error", err),
				)
			}
			bundles[i] = bundle
			m.logger.Debug("telemetry source collected",
				slog.String("source", source.Name()),
				slog.Duration("elapsed", time.Since(start)),
			)
			return nil
		})
	}
	_ = g.Wait()

	var merged models.TelemetryBundle
	for _, b := range bundles {
		merged = merged.Merge(b)
	}
	return merged, errors.Join(errs...)
}
