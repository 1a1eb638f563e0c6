package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/miradorstack/mirador-kb/internal/cache"
	"github.com/miradorstack/mirador-kb/internal/collectors"
	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/engine"
	"github.com/miradorstack/mirador-kb/internal/incidents"
	"github.com/miradorstack/mirador-kb/internal/patterns"
	"github.com/miradorstack/mirador-kb/internal/repo"
)

// Options override parts of the configured wiring.
type Options struct {
	// Collector replaces the collectors built from configuration.
	Collector engine.Collector
	// Symptoms replaces the default substring symptom matcher.
	Symptoms engine.SymptomMatcher
}

// Build wires storage, cache, collectors and the engine from cfg. The returned close
// function releases the storage backend and cache.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*KnowledgeBaseService, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn("cache unavailable, continuing without it", slog.String("driver", cfg.Cache.Driver), slog.Any("error", err))
		provider = cache.NoopProvider{}
	}

	backend, err := repo.Open(ctx, cfg.Storage, provider, cfg.Cache.TTL, logger)
	if err != nil {
		_ = provider.Close()
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	closeFn := func() error {
		return errors.Join(backend.Close(), provider.Close())
	}

	store := repo.NewStore(backend)
	catalog := patterns.NewCatalog(logger, store)

	collector := opts.Collector
	if collector == nil {
		collector = BuildCollector(cfg.Collectors, logger)
	}

	thresholds := cfg.Analysis
	matcher := engine.NewMatcher(thresholds, opts.Symptoms)
	incidentSvc := incidents.NewService(logger, thresholds, store, catalog, matcher)
	pipeline := engine.NewPipeline(logger, thresholds, collector, catalog, incidentSvc, opts.Symptoms)

	svc := NewKnowledgeBaseService(logger, pipeline, incidentSvc, catalog)
	logger.Info("knowledge base ready", slog.String("storage", cfg.Storage.Driver), slog.Bool("cache", cfg.Cache.Enabled))
	return svc, closeFn, nil
}

// BuildCollector assembles the configured telemetry sources.
func BuildCollector(cfg config.CollectorsConfig, logger *slog.Logger) *collectors.Multi {
	sources := make([]collectors.Source, 0, 4)
	if cfg.Remote.BaseURL != "" {
		sources = append(sources, collectors.NewRemote(cfg.Remote.BaseURL, cfg.Remote.LogsPath, cfg.Remote.CommitsPath, cfg.Remote.MetricsPath, cfg.Remote.Timeout))
	}
	if cfg.GitDir != "" {
		sources = append(sources, collectors.NewGit(cfg.GitDir, cfg.GitLimit))
	}
	if cfg.ReportDir != "" {
		sources = append(sources, collectors.NewReports(cfg.ReportDir))
	}
	if k8s, err := collectors.NewKubernetesFromConfig(cfg.Kubeconfig, cfg.Namespace); err != nil {
		logger.Debug("kubernetes collector disabled", slog.Any("error", err))
	} else {
		sources = append(sources, k8s)
	}
	return collectors.NewMulti(logger, sources...)
}
