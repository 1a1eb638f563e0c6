package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/miradorstack/mirador-kb/internal/cache"
	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// Kind names a per-project collection persisted as one document.
type Kind string

const (
	KindIncidents Kind = "incidents"
	KindPatterns  Kind = "patterns"
)

// Backend loads and saves whole collections. Writes are last-write-wins.
type Backend interface {
	// Load returns the stored document and whether one exists.
	Load(ctx context.Context, project string, kind Kind) ([]byte, bool, error)
	Save(ctx context.Context, project string, kind Kind, data []byte) error
	Close() error
}

// Open builds the backend selected by cfg, wrapping it with provider when caching is enabled.
func Open(ctx context.Context, cfg config.StorageConfig, provider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		backend Backend
		err     error
	)
	switch cfg.Driver {
	case "", config.DriverFile:
		backend, err = NewFileBackend(cfg.Dir)
	case config.DriverMemory:
		backend = NewMemoryBackend()
	case config.DriverPostgres:
		backend, err = NewPostgresBackend(ctx, cfg.PostgresDSN)
	case config.DriverRedis:
		backend, err = NewRedisBackend(ctx, RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}

	logger.Info("storage opened", slog.String("driver", cfg.Driver))

	if provider == nil {
		return backend, nil
	}
	if _, noop := provider.(cache.NoopProvider); noop {
		return backend, nil
	}
	return NewCachedBackend(backend, provider, cacheTTL, logger), nil
}

func validateProject(op, project string) error {
	if strings.TrimSpace(project) == "" {
		return utils.InvalidInput(op, "project is required")
	}
	if strings.ContainsAny(project, `/\`) || project == "." || project == ".." {
		return utils.InvalidInput(op, fmt.Sprintf("invalid project name %q", project))
	}
	return nil
}
