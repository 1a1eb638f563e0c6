package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-kb/internal/cache"
)

// CachedBackend serves repeated loads from a cache provider and invalidates on save.
// Cache failures are logged and fall through to the wrapped backend.
type CachedBackend struct {
	next   Backend
	cache  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedBackend wraps next with provider.
func NewCachedBackend(next Backend, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *CachedBackend {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedBackend{next: next, cache: provider, ttl: ttl, logger: logger}
}

func cacheKey(project string, kind Kind) string {
	return "mirador-kb:doc:" + project + ":" + string(kind)
}

// Load consults the cache before the wrapped backend. Absent documents are not cached.
func (b *CachedBackend) Load(ctx context.Context, project string, kind Kind) ([]byte, bool, error) {
	key := cacheKey(project, kind)
	if data, err := b.cache.Get(ctx, key); err == nil {
		return data, true, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		b.logger.Warn("cache lookup failed", slog.String("key", key), slog.Any("error", err))
	}

	data, found, err := b.next.Load(ctx, project, kind)
	if err != nil || !found {
		return data, found, err
	}
	if err := b.cache.Set(ctx, key, data, b.ttl); err != nil {
		b.logger.Warn("cache store failed", slog.String("key", key), slog.Any("error", err))
	}
	return data, true, nil
}

// Save writes through and drops the cached copy.
func (b *CachedBackend) Save(ctx context.Context, project string, kind Kind, data []byte) error {
	if err := b.next.Save(ctx, project, kind, data); err != nil {
		return err
	}
	if err := b.cache.Del(ctx, cacheKey(project, kind)); err != nil {
		b.logger.Warn("cache invalidation failed", slog.String("project", project), slog.Any("error", err))
	}
	return nil
}

// Close closes the wrapped backend and the provider.
func (b *CachedBackend) Close() error {
	return errors.Join(b.next.Close(), b.cache.Close())
}
