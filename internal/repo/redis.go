package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/miradorstack/mirador-kb/internal/utils"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisBackend stores each collection under <prefix>:<project>:<kind>.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects and pings the server.
func NewRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "mirador:kb"
	}
	return &RedisBackend{client: client, prefix: prefix}, nil
}

func (b *RedisBackend) key(project string, kind Kind) string {
	return b.prefix + ":" + project + ":" + string(kind)
}

// Load fetches the stored document.
func (b *RedisBackend) Load(ctx context.Context, project string, kind Kind) ([]byte, bool, error) {
	const op = "repo.RedisBackend.Load"
	if err := validateProject(op, project); err != nil {
		return nil, false, err
	}
	data, err := b.client.Get(ctx, b.key(project, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, utils.StorageUnavailable(op, err)
	}
	return data, true, nil
}

// Save overwrites the stored document without expiry.
func (b *RedisBackend) Save(ctx context.Context, project string, kind Kind, data []byte) error {
	const op = "repo.RedisBackend.Save"
	if err := validateProject(op, project); err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key(project, kind), data, 0).Err(); err != nil {
		return utils.StorageUnavailable(op, err)
	}
	return nil
}

// Close releases the connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
