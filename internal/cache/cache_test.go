package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/mirador-kb/internal/config"
)

func TestNoopProviderAlwaysMisses(t *testing.T) {
	var p Provider = NoopProvider{}
	require.NoError(t, p.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, err := p.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLRUProviderRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	p := NewLRUProvider(4, time.Minute)

	value := []byte("patterns")
	require.NoError(t, p.Set(ctx, "kb:patterns", value, 0))
	value[0] = 'X'

	got, err := p.Get(ctx, "kb:patterns")
	require.NoError(t, err)
	assert.Equal(t, "patterns", string(got), "stored bytes must not alias caller buffer")

	require.NoError(t, p.Del(ctx, "kb:patterns"))
	_, err = p.Get(ctx, "kb:patterns")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLRUProviderExpires(t *testing.T) {
	ctx := context.Background()
	p := NewLRUProvider(4, 20*time.Millisecond)
	require.NoError(t, p.Set(ctx, "k", []byte("v"), 0))

	assert.Eventually(t, func() bool {
		_, err := p.Get(ctx, "k")
		return errors.Is(err, ErrCacheMiss)
	}, time.Second, 10*time.Millisecond)
}

func TestValkeyProviderAgainstMiniredis(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	p, err := NewValkeyProvider(ValkeyConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, p.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	srv.FastForward(2 * time.Minute)
	_, err = p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, p.Set(ctx, "k2", []byte("v2"), 0))
	require.NoError(t, p.Del(ctx, "k2"))
	assert.False(t, srv.Exists("k2"))
}

func TestNewValkeyProviderRequiresAddr(t *testing.T) {
	_, err := NewValkeyProvider(ValkeyConfig{})
	assert.Error(t, err)
}

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(config.CacheConfig{})
	require.NoError(t, err)
	assert.IsType(t, NoopProvider{}, p)

	p, err = New(config.CacheConfig{Enabled: true, Driver: "lru", Size: 8, TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &LRUProvider{}, p)

	srv := miniredis.RunT(t)
	p, err = New(config.CacheConfig{Enabled: true, Driver: "redis", Addr: srv.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &ValkeyProvider{}, p)
	require.NoError(t, p.Close())

	_, err = New(config.CacheConfig{Enabled: true, Driver: "memcached"})
	assert.Error(t, err)
}
