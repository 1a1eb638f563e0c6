package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUProvider keeps entries in process memory with a shared TTL.
type LRUProvider struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUProvider creates a bounded in-process cache. Entries expire after ttl.
func NewLRUProvider(size int, ttl time.Duration) *LRUProvider {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LRUProvider{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached bytes or ErrCacheMiss.
func (p *LRUProvider) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := p.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value. The per-call ttl is ignored in favour of the provider TTL.
func (p *LRUProvider) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	p.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Del evicts key.
func (p *LRUProvider) Del(_ context.Context, key string) error {
	p.lru.Remove(key)
	return nil
}

// Close drops every entry.
func (p *LRUProvider) Close() error {
	p.lru.Purge()
	return nil
}
