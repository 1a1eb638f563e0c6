package repo

import (
	"context"
	"sync"
)

// MemoryBackend keeps collections in process memory. Used for tests and ephemeral runs.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func memoryKey(project string, kind Kind) string {
	return project + "/" + string(kind)
}

// Load returns a copy of the stored document.
func (b *MemoryBackend) Load(_ context.Context, project string, kind Kind) ([]byte, bool, error) {
	if err := validateProject("repo.MemoryBackend.Load", project); err != nil {
		return nil, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.docs[memoryKey(project, kind)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save stores a copy of data.
func (b *MemoryBackend) Save(_ context.Context, project string, kind Kind, data []byte) error {
	if err := validateProject("repo.MemoryBackend.Save", project); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[memoryKey(project, kind)] = append([]byte(nil), data...)
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }
