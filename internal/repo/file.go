package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/miradorstack/mirador-kb/internal/utils"
)

// FileBackend stores each collection as <dir>/<project>/<kind>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend ensures dir exists.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(project string, kind Kind) string {
	return filepath.Join(b.dir, project, string(kind)+".json")
}

// Load reads the collection file; a missing file is reported as not found.
func (b *FileBackend) Load(_ context.Context, project string, kind Kind) ([]byte, bool, error) {
	if err := validateProject("repo.FileBackend.Load", project); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(b.path(project, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, utils.StorageUnavailable("repo.FileBackend.Load", err)
	}
	return data, true, nil
}

// Save replaces the collection file atomically via rename.
func (b *FileBackend) Save(_ context.Context, project string, kind Kind, data []byte) error {
	const op = "repo.FileBackend.Save"
	if err := validateProject(op, project); err != nil {
		return err
	}
	target := b.path(project, kind)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return utils.StorageUnavailable(op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+string(kind)+"-*.tmp")
	if err != nil {
		return utils.StorageUnavailable(op, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return utils.StorageUnavailable(op, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return utils.StorageUnavailable(op, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return utils.StorageUnavailable(op, err)
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }
