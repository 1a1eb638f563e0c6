package patterns

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// PackFile is the YAML root of a user pattern pack.
type PackFile struct {
	Patterns []models.Pattern `yaml:"patterns"`
}

// LoadPack reads additional patterns from path. A missing path or file yields no patterns.
func LoadPack(path string) ([]models.Pattern, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pattern pack: %w", err)
	}
	var pack PackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse pattern pack: %w", err)
	}
	return pack.Patterns, nil
}

// ApplyPack upserts every pack pattern into the project's catalog.
func (c *Catalog) ApplyPack(ctx context.Context, project string, pack []models.Pattern) (int, error) {
	applied := 0
	for _, pattern := range pack {
		if _, err := c.Upsert(ctx, project, pattern); err != nil {
			return applied, fmt.Errorf("apply pattern %q: %w", pattern.ID, err)
		}
		applied++
	}
	return applied, nil
}
