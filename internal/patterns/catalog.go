package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/mirador-kb/internal/engine"
	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// Store abstracts persistence of a project's whole catalog.
type Store interface {
	LoadPatterns(ctx context.Context, project string) ([]models.Pattern, bool, error)
	SavePatterns(ctx context.Context, project string, patterns []models.Pattern) error
}

// Catalog manages per-project pattern catalogs. Each operation is a full
// read-modify-write of the project's collection.
type Catalog struct {
	store  Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCatalog constructs a Catalog over store.
func NewCatalog(logger *slog.Logger, store Store) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, logger: logger}
}

// EnsureCatalog returns the stored catalog, installing the built-in set the first time a
// project is seen. When the store cannot be read the built-ins are returned without
// persisting anything.
func (c *Catalog) EnsureCatalog(ctx context.Context, project string) ([]models.Pattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, found, err := c.store.LoadPatterns(ctx, project)
	if err != nil {
		c.logger.Warn("pattern catalog unreadable, using built-ins",
			slog.String("project", project), slog.Any("error", err))
		return DefaultPatterns(), nil
	}
	if found {
		return stored, nil
	}

	defaults := DefaultPatterns()
	if err := c.store.SavePatterns(ctx, project, defaults); err != nil {
		c.logger.Warn("pattern catalog install failed", slog.String("project", project), slog.Any("error", err))
		return defaults, nil
	}
	c.logger.Info("installed built-in pattern catalog", slog.String("project", project), slog.Int("patterns", len(defaults)))
	return defaults, nil
}

// Get returns one pattern.
func (c *Catalog) Get(ctx context.Context, project, id string) (models.Pattern, error) {
	patterns, err := c.EnsureCatalog(ctx, project)
	if err != nil {
		return models.Pattern{}, err
	}
	for _, p := range patterns {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Pattern{}, utils.NotFound("patterns.Get", "pattern "+id)
}

// Add appends a user pattern. An empty id is generated; a duplicate id is rejected.
func (c *Catalog) Add(ctx context.Context, project string, pattern models.Pattern) (models.Pattern, error) {
	const op = "patterns.Add"
	if err := validatePattern(op, pattern); err != nil {
		return models.Pattern{}, err
	}

	var added models.Pattern
	err := c.mutate(ctx, project, func(patterns []models.Pattern) ([]models.Pattern, error) {
		if pattern.ID == "" {
			pattern.ID = "pat-" + uuid.NewString()
		}
		if indexOf(patterns, pattern.ID) >= 0 {
			return nil, utils.InvalidInput(op, fmt.Sprintf("pattern %s already exists", pattern.ID))
		}
		added = pattern
		return append(patterns, pattern), nil
	})
	return added, err
}

// Update merges patch into an existing pattern.
func (c *Catalog) Update(ctx context.Context, project, id string, patch models.PatternPatch) (models.Pattern, error) {
	const op = "patterns.Update"
	var updated models.Pattern
	err := c.mutate(ctx, project, func(patterns []models.Pattern) ([]models.Pattern, error) {
		idx := indexOf(patterns, id)
		if idx < 0 {
			return nil, utils.NotFound(op, "pattern "+id)
		}
		candidate := applyPatch(patterns[idx], patch)
		if err := validatePattern(op, candidate); err != nil {
			return nil, err
		}
		patterns[idx] = candidate
		updated = candidate
		return patterns, nil
	})
	return updated, err
}

// Upsert replaces the definition of an existing pattern, keeping its statistics, or adds it.
func (c *Catalog) Upsert(ctx context.Context, project string, pattern models.Pattern) (models.Pattern, error) {
	const op = "patterns.Upsert"
	if err := validatePattern(op, pattern); err != nil {
		return models.Pattern{}, err
	}
	var result models.Pattern
	err := c.mutate(ctx, project, func(patterns []models.Pattern) ([]models.Pattern, error) {
		if pattern.ID == "" {
			pattern.ID = "pat-" + uuid.NewString()
		}
		idx := indexOf(patterns, pattern.ID)
		if idx < 0 {
			result = pattern
			return append(patterns, pattern), nil
		}
		existing := patterns[idx]
		pattern.Occurrences = existing.Occurrences
		pattern.LastSeen = existing.LastSeen
		pattern.SuccessRate = existing.SuccessRate
		patterns[idx] = pattern
		result = pattern
		return patterns, nil
	})
	return result, err
}

// Delete removes a pattern, reporting false when the id is unknown.
func (c *Catalog) Delete(ctx context.Context, project, id string) (bool, error) {
	removed := false
	err := c.mutate(ctx, project, func(patterns []models.Pattern) ([]models.Pattern, error) {
		idx := indexOf(patterns, id)
		if idx < 0 {
			return nil, nil
		}
		removed = true
		return append(patterns[:idx], patterns[idx+1:]...), nil
	})
	return removed, err
}

// RecordMatches bumps occurrences and lastSeen for the matched patterns.
func (c *Catalog) RecordMatches(ctx context.Context, project string, matches []models.PatternMatch, at time.Time) error {
	if len(matches) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		ids[m.Pattern.ID] = struct{}{}
	}
	return c.mutate(ctx, project, func(patterns []models.Pattern) ([]models.Pattern, error) {
		for i := range patterns {
			if _, ok := ids[patterns[i].ID]; !ok {
				continue
			}
			seen := at
			patterns[i].Occurrences++
			patterns[i].LastSeen = &seen
		}
		return patterns, nil
	})
}

// Recompute rebuilds usage statistics from the project's incidents.
func (c *Catalog) Recompute(ctx context.Context, project string, incidents []models.Incident, matcher *engine.Matcher) error {
	return c.mutate(ctx, project, func(patterns []models.Pattern) ([]models.Pattern, error) {
		return RecomputeStats(patterns, incidents, matcher), nil
	})
}

// mutate loads the catalog (installing built-ins when absent), applies fn and saves.
// fn returning a nil slice with a nil error means "no change".
func (c *Catalog) mutate(ctx context.Context, project string, fn func([]models.Pattern) ([]models.Pattern, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	patterns, found, err := c.store.LoadPatterns(ctx, project)
	if err != nil {
		return err
	}
	if !found {
		patterns = DefaultPatterns()
	}

	next, err := fn(patterns)
	if err != nil {
		return err
	}
	if next == nil && found {
		return nil
	}
	if next == nil {
		next = patterns
	}
	if err := c.store.SavePatterns(ctx, project, next); err != nil {
		c.logger.Error("pattern catalog save failed", slog.String("project", project), slog.Any("error", err))
		return err
	}
	return nil
}

func indexOf(patterns []models.Pattern, id string) int {
	for i, p := range patterns {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(p models.Pattern, patch models.PatternPatch) models.Pattern {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Symptoms != nil {
		p.Symptoms = patch.Symptoms
	}
	if patch.RootCauses != nil {
		p.RootCauses = patch.RootCauses
	}
	if patch.Fixes != nil {
		p.Fixes = patch.Fixes
	}
	if patch.Confidence != nil {
		p.Confidence = *patch.Confidence
	}
	return p
}

func validatePattern(op string, p models.Pattern) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return utils.InvalidInput(op, "pattern name is required")
	case !p.Category.Valid():
		return utils.InvalidInput(op, fmt.Sprintf("unknown category %q", p.Category))
	case len(p.Symptoms) == 0:
		return utils.InvalidInput(op, "at least one symptom is required")
	case p.SuccessRate < 0 || p.SuccessRate > 1:
		return utils.InvalidInput(op, "successRate must lie in [0,1]")
	case p.Confidence < 0 || p.Confidence > 1:
		return utils.InvalidInput(op, "confidence must lie in [0,1]")
	}
	for _, s := range p.Symptoms {
		if strings.TrimSpace(s) == "" {
			return utils.InvalidInput(op, "symptoms must not be blank")
		}
	}
	for _, f := range p.Fixes {
		if !f.Type.Valid() {
			return utils.InvalidInput(op, fmt.Sprintf("unknown fix type %q", f.Type))
		}
	}
	return nil
}
