package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// Store exposes typed access to a project's incident and pattern collections.
type Store struct {
	backend Backend
}

// NewStore wraps backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Backend returns the underlying document backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// LoadIncidents returns the project's incidents, empty when none are stored.
func (s *Store) LoadIncidents(ctx context.Context, project string) ([]models.Incident, error) {
	var incidents []models.Incident
	if _, err := s.load(ctx, project, KindIncidents, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// SaveIncidents replaces the project's incident collection.
func (s *Store) SaveIncidents(ctx context.Context, project string, incidents []models.Incident) error {
	if incidents == nil {
		incidents = []models.Incident{}
	}
	return s.save(ctx, project, KindIncidents, incidents)
}

// LoadPatterns returns the stored catalog and whether one exists.
func (s *Store) LoadPatterns(ctx context.Context, project string) ([]models.Pattern, bool, error) {
	var patterns []models.Pattern
	found, err := s.load(ctx, project, KindPatterns, &patterns)
	if err != nil {
		return nil, false, err
	}
	return patterns, found, nil
}

// SavePatterns replaces the project's catalog.
func (s *Store) SavePatterns(ctx context.Context, project string, patterns []models.Pattern) error {
	if patterns == nil {
		patterns = []models.Pattern{}
	}
	return s.save(ctx, project, KindPatterns, patterns)
}

func (s *Store) load(ctx context.Context, project string, kind Kind, dst any) (bool, error) {
	data, found, err := s.backend.Load(ctx, project, kind)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", kind, err)
	}
	if !found || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, utils.StorageUnavailable("repo.Store.load", fmt.Errorf("decode %s for %s: %w", kind, project, err))
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, project string, kind Kind, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := s.backend.Save(ctx, project, kind, data); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return nil
}
