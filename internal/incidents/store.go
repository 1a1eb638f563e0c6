package incidents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/engine"
	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// Store persists a project's incident collection as a whole.
type Store interface {
	LoadIncidents(ctx context.Context, project string) ([]models.Incident, error)
	SaveIncidents(ctx context.Context, project string, incidents []models.Incident) error
}

// Catalog is the slice of the pattern catalog the record store feeds statistics into.
type Catalog interface {
	EnsureCatalog(ctx context.Context, project string) ([]models.Pattern, error)
	RecordMatches(ctx context.Context, project string, matches []models.PatternMatch, at time.Time) error
	Recompute(ctx context.Context, project string, incidents []models.Incident, matcher *engine.Matcher) error
}

// Service records incidents and their fixes for each project.
type Service struct {
	logger     *slog.Logger
	store      Store
	catalog    Catalog
	matcher    *engine.Matcher
	thresholds config.Thresholds
	now        func() time.Time
	mu         sync.Mutex
}

// NewService wires the record store. catalog may be nil, in which case pattern
// statistics are not maintained.
func NewService(logger *slog.Logger, thresholds config.Thresholds, store Store, catalog Catalog, matcher *engine.Matcher) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = engine.NewMatcher(thresholds, nil)
	}
	return &Service{
		logger:     logger,
		store:      store,
		catalog:    catalog,
		matcher:    matcher,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Record validates draft, persists it as a new open incident and bumps the occurrence
// counters of patterns it matches strongly enough.
func (s *Service) Record(ctx context.Context, project string, draft models.IncidentDraft) (models.Incident, error) {
	const op = "incidents.Record"
	if err := validateDraft(op, draft); err != nil {
		return models.Incident{}, err
	}

	now := s.now()
	incident := models.Incident{
		ID:               uuid.NewString(),
		Timestamp:        draft.Timestamp,
		Project:          project,
		Type:             draft.Type,
		Severity:         draft.Severity,
		Title:            draft.Title,
		Description:      draft.Description,
		RootCause:        draft.RootCause,
		Resolution:       draft.Resolution,
		Status:           models.StatusOpen,
		Sources:          nonNilSources(draft.Sources),
		Tags:             nonNilStrings(draft.Tags),
		RelatedIncidents: draft.RelatedIncidents,
		CreatedAt:        now,
	}
	if incident.Timestamp.IsZero() {
		incident.Timestamp = now
	}

	s.mu.Lock()
	incidents, err := s.store.LoadIncidents(ctx, project)
	if err == nil {
		err = s.store.SaveIncidents(ctx, project, append(incidents, incident))
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("record incident failed", slog.String("project", project), slog.Any("error", err))
		return models.Incident{}, err
	}

	s.logger.Info("incident recorded",
		slog.String("project", project),
		slog.String("incident_id", incident.ID),
		slog.String("type", string(incident.Type)),
		slog.String("severity", string(incident.Severity)),
	)
	s.bumpPatterns(ctx, project, incident)
	return incident, nil
}

func (s *Service) bumpPatterns(ctx context.Context, project string, incident models.Incident) {
	if s.catalog == nil {
		return
	}
	patterns, err := s.catalog.EnsureCatalog(ctx, project)
	if err != nil {
		s.logger.Warn("pattern catalog unavailable", slog.String("project", project), slog.Any("error", err))
		return
	}
	matches := s.matcher.MatchForRecording(patterns, incident)
	if err := s.catalog.RecordMatches(ctx, project, matches, incident.Timestamp); err != nil {
		s.logger.Warn("pattern occurrence update failed",
			slog.String("project", project), slog.String("incident_id", incident.ID), slog.Any("error", err))
	}
}

// Update merges patch into an incident. resolvedAt is stamped on entering resolved and
// cleared on leaving it.
func (s *Service) Update(ctx context.Context, project, id string, patch models.IncidentPatch) (models.Incident, error) {
	const op = "incidents.Update"
	if err := validatePatch(op, patch); err != nil {
		return models.Incident{}, err
	}

	var updated models.Incident
	err := s.mutate(ctx, project, func(incidents []models.Incident) error {
		idx := indexOf(incidents, id)
		if idx < 0 {
			return utils.NotFound(op, "incident "+id)
		}
		incidents[idx] = s.applyPatch(incidents[idx], patch)
		updated = incidents[idx]
		return nil
	})
	return updated, err
}

// Get returns one incident.
func (s *Service) Get(ctx context.Context, project, id string) (models.Incident, error) {
	incidents, err := s.store.LoadIncidents(ctx, project)
	if err != nil {
		return models.Incident{}, err
	}
	if idx := indexOf(incidents, id); idx >= 0 {
		return incidents[idx], nil
	}
	return models.Incident{}, utils.NotFound("incidents.Get", "incident "+id)
}

// List returns every stored incident of the project in insertion order.
func (s *Service) List(ctx context.Context, project string) ([]models.Incident, error) {
	return s.store.LoadIncidents(ctx, project)
}

// Search filters the project's incidents, newest first by creation time.
func (s *Service) Search(ctx context.Context, project string, filter models.SearchFilter) ([]models.Incident, error) {
	const op = "incidents.Search"
	if err := validateFilter(op, filter); err != nil {
		return nil, err
	}
	incidents, err := s.store.LoadIncidents(ctx, project)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit == 0 {
		limit = s.thresholds.SearchLimit
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]models.Incident, 0)
	for _, incident := range incidents {
		if matchesFilter(incident, filter, query) {
			out = append(out, incident)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordFix attaches a pending fix to an incident, replacing any earlier attempt.
func (s *Service) RecordFix(ctx context.Context, project, incidentID string, draft models.FixDraft) (models.FixRecord, error) {
	const op = "incidents.RecordFix"
	if strings.TrimSpace(draft.Description) == "" {
		return models.FixRecord{}, utils.InvalidInput(op, "fix description is required")
	}
	if !draft.Type.Valid() {
		return models.FixRecord{}, utils.InvalidInput(op, fmt.Sprintf("unknown fix type %q", draft.Type))
	}

	fix := models.FixRecord{
		ID:          uuid.NewString(),
		IncidentID:  incidentID,
		Description: draft.Description,
		Type:        draft.Type,
		Outcome:     models.OutcomePending,
		AppliedAt:   s.now(),
		Diff:        draft.Diff,
		PRRef:       draft.PRRef,
	}
	err := s.mutate(ctx, project, func(incidents []models.Incident) error {
		idx := indexOf(incidents, incidentID)
		if idx < 0 {
			return utils.NotFound(op, "incident "+incidentID)
		}
		attached := fix
		incidents[idx].Fix = &attached
		return nil
	})
	if err != nil {
		return models.FixRecord{}, err
	}
	s.logger.Info("fix recorded", slog.String("project", project), slog.String("incident_id", incidentID), slog.String("fix_id", fix.ID))
	return fix, nil
}

// UpdateFixOutcome sets the outcome of the incident's current fix. A resolved outcome
// resolves the incident too. Pattern statistics are recomputed afterwards.
func (s *Service) UpdateFixOutcome(ctx context.Context, project, incidentID string, outcome models.FixOutcome) (models.Incident, error) {
	const op = "incidents.UpdateFixOutcome"
	if !outcome.Valid() {
		return models.Incident{}, utils.InvalidInput(op, fmt.Sprintf("unknown outcome %q", outcome))
	}

	var (
		updated  models.Incident
		snapshot []models.Incident
	)
	err := s.mutate(ctx, project, func(incidents []models.Incident) error {
		idx := indexOf(incidents, incidentID)
		if idx < 0 {
			return utils.NotFound(op, "incident "+incidentID)
		}
		incident := incidents[idx]
		if incident.Fix == nil {
			return utils.NotFound(op, "fix for incident "+incidentID)
		}

		now := s.now()
		fix := *incident.Fix
		fix.Outcome = outcome
		fix.ResolvedAt = nil
		if outcome == models.OutcomeResolved {
			fix.ResolvedAt = &now
			incident.Status = models.StatusResolved
			incident.ResolvedAt = &now
		}
		incident.Fix = &fix
		incidents[idx] = incident

		updated = incident
		snapshot = incidents
		return nil
	})
	if err != nil {
		return models.Incident{}, err
	}

	if s.catalog != nil {
		if err := s.catalog.Recompute(ctx, project, snapshot, s.matcher); err != nil {
			s.logger.Warn("pattern statistics recompute failed", slog.String("project", project), slog.Any("error", err))
		}
	}
	return updated, nil
}

// Stats summarises the project's incidents, patterns and fixes.
func (s *Service) Stats(ctx context.Context, project string) (models.KnowledgeBaseStats, error) {
	incidents, err := s.store.LoadIncidents(ctx, project)
	if err != nil {
		return models.KnowledgeBaseStats{}, err
	}
	var patterns []models.Pattern
	if s.catalog != nil {
		if patterns, err = s.catalog.EnsureCatalog(ctx, project); err != nil {
			return models.KnowledgeBaseStats{}, err
		}
	}
	return Summarize(incidents, patterns), nil
}

// Summarize computes knowledge base statistics from in-memory collections.
func Summarize(incidents []models.Incident, patterns []models.Pattern) models.KnowledgeBaseStats {
	stats := models.KnowledgeBaseStats{
		Incidents: models.IncidentStats{ByType: map[models.IncidentType]int{}},
		Patterns:  models.PatternStats{Total: len(patterns), ByCategory: map[models.PatternCategory]int{}},
	}
	for _, incident := range incidents {
		stats.Incidents.Total++
		stats.Incidents.ByType[incident.Type]++
		switch incident.Status {
		case models.StatusOpen, models.StatusInvestigating:
			stats.Incidents.Open++
		case models.StatusResolved:
			stats.Incidents.Resolved++
		}
		if incident.Fix != nil {
			stats.Fixes.Total++
			if incident.Fix.Outcome == models.OutcomeResolved {
				stats.Fixes.Resolved++
			}
		}
	}
	if stats.Fixes.Total > 0 {
		stats.Fixes.SuccessRate = float64(stats.Fixes.Resolved) / float64(stats.Fixes.Total)
	}
	for _, p := range patterns {
		stats.Patterns.ByCategory[p.Category]++
	}
	return stats
}

func (s *Service) mutate(ctx context.Context, project string, fn func([]models.Incident) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	incidents, err := s.store.LoadIncidents(ctx, project)
	if err != nil {
		return err
	}
	if err := fn(incidents); err != nil {
		return err
	}
	if err := s.store.SaveIncidents(ctx, project, incidents); err != nil {
		s.logger.Error("incident save failed", slog.String("project", project), slog.Any("error", err))
		return err
	}
	return nil
}

func (s *Service) applyPatch(incident models.Incident, patch models.IncidentPatch) models.Incident {
	if patch.Type != nil {
		incident.Type = *patch.Type
	}
	if patch.Severity != nil {
		incident.Severity = *patch.Severity
	}
	if patch.Title != nil {
		incident.Title = *patch.Title
	}
	if patch.Description != nil {
		incident.Description = *patch.Description
	}
	if patch.RootCause != nil {
		incident.RootCause = *patch.RootCause
	}
	if patch.Resolution != nil {
		incident.Resolution = *patch.Resolution
	}
	if patch.Tags != nil {
		incident.Tags = patch.Tags
	}
	if patch.RelatedIncidents != nil {
		incident.RelatedIncidents = patch.RelatedIncidents
	}
	if len(patch.AddSources) > 0 {
		incident.Sources = append(append([]models.IncidentSource(nil), incident.Sources...), patch.AddSources...)
	}
	if patch.Status != nil && *patch.Status != incident.Status {
		incident.Status = *patch.Status
		if incident.Status == models.StatusResolved {
			now := s.now()
			incident.ResolvedAt = &now
		} else {
			incident.ResolvedAt = nil
		}
	}
	return incident
}

func matchesFilter(incident models.Incident, filter models.SearchFilter, query string) bool {
	if filter.Type != "" && incident.Type != filter.Type {
		return false
	}
	if filter.Status != "" && incident.Status != filter.Status {
		return false
	}
	if filter.Severity != "" && incident.Severity != filter.Severity {
		return false
	}
	if len(filter.Tags) > 0 && !hasAnyTag(incident.Tags, filter.Tags) {
		return false
	}
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(incident.Title), query) ||
		strings.Contains(strings.ToLower(incident.Description), query) ||
		strings.Contains(strings.ToLower(incident.RootCause), query)
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}

func indexOf(incidents []models.Incident, id string) int {
	for i, incident := range incidents {
		if incident.ID == id {
			return i
		}
	}
	return -1
}

func nonNilSources(in []models.IncidentSource) []models.IncidentSource {
	if in == nil {
		return []models.IncidentSource{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
