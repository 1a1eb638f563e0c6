package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-kb/internal/engine"
	"github.com/miradorstack/mirador-kb/internal/incidents"
	"github.com/miradorstack/mirador-kb/internal/metrics"
	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/patterns"
)

// KnowledgeBaseService is the facade the transports call into.
type KnowledgeBaseService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	incidents *incidents.Service
	catalog   *patterns.Catalog
}

// NewKnowledgeBaseService constructs the facade.
func NewKnowledgeBaseService(logger *slog.Logger, pipeline *engine.Pipeline, incidentSvc *incidents.Service, catalog *patterns.Catalog) *KnowledgeBaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeBaseService{
		logger:    logger,
		pipeline:  pipeline,
		incidents: incidentSvc,
		catalog:   catalog,
	}
}

// Bootstrap installs the built-in catalog for project ahead of the first analysis.
func (s *KnowledgeBaseService) Bootstrap(ctx context.Context, project string) error {
	_, err := s.catalog.EnsureCatalog(ctx, project)
	return err
}

// Analyze collects telemetry for project and analyses it, or replays opts.IncidentID.
func (s *KnowledgeBaseService) Analyze(ctx context.Context, project string, opts models.AnalyzeOptions) (models.AnalysisResult, error) {
	return s.observe(project, func() (models.AnalysisResult, error) {
		return s.pipeline.AnalyzeSystem(ctx, project, opts)
	})
}

// AnalyzeBundle analyses a caller-supplied bundle.
func (s *KnowledgeBaseService) AnalyzeBundle(ctx context.Context, project string, bundle models.TelemetryBundle) (models.AnalysisResult, error) {
	return s.observe(project, func() (models.AnalysisResult, error) {
		return s.pipeline.AnalyzeBundle(ctx, project, bundle)
	})
}

func (s *KnowledgeBaseService) observe(project string, run func() (models.AnalysisResult, error)) (models.AnalysisResult, error) {
	start := time.Now()
	result, err := run()
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError, 0)
		s.logger.Error("analysis failed", slog.String("project", project), slog.Any("error", err))
		return models.AnalysisResult{}, err
	}

	outcome := metrics.OutcomeSuccess
	if result.Issue == nil {
		outcome = metrics.OutcomeNoIssues
	}
	metrics.ObserveAnalysis(duration, outcome, result.Confidence)
	s.logger.Info("analysis complete",
		slog.String("project", project),
		slog.String("finding", result.Finding),
		slog.Int("confidence", result.Confidence),
		slog.Duration("elapsed", duration),
	)
	return result, nil
}

// RecordIncident stores a new incident.
func (s *KnowledgeBaseService) RecordIncident(ctx context.Context, project string, draft models.IncidentDraft) (models.Incident, error) {
	incident, err := s.incidents.Record(ctx, project, draft)
	if err != nil {
		return models.Incident{}, err
	}
	metrics.IncIncidentsRecorded()
	return incident, nil
}

// UpdateIncident merges patch into an incident.
func (s *KnowledgeBaseService) UpdateIncident(ctx context.Context, project, id string, patch models.IncidentPatch) (models.Incident, error) {
	return s.incidents.Update(ctx, project, id, patch)
}

// GetIncident returns one incident.
func (s *KnowledgeBaseService) GetIncident(ctx context.Context, project, id string) (models.Incident, error) {
	return s.incidents.Get(ctx, project, id)
}

// SearchIncidents filters the project's incidents.
func (s *KnowledgeBaseService) SearchIncidents(ctx context.Context, project string, filter models.SearchFilter) ([]models.Incident, error) {
	return s.incidents.Search(ctx, project, filter)
}

// RecordFix attaches a fix attempt to an incident.
func (s *KnowledgeBaseService) RecordFix(ctx context.Context, project, incidentID string, draft models.FixDraft) (models.FixRecord, error) {
	return s.incidents.RecordFix(ctx, project, incidentID, draft)
}

// UpdateFixOutcome sets the outcome of an incident's fix.
func (s *KnowledgeBaseService) UpdateFixOutcome(ctx context.Context, project, incidentID string, outcome models.FixOutcome) (models.Incident, error) {
	incident, err := s.incidents.UpdateFixOutcome(ctx, project, incidentID, outcome)
	if err != nil {
		return models.Incident{}, err
	}
	metrics.ObserveFixOutcome(string(outcome))
	return incident, nil
}

// Stats summarises the project's knowledge base.
func (s *KnowledgeBaseService) Stats(ctx context.Context, project string) (models.KnowledgeBaseStats, error) {
	return s.incidents.Stats(ctx, project)
}

// ListPatterns returns the project's catalog.
func (s *KnowledgeBaseService) ListPatterns(ctx context.Context, project string) ([]models.Pattern, error) {
	return s.catalog.EnsureCatalog(ctx, project)
}

// AddPattern appends a user pattern.
func (s *KnowledgeBaseService) AddPattern(ctx context.Context, project string, pattern models.Pattern) (models.Pattern, error) {
	return s.catalog.Add(ctx, project, pattern)
}

// UpdatePattern merges patch into a pattern.
func (s *KnowledgeBaseService) UpdatePattern(ctx context.Context, project, id string, patch models.PatternPatch) (models.Pattern, error) {
	return s.catalog.Update(ctx, project, id, patch)
}

// UpsertPattern creates or redefines a pattern.
func (s *KnowledgeBaseService) UpsertPattern(ctx context.Context, project string, pattern models.Pattern) (models.Pattern, error) {
	return s.catalog.Upsert(ctx, project, pattern)
}

// DeletePattern removes a pattern, reporting whether it existed.
func (s *KnowledgeBaseService) DeletePattern(ctx context.Context, project, id string) (bool, error) {
	return s.catalog.Delete(ctx, project, id)
}

// ApplyPack loads a YAML pattern pack into the project's catalog.
func (s *KnowledgeBaseService) ApplyPack(ctx context.Context, project, path string) (int, error) {
	pack, err := patterns.LoadPack(path)
	if err != nil {
		return 0, err
	}
	return s.catalog.ApplyPack(ctx, project, pack)
}
