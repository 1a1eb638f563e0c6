package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/extractors"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// Collector assembles the telemetry bundle for a project. Implementations may return a
// partial bundle together with an error when some sources failed.
type Collector interface {
	Collect(ctx context.Context, project string, opts models.AnalyzeOptions) (models.TelemetryBundle, error)
}

// PatternSource yields the project's pattern catalog.
type PatternSource interface {
	EnsureCatalog(ctx context.Context, project string) ([]models.Pattern, error)
}

// IncidentSource yields stored incidents.
type IncidentSource interface {
	List(ctx context.Context, project string) ([]models.Incident, error)
	Get(ctx context.Context, project, id string) (models.Incident, error)
}

const noIssuesFinding = "No issues detected"

// Pipeline composes detection, matching, correlation and scoring into an AnalysisResult.
type Pipeline struct {
	logger     *slog.Logger
	collector  Collector
	patterns   PatternSource
	incidents  IncidentSource
	detector   *extractors.Detector
	matcher    *Matcher
	correlator *Correlator
	thresholds config.Thresholds
	now        func() time.Time
}

// NewPipeline constructs an analysis pipeline. collector may be nil when only
// pre-assembled bundles and incident replays are analysed.
func NewPipeline(
	logger *slog.Logger,
	thresholds config.Thresholds,
	collector Collector,
	patterns PatternSource,
	incidents IncidentSource,
	symptoms SymptomMatcher,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		collector:  collector,
		patterns:   patterns,
		incidents:  incidents,
		detector:   extractors.NewDetector(thresholds),
		matcher:    NewMatcher(thresholds, symptoms),
		correlator: NewCorrelator(thresholds),
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Matcher exposes the pipeline's matcher so recording paths share one symptom rule.
func (p *Pipeline) Matcher() *Matcher {
	return p.matcher
}

// AnalyzeSystem collects telemetry and analyses it, or replays a stored incident when
// opts.IncidentID is set.
func (p *Pipeline) AnalyzeSystem(ctx context.Context, project string, opts models.AnalyzeOptions) (models.AnalysisResult, error) {
	if opts.IncidentID != "" {
		return p.ReplayIncident(ctx, project, opts.IncidentID)
	}
	if p.collector == nil {
		return models.AnalysisResult{}, errors.New("telemetry collector not configured")
	}

	bundle, err := p.collector.Collect(ctx, project, opts)
	if err != nil {
		if ctx.Err() != nil {
			return models.AnalysisResult{}, fmt.Errorf("collect telemetry: %w", ctx.Err())
		}
		p.logger.Warn("telemetry collection incomplete", slog.String("project", project), slog.Any("error", err))
	}
	return p.AnalyzeBundle(ctx, project, bundle)
}

// AnalyzeBundle analyses an already-assembled bundle.
func (p *Pipeline) AnalyzeBundle(ctx context.Context, project string, bundle models.TelemetryBundle) (models.AnalysisResult, error) {
	issues := p.detector.Detect(bundle)
	if len(issues) == 0 {
		return p.noIssues(project), nil
	}
	primary := issues[0]
	p.logger.Debug("primary issue selected",
		slog.String("project", project),
		slog.String("finding", primary.Finding),
		slog.Int("issues", len(issues)),
	)

	catalog, err := p.catalog(ctx, project)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	stored, err := p.storedIncidents(ctx, project)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	timeline := p.detector.Timeline(bundle)
	matches := p.matcher.MatchPatternsToIssue(catalog, primary)
	correlations := p.correlator.FindCorrelations(timeline)
	similar := p.matcher.FindSimilarIncidents(syntheticIncident(project, primary), stored, p.thresholds.SimilarLimit)

	return p.assemble(project, primary, timeline, matches, correlations, similar), nil
}

// ReplayIncident runs matching against a stored incident's own text. No fresh timeline is
// collected, so correlations are always empty.
func (p *Pipeline) ReplayIncident(ctx context.Context, project, incidentID string) (models.AnalysisResult, error) {
	if p.incidents == nil {
		return models.AnalysisResult{}, errors.New("incident store not configured")
	}
	incident, err := p.incidents.Get(ctx, project, incidentID)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("replay incident: %w", err)
	}

	catalog, err := p.catalog(ctx, project)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	stored, err := p.storedIncidents(ctx, project)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	issue := models.DetectedIssue{
		Finding:  incident.Title,
		Details:  incident.Description,
		Type:     incident.Type,
		Severity: incident.Severity,
		Tags:     incident.Tags,
	}
	matches := p.matcher.MatchText(catalog, IncidentText(incident))
	similar := p.matcher.FindSimilarIncidents(incident, stored, p.thresholds.SimilarLimit)

	return p.assemble(project, issue, replayTimeline(incident), matches, []models.Correlation{}, similar), nil
}

func (p *Pipeline) assemble(
	project string,
	issue models.DetectedIssue,
	timeline []models.TimelineEvent,
	matches []models.PatternMatch,
	correlations []models.Correlation,
	similar []models.SimilarIncident,
) models.AnalysisResult {
	primary := issue
	return models.AnalysisResult{
		Timestamp:        p.now(),
		Project:          project,
		Finding:          issue.Finding,
		Confidence:       ScoreIssueConfidence(p.thresholds.Confidence, matches, correlations, similar),
		RootCause:        SelectRootCause(issue, matches, correlations),
		Issue:            &primary,
		Timeline:         timeline,
		Correlations:     correlations,
		MatchedPatterns:  matches,
		SimilarIncidents: similar,
		SuggestedFixes:   RankFixes(p.thresholds, matches, similar),
	}
}

func (p *Pipeline) noIssues(project string) models.AnalysisResult {
	return models.AnalysisResult{
		Timestamp:        p.now(),
		Project:          project,
		Finding:          noIssuesFinding,
		Confidence:       p.thresholds.Confidence.NoIssue,
		RootCause:        noIssuesFinding,
		Timeline:         []models.TimelineEvent{},
		Correlations:     []models.Correlation{},
		MatchedPatterns:  []models.PatternMatch{},
		SimilarIncidents: []models.SimilarIncident{},
		SuggestedFixes:   []models.FixSuggestion{},
	}
}

func (p *Pipeline) catalog(ctx context.Context, project string) ([]models.Pattern, error) {
	if p.patterns == nil {
		return nil, nil
	}
	catalog, err := p.patterns.EnsureCatalog(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	return catalog, nil
}

func (p *Pipeline) storedIncidents(ctx context.Context, project string) ([]models.Incident, error) {
	if p.incidents == nil {
		return nil, nil
	}
	incidents, err := p.incidents.List(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}
	return incidents, nil
}

func syntheticIncident(project string, issue models.DetectedIssue) models.Incident {
	return models.Incident{
		Project:     project,
		Type:        issue.Type,
		Severity:    issue.Severity,
		Title:       issue.Finding,
		Description: issue.Details,
		Tags:        issue.Tags,
	}
}

func replayTimeline(incident models.Incident) []models.TimelineEvent {
	timeline := make([]models.TimelineEvent, 0, len(incident.Sources))
	for _, source := range incident.Sources {
		timeline = append(timeline, models.TimelineEvent{
			Timestamp: incident.Timestamp,
			Source:    source.Type,
			Event:     source.Summary,
			Severity:  eventSeverityFor(incident.Severity),
			Details:   source.Data,
		})
	}
	return timeline
}

func eventSeverityFor(severity models.Severity) models.EventSeverity {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return models.EventError
	case models.SeverityMedium:
		return models.EventWarning
	default:
		return models.EventInfo
	}
}
