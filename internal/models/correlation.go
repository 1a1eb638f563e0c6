package models

import "time"

// TimelineEvent is a read-only projection of telemetry used for display and correlation.
type TimelineEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Source    SourceType     `json:"source"`
	Event     string         `json:"event"`
	Severity  EventSeverity  `json:"severity"`
	Details   map[string]any `json:"details,omitempty"`
}

// EventSeverity grades timeline events.
type EventSeverity string

const (
	EventError   EventSeverity = "error"
	EventWarning EventSeverity = "warning"
	EventInfo    EventSeverity = "info"
)

// Correlation is a time-proximity relationship between two telemetry sources.
type Correlation struct {
	Description string        `json:"description"`
	Confidence  float64       `json:"confidence"`
	TimeDelta   time.Duration `json:"timeDelta"`
	Cause       TimelineEvent `json:"cause"`
	Effect      TimelineEvent `json:"effect"`
}

// DetectedIssue is a candidate problem produced by the issue detector.
type DetectedIssue struct {
	Finding  string       `json:"finding"`
	Details  string       `json:"details"`
	Type     IncidentType `json:"type"`
	Severity Severity     `json:"severity"`
	Tags     []string     `json:"tags"`
}

// PatternMatch pairs a catalog pattern with how strongly it matched an issue.
type PatternMatch struct {
	Pattern         Pattern  `json:"pattern"`
	MatchStrength   float64  `json:"matchStrength"`
	MatchedSymptoms []string `json:"matchedSymptoms"`
}

// SimilarIncident pairs a stored incident with its Jaccard similarity to a target.
type SimilarIncident struct {
	Incident   Incident `json:"incident"`
	Similarity float64  `json:"similarity"`
}

// FixSuggestion is one ranked remedy candidate.
type FixSuggestion struct {
	Description      string  `json:"description"`
	Type             FixType `json:"type"`
	Confidence       float64 `json:"confidence"`
	Source           string  `json:"source"`
	AutoFixAvailable bool    `json:"autoFixAvailable"`
}

// AnalysisResult is the engine's output for a single analysis run.
type AnalysisResult struct {
	Timestamp        time.Time         `json:"timestamp"`
	Project          string            `json:"project"`
	Finding          string            `json:"finding"`
	Confidence       int               `json:"confidence"`
	RootCause        string            `json:"rootCause"`
	Issue            *DetectedIssue    `json:"issue,omitempty"`
	Timeline         []TimelineEvent   `json:"timeline"`
	Correlations     []Correlation     `json:"correlations"`
	MatchedPatterns  []PatternMatch    `json:"matchedPatterns"`
	SimilarIncidents []SimilarIncident `json:"similarIncidents"`
	SuggestedFixes   []FixSuggestion   `json:"suggestedFixes"`
}

// AnalyzeOptions selects the analysis mode.
type AnalyzeOptions struct {
	IncludeK8s bool   `json:"includeK8s,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	IncidentID string `json:"incidentId,omitempty"`
}
