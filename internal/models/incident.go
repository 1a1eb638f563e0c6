package models

import "time"

// IncidentType classifies what kind of problem an incident describes.
type IncidentType string

const (
	IncidentDeploymentFailure      IncidentType = "deployment-failure"
	IncidentPerformanceDegradation IncidentType = "performance-degradation"
	IncidentCrash                  IncidentType = "crash"
	IncidentErrorSpike             IncidentType = "error-spike"
	IncidentResourceExhaustion     IncidentType = "resource-exhaustion"
	IncidentDependencyFailure      IncidentType = "dependency-failure"
	IncidentCustom                 IncidentType = "custom"
)

// Valid reports whether t is a known incident type.
func (t IncidentType) Valid() bool {
	switch t {
	case IncidentDeploymentFailure, IncidentPerformanceDegradation, IncidentCrash,
		IncidentErrorSpike, IncidentResourceExhaustion, IncidentDependencyFailure, IncidentCustom:
		return true
	}
	return false
}

// Severity captures impact levels.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() < 4
}

// Rank orders severities from most to least urgent (critical = 0).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// IncidentStatus tracks the incident lifecycle.
type IncidentStatus string

const (
	StatusOpen          IncidentStatus = "open"
	StatusInvestigating IncidentStatus = "investigating"
	StatusResolved      IncidentStatus = "resolved"
	StatusDismissed     IncidentStatus = "dismissed"
)

// Valid reports whether s is a known status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// SourceType names the telemetry an evidence snapshot came from.
type SourceType string

const (
	SourceLogs       SourceType = "logs"
	SourceMetrics    SourceType = "metrics"
	SourceGit        SourceType = "git"
	SourceKubernetes SourceType = "kubernetes"
	SourceChaos      SourceType = "chaos"
	SourcePerf       SourceType = "perf"
	SourceManual     SourceType = "manual"
)

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceLogs, SourceMetrics, SourceGit, SourceKubernetes, SourceChaos, SourcePerf, SourceManual:
		return true
	}
	return false
}

// IncidentSource is an evidence snapshot attached to an incident.
type IncidentSource struct {
	Type    SourceType     `json:"type"`
	Summary string         `json:"summary"`
	Data    map[string]any `json:"data,omitempty"`
}

// Incident is a suspected or confirmed problem instance.
type Incident struct {
	ID               string           `json:"id"`
	Timestamp        time.Time        `json:"timestamp"`
	Project          string           `json:"project"`
	Type             IncidentType     `json:"type"`
	Severity         Severity         `json:"severity"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	RootCause        string           `json:"rootCause,omitempty"`
	Resolution       string           `json:"resolution,omitempty"`
	Status           IncidentStatus   `json:"status"`
	Sources          []IncidentSource `json:"sources"`
	Tags             []string         `json:"tags"`
	RelatedIncidents []string         `json:"relatedIncidents,omitempty"`
	Fix              *FixRecord       `json:"fix,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	ResolvedAt       *time.Time       `json:"resolvedAt,omitempty"`
}

// FixType classifies a remedy.
type FixType string

const (
	FixCodeChange     FixType = "code-change"
	FixConfigChange   FixType = "config-change"
	FixInfrastructure FixType = "infrastructure"
	FixRollback       FixType = "rollback"
	FixManual         FixType = "manual"
)

// Valid reports whether t is a known fix type.
func (t FixType) Valid() bool {
	switch t {
	case FixCodeChange, FixConfigChange, FixInfrastructure, FixRollback, FixManual:
		return true
	}
	return false
}

// FixOutcome is the result of applying a fix.
type FixOutcome string

const (
	OutcomePending  FixOutcome = "pending"
	OutcomePartial  FixOutcome = "partial"
	OutcomeFailed   FixOutcome = "failed"
	OutcomeResolved FixOutcome = "resolved"
)

// Valid reports whether o is a known outcome.
func (o FixOutcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomePartial, OutcomeFailed, OutcomeResolved:
		return true
	}
	return false
}

// FixRecord is one attempted remedy for an incident.
type FixRecord struct {
	ID          string     `json:"id"`
	IncidentID  string     `json:"incidentId"`
	Description string     `json:"description"`
	Type        FixType    `json:"type"`
	Outcome     FixOutcome `json:"outcome"`
	AppliedAt   time.Time  `json:"appliedAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	Diff        string     `json:"diff,omitempty"`
	PRRef       string     `json:"prRef,omitempty"`
}
