package models

import "time"

// IncidentDraft carries the caller-supplied fields of a new incident.
type IncidentDraft struct {
	Timestamp        time.Time        `json:"timestamp,omitempty"`
	Type             IncidentType     `json:"type"`
	Severity         Severity         `json:"severity"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	RootCause        string           `json:"rootCause,omitempty"`
	Resolution       string           `json:"resolution,omitempty"`
	Sources          []IncidentSource `json:"sources,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
	RelatedIncidents []string         `json:"relatedIncidents,omitempty"`
}

// IncidentPatch carries a partial incident update; nil fields are left untouched.
type IncidentPatch struct {
	Type             *IncidentType    `json:"type,omitempty"`
	Severity         *Severity        `json:"severity,omitempty"`
	Title            *string          `json:"title,omitempty"`
	Description      *string          `json:"description,omitempty"`
	RootCause        *string          `json:"rootCause,omitempty"`
	Resolution       *string          `json:"resolution,omitempty"`
	Status           *IncidentStatus  `json:"status,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
	RelatedIncidents []string         `json:"relatedIncidents,omitempty"`
	AddSources       []IncidentSource `json:"addSources,omitempty"`
}

// FixDraft carries the caller-supplied fields of a fix attempt.
type FixDraft struct {
	Description string  `json:"description"`
	Type        FixType `json:"type"`
	Diff        string  `json:"diff,omitempty"`
	PRRef       string  `json:"prRef,omitempty"`
}

// SearchFilter narrows an incident search. Zero values mean "no filter".
type SearchFilter struct {
	Type     IncidentType   `json:"type,omitempty"`
	Status   IncidentStatus `json:"status,omitempty"`
	Severity Severity       `json:"severity,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Query    string         `json:"query,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// KnowledgeBaseStats summarises a project's knowledge base.
type KnowledgeBaseStats struct {
	Incidents IncidentStats `json:"incidents"`
	Patterns  PatternStats  `json:"patterns"`
	Fixes     FixStats      `json:"fixes"`
}

// IncidentStats counts incidents.
type IncidentStats struct {
	Total    int                  `json:"total"`
	Open     int                  `json:"open"`
	Resolved int                  `json:"resolved"`
	ByType   map[IncidentType]int `json:"byType"`
}

// PatternStats counts catalog entries.
type PatternStats struct {
	Total      int                     `json:"total"`
	ByCategory map[PatternCategory]int `json:"byCategory"`
}

// FixStats counts fix attempts and how many resolved their incident.
type FixStats struct {
	Total       int     `json:"total"`
	Resolved    int     `json:"resolved"`
	SuccessRate float64 `json:"successRate"`
}
