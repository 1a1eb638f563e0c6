package models

import "time"

// PatternCategory groups failure patterns.
type PatternCategory string

const (
	CategoryDeployment    PatternCategory = "deployment"
	CategoryPerformance   PatternCategory = "performance"
	CategoryReliability   PatternCategory = "reliability"
	CategorySecurity      PatternCategory = "security"
	CategoryResource      PatternCategory = "resource"
	CategoryConfiguration PatternCategory = "configuration"
)

// Valid reports whether c is a known category.
func (c PatternCategory) Valid() bool {
	switch c {
	case CategoryDeployment, CategoryPerformance, CategoryReliability,
		CategorySecurity, CategoryResource, CategoryConfiguration:
		return true
	}
	return false
}

// Pattern is a named, reusable failure signature.
type Pattern struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Category    PatternCategory `json:"category" yaml:"category"`
	Symptoms    []string        `json:"symptoms" yaml:"symptoms"`
	RootCauses  []string        `json:"rootCauses" yaml:"rootCauses"`
	Fixes       []PatternFix    `json:"fixes" yaml:"fixes"`
	Occurrences int             `json:"occurrences" yaml:"occurrences"`
	LastSeen    *time.Time      `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty"`
	SuccessRate float64         `json:"successRate" yaml:"successRate"`
	Confidence  float64         `json:"confidence" yaml:"confidence"`
}

// PatternFix is a ranked candidate remedy carried by a pattern.
type PatternFix struct {
	Description string  `json:"description" yaml:"description"`
	Type        FixType `json:"type" yaml:"type"`
}

// PatternPatch carries the mutable fields of a pattern update; nil fields are left untouched.
type PatternPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *PatternCategory `json:"category,omitempty"`
	Symptoms    []string         `json:"symptoms,omitempty"`
	RootCauses  []string         `json:"rootCauses,omitempty"`
	Fixes       []PatternFix     `json:"fixes,omitempty"`
	Confidence  *float64         `json:"confidence,omitempty"`
}
