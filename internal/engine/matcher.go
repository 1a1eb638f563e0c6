package engine

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// SymptomMatcher decides whether a pattern symptom occurs in a piece of incident text.
type SymptomMatcher interface {
	Contains(text, symptom string) bool
}

// SubstringMatcher is a case-insensitive substring test.
type SubstringMatcher struct{}

// Contains implements SymptomMatcher.
func (SubstringMatcher) Contains(text, symptom string) bool {
	if symptom == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(symptom))
}

// Matcher scores catalog patterns and stored incidents against a candidate issue.
type Matcher struct {
	symptoms   SymptomMatcher
	thresholds config.Thresholds
}

// NewMatcher constructs a Matcher; a nil symptom matcher falls back to SubstringMatcher.
func NewMatcher(thresholds config.Thresholds, symptoms SymptomMatcher) *Matcher {
	if symptoms == nil {
		symptoms = SubstringMatcher{}
	}
	return &Matcher{symptoms: symptoms, thresholds: thresholds}
}

// IssueText is the text patterns are matched against for a detected issue.
func IssueText(issue models.DetectedIssue) string {
	return issue.Finding + " " + issue.Details + " " + strings.Join(issue.Tags, " ")
}

// IncidentText is the text used for both symptom matching and similarity of incidents.
func IncidentText(incident models.Incident) string {
	return incident.Title + " " + incident.Description + " " + strings.Join(incident.Tags, " ")
}

// MatchPatternsToIssue returns every pattern with at least one symptom present in the issue.
func (m *Matcher) MatchPatternsToIssue(patterns []models.Pattern, issue models.DetectedIssue) []models.PatternMatch {
	return m.MatchText(patterns, IssueText(issue))
}

// MatchText returns patterns with at least one symptom in text, strongest first.
func (m *Matcher) MatchText(patterns []models.Pattern, text string) []models.PatternMatch {
	matches := make([]models.PatternMatch, 0)
	for _, pattern := range patterns {
		if len(pattern.Symptoms) == 0 {
			continue
		}
		matched := make([]string, 0, len(pattern.Symptoms))
		for _, symptom := range pattern.Symptoms {
			if m.symptoms.Contains(text, symptom) {
				matched = append(matched, symptom)
			}
		}
		if len(matched) == 0 {
			continue
		}
		matches = append(matches, models.PatternMatch{
			Pattern:         pattern,
			MatchStrength:   float64(len(matched)) / float64(len(pattern.Symptoms)),
			MatchedSymptoms: matched,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchStrength > matches[j].MatchStrength
	})
	return matches
}

// MatchForRecording applies the stricter floor used when counting pattern occurrences.
func (m *Matcher) MatchForRecording(patterns []models.Pattern, incident models.Incident) []models.PatternMatch {
	all := m.MatchText(patterns, IncidentText(incident))
	kept := all[:0]
	for _, match := range all {
		if match.MatchStrength >= m.thresholds.RecordMatchFloor {
			kept = append(kept, match)
		}
	}
	return kept
}

// MatchesAnySymptom reports whether text contains at least one of the pattern's symptoms.
func (m *Matcher) MatchesAnySymptom(pattern models.Pattern, text string) bool {
	for _, symptom := range pattern.Symptoms {
		if m.symptoms.Contains(text, symptom) {
			return true
		}
	}
	return false
}

// FindSimilarIncidents ranks pool by Jaccard similarity to target, excluding target itself.
// A non-positive limit uses the configured default.
func (m *Matcher) FindSimilarIncidents(target models.Incident, pool []models.Incident, limit int) []models.SimilarIncident {
	if limit <= 0 {
		limit = m.thresholds.SimilarLimit
	}

	targetWords := Tokenize(IncidentText(target))
	similar := make([]models.SimilarIncident, 0)
	for _, candidate := range pool {
		if target.ID != "" && candidate.ID == target.ID {
			continue
		}
		score := jaccard(targetWords, Tokenize(IncidentText(candidate)))
		if score > m.thresholds.SimilarityFloor {
			similar = append(similar, models.SimilarIncident{Incident: candidate, Similarity: score})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	if len(similar) > limit {
		similar = similar[:limit]
	}
	return similar
}

// Similarity is the Jaccard similarity of two incidents' word sets.
func Similarity(a, b models.Incident) float64 {
	return jaccard(Tokenize(IncidentText(a)), Tokenize(IncidentText(b)))
}

// Tokenize lowercases text and keeps whitespace-delimited words longer than three characters.
func Tokenize(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(word) > 3 {
			words[word] = struct{}{}
		}
	}
	return words
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for word := range a {
		if _, ok := b[word]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
