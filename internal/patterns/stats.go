package patterns

import (
	"github.com/miradorstack/mirador-kb/internal/engine"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// RecomputeStats recounts occurrences and success rates from the incident history.
// An incident counts toward a pattern when its title or description contains any symptom.
// successRate is left untouched for patterns with no fixed incidents.
func RecomputeStats(patterns []models.Pattern, incidents []models.Incident, matcher *engine.Matcher) []models.Pattern {
	out := make([]models.Pattern, len(patterns))
	for i, pattern := range patterns {
		occurrences, fixed, resolved := 0, 0, 0
		for _, incident := range incidents {
			if !matcher.MatchesAnySymptom(pattern, incident.Title+" "+incident.Description) {
				continue
			}
			occurrences++
			if incident.Fix == nil {
				continue
			}
			fixed++
			if incident.Fix.Outcome == models.OutcomeResolved {
				resolved++
			}
		}

		pattern.Occurrences = occurrences
		if fixed > 0 {
			pattern.SuccessRate = float64(resolved) / float64(fixed)
		}
		out[i] = pattern
	}
	return out
}
