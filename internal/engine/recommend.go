package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// RankFixes gathers remedies from the strongest matched patterns and from resolved
// similar incidents, deduplicates them by description and keeps the best few.
func RankFixes(thresholds config.Thresholds, matches []models.PatternMatch, similar []models.SimilarIncident) []models.FixSuggestion {
	candidates := make([]models.FixSuggestion, 0)

	top := matches
	if len(top) > thresholds.FixPatterns {
		top = top[:thresholds.FixPatterns]
	}
	for _, match := range top {
		for _, fix := range match.Pattern.Fixes {
			candidates = append(candidates, models.FixSuggestion{
				Description: fix.Description,
				Type:        fix.Type,
				Confidence:  match.MatchStrength * match.Pattern.SuccessRate * 100,
				Source:      "Pattern: " + match.Pattern.Name,
			})
		}
	}

	for _, s := range similar {
		resolution := strings.TrimSpace(s.Incident.Resolution)
		if resolution == "" {
			continue
		}
		fixType := models.FixManual
		autoFix := false
		if fix := s.Incident.Fix; fix != nil {
			if fix.Type != "" {
				fixType = fix.Type
			}
			autoFix = fix.Diff != ""
		}
		candidates = append(candidates, models.FixSuggestion{
			Description:      resolution,
			Type:             fixType,
			Confidence:       s.Similarity * 100,
			Source:           "Similar incident: " + s.Incident.Title,
			AutoFixAvailable: autoFix,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	seen := make(map[string]struct{}, len(candidates))
	fixes := make([]models.FixSuggestion, 0, len(candidates))
	for _, candidate := range candidates {
		key := strings.ToLower(strings.TrimSpace(candidate.Description))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fixes = append(fixes, candidate)
		if len(fixes) == thresholds.FixCap {
			break
		}
	}
	return fixes
}

// ScoreConfidence combines the evidence into an integer score capped by the configured ceiling.
func ScoreConfidence(weights config.ConfidenceWeights, matches []models.PatternMatch, correlations []models.Correlation, similar []models.SimilarIncident) int {
	score := weights.Base

	if len(matches) > 0 {
		best := 0.0
		for _, m := range matches {
			best = math.Max(best, m.MatchStrength)
		}
		score += best * weights.Pattern
	}
	if len(correlations) > 0 {
		best := 0.0
		for _, c := range correlations {
			best = math.Max(best, c.Confidence)
		}
		score += math.Min(best*weights.Correlation, weights.Correlation)
	}
	if len(similar) > 0 {
		best := 0.0
		for _, s := range similar {
			best = math.Max(best, s.Similarity)
		}
		score += best * weights.Similarity
	}
	if len(matches) > 0 && len(correlations) > 0 {
		score += weights.Bonus
	}

	rounded := int(math.Round(score))
	if rounded > weights.Cap {
		rounded = weights.Cap
	}
	if rounded < 0 {
		rounded = 0
	}
	return rounded
}

// ScoreIssueConfidence scores an analysis that found an issue. The result never equals
// weights.NoIssue, which is reserved for "No issues detected".
func ScoreIssueConfidence(weights config.ConfidenceWeights, matches []models.PatternMatch, correlations []models.Correlation, similar []models.SimilarIncident) int {
	score := ScoreConfidence(weights, matches, correlations, similar)
	if score != weights.NoIssue {
		return score
	}
	if score > 0 {
		return score - 1
	}
	return score + 1
}

// SelectRootCause prefers the best pattern's leading root causes, then a commit correlation,
// then a generic statement of the finding.
func SelectRootCause(issue models.DetectedIssue, matches []models.PatternMatch, correlations []models.Correlation) string {
	if len(matches) > 0 && len(matches[0].Pattern.RootCauses) > 0 {
		causes := matches[0].Pattern.RootCauses
		if len(causes) > 2 {
			causes = causes[:2]
		}
		return strings.Join(causes, " or ")
	}
	if len(correlations) > 0 {
		return "recent code change may be the trigger: " + correlations[0].Description
	}
	return fmt.Sprintf("Detected: %s. Further investigation needed.", issue.Finding)
}
