package engine

import (
	"testing"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

func oomPattern() models.Pattern {
	return models.Pattern{
		ID:          "pat-oom-killed",
		Name:        "OOMKilled Container",
		Category:    models.CategoryResource,
		Symptoms:    []string{"oomkilled", "out of memory", "memory limit", "heap space", "oom"},
		RootCauses:  []string{"Container memory limit too low", "Memory leak in application"},
		Fixes:       []models.PatternFix{{Description: "Increase memory limit", Type: models.FixConfigChange}},
		SuccessRate: 0.8,
	}
}

func connectionPattern() models.Pattern {
	return models.Pattern{
		ID:          "pat-connection-refused",
		Name:        "Connection Refused",
		Category:    models.CategoryReliability,
		Symptoms:    []string{"connection refused", "econnrefused", "dial tcp"},
		RootCauses:  []string{"Dependency not running"},
		SuccessRate: 0.7,
	}
}

func TestMatchPatternsToIssueSortedAndBounded(t *testing.T) {
	matcher := NewMatcher(config.DefaultThresholds(), nil)
	issue := models.DetectedIssue{
		Finding: "Out of memory condition detected (1 events)",
		Details: "Samples:\n- [api] container api was OOMKilled; dial tcp failed",
		Tags:    []string{"oom", "memory"},
	}

	matches := matcher.MatchPatternsToIssue([]models.Pattern{connectionPattern(), oomPattern(), {ID: "empty"}}, issue)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Pattern.ID != "pat-oom-killed" {
		t.Fatalf("expected oom pattern first, got %s", matches[0].Pattern.ID)
	}
	for i, m := range matches {
		if m.MatchStrength < 0 || m.MatchStrength > 1 {
			t.Fatalf("match strength out of range: %v", m.MatchStrength)
		}
		if i > 0 && m.MatchStrength > matches[i-1].MatchStrength {
			t.Fatalf("matches not sorted at %d", i)
		}
	}
	if matches[0].MatchStrength != 0.6 {
		t.Fatalf("expected 3/5 symptoms, got %v (%v)", matches[0].MatchStrength, matches[0].MatchedSymptoms)
	}
}

func TestMatchForRecordingAppliesFloor(t *testing.T) {
	matcher := NewMatcher(config.DefaultThresholds(), nil)
	wide := models.Pattern{ID: "wide", Symptoms: []string{"timeout", "a1", "a2", "a3", "a4"}}
	incident := models.Incident{Title: "Checkout timeout", Description: "upstream timeout"}

	if got := matcher.MatchText([]models.Pattern{wide}, IncidentText(incident)); len(got) != 1 {
		t.Fatalf("expected reporting match, got %d", len(got))
	}
	if got := matcher.MatchForRecording([]models.Pattern{wide}, incident); len(got) != 0 {
		t.Fatalf("expected 0.2 strength to fall below recording floor, got %+v", got)
	}

	narrow := models.Pattern{ID: "narrow", Symptoms: []string{"timeout", "b1", "b2", "b3"}}
	if got := matcher.MatchForRecording([]models.Pattern{narrow}, incident); len(got) != 1 {
		t.Fatalf("expected 0.25 strength to pass recording floor, got %+v", got)
	}
}

type exactMatcher struct{}

func (exactMatcher) Contains(text, symptom string) bool { return text == symptom }

func TestMatcherUsesPluggableSymptomMatcher(t *testing.T) {
	matcher := NewMatcher(config.DefaultThresholds(), exactMatcher{})
	if got := matcher.MatchText([]models.Pattern{oomPattern()}, "container was oomkilled"); len(got) != 0 {
		t.Fatalf("expected custom matcher to reject substring hits, got %+v", got)
	}
	if !matcher.MatchesAnySymptom(oomPattern(), "oom") {
		t.Fatalf("expected exact symptom to match")
	}
}

func TestFindSimilarIncidents(t *testing.T) {
	matcher := NewMatcher(config.DefaultThresholds(), nil)
	target := models.Incident{ID: "a", Title: "Checkout pods OOMKilled after deploy", Description: "checkout service exceeded memory limit", Tags: []string{"oom", "memory"}}
	pool := []models.Incident{
		target,
		{ID: "b", Title: "Payments pods OOMKilled after deploy", Description: "payments service exceeded memory limit", Tags: []string{"oom", "memory"}},
		{ID: "c", Title: "Certificate expired", Description: "TLS handshake failures on ingress", Tags: []string{"tls"}},
	}

	similar := matcher.FindSimilarIncidents(target, pool, 5)
	if len(similar) != 1 {
		t.Fatalf("expected one similar incident, got %+v", similar)
	}
	if similar[0].Incident.ID != "b" || similar[0].Similarity <= 0.1 {
		t.Fatalf("unexpected result %+v", similar[0])
	}
	for _, s := range similar {
		if s.Incident.ID == target.ID {
			t.Fatalf("self must be excluded")
		}
	}

	if ab, ba := Similarity(pool[0], pool[1]), Similarity(pool[1], pool[0]); ab != ba {
		t.Fatalf("similarity not symmetric: %v vs %v", ab, ba)
	}
}

func TestFindSimilarIncidentsLimit(t *testing.T) {
	matcher := NewMatcher(config.DefaultThresholds(), nil)
	target := models.Incident{ID: "t", Title: "database connection refused errors"}
	pool := make([]models.Incident, 0, 8)
	for i := 0; i < 8; i++ {
		pool = append(pool, models.Incident{ID: string(rune('a' + i)), Title: "database connection refused errors"})
	}
	if got := matcher.FindSimilarIncidents(target, pool, 0); len(got) != 5 {
		t.Fatalf("expected default limit 5, got %d", len(got))
	}
	if got := matcher.FindSimilarIncidents(target, pool, 2); len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
}

func TestTokenizeDropsShortWords(t *testing.T) {
	words := Tokenize("The API was DOWN for most users")
	for _, w := range []string{"down", "most", "users"} {
		if _, ok := words[w]; !ok {
			t.Fatalf("expected %q in %v", w, words)
		}
	}
	for _, w := range []string{"the", "api", "was", "for"} {
		if _, ok := words[w]; ok {
			t.Fatalf("did not expect %q", w)
		}
	}
}
