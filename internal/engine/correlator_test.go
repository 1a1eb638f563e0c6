package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

func commitEvent(at time.Time, sha, message string) models.TimelineEvent {
	return models.TimelineEvent{
		Timestamp: at,
		Source:    models.SourceGit,
		Event:     "Commit " + sha[:7] + ": " + message,
		Severity:  models.EventInfo,
		Details:   map[string]any{"sha": sha, "message": message},
	}
}

func errorEvent(at time.Time, text string) models.TimelineEvent {
	return models.TimelineEvent{Timestamp: at, Source: models.SourceLogs, Event: text, Severity: models.EventError}
}

func TestFindCorrelationsHalfWindow(t *testing.T) {
	correlator := NewCorrelator(config.DefaultThresholds())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	correlations := correlator.FindCorrelations([]models.TimelineEvent{
		errorEvent(base, "[api] ERROR db timeout"),
		commitEvent(base.Add(30*time.Minute), "abcdef0123456789", "raise pool size"),
	})
	if len(correlations) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(correlations))
	}
	c := correlations[0]
	if math.Abs(c.Confidence-0.5) > 1e-9 {
		t.Fatalf("expected confidence 0.5, got %v", c.Confidence)
	}
	want := `"[api] ERROR db timeout" within 30m of commit abcdef0: raise pool size`
	if c.Description != want {
		t.Fatalf("unexpected description %q", c.Description)
	}
	if c.Cause.Source != models.SourceGit || c.Effect.Severity != models.EventError {
		t.Fatalf("expected commit cause and error effect, got %+v", c)
	}
}

func TestFindCorrelationsWindowFloorAndCap(t *testing.T) {
	correlator := NewCorrelator(config.DefaultThresholds())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	timeline := []models.TimelineEvent{
		commitEvent(base, "1111111111", "first"),
		errorEvent(base.Add(time.Hour), "exactly one hour later"),
		errorEvent(base.Add(50*time.Minute), "fifty minutes later"),
	}
	correlations := correlator.FindCorrelations(timeline)
	if len(correlations) != 1 {
		t.Fatalf("expected only the in-window pair, got %d", len(correlations))
	}
	if correlations[0].Confidence != 0.3 {
		t.Fatalf("expected floored confidence 0.3, got %v", correlations[0].Confidence)
	}

	timeline = []models.TimelineEvent{commitEvent(base, "2222222222", "deploy")}
	for i := 0; i < 8; i++ {
		timeline = append(timeline, errorEvent(base.Add(time.Duration(i)*time.Minute), "panic"))
	}
	correlations = correlator.FindCorrelations(timeline)
	if len(correlations) != 5 {
		t.Fatalf("expected cap of 5, got %d", len(correlations))
	}
	for i := 1; i < len(correlations); i++ {
		if correlations[i].Confidence > correlations[i-1].Confidence {
			t.Fatalf("correlations not sorted at %d", i)
		}
	}
	if !strings.Contains(correlations[0].Description, "within 0s") {
		t.Fatalf("expected the closest pair first, got %q", correlations[0].Description)
	}
}

func TestFindCorrelationsIgnoresNonErrors(t *testing.T) {
	correlator := NewCorrelator(config.DefaultThresholds())
	base := time.Now()
	got := correlator.FindCorrelations([]models.TimelineEvent{
		commitEvent(base, "3333333333", "docs"),
		{Timestamp: base, Source: models.SourceLogs, Event: "WARN slow", Severity: models.EventWarning},
	})
	if len(got) != 0 {
		t.Fatalf("expected no correlations, got %+v", got)
	}
}
