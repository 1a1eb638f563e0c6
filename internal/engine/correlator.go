package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/extractors"
	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// Correlator links error events to commits that landed close to them in time.
type Correlator struct {
	thresholds config.Thresholds
}

// NewCorrelator constructs a Correlator.
func NewCorrelator(thresholds config.Thresholds) *Correlator {
	return &Correlator{thresholds: thresholds}
}

// FindCorrelations pairs every error event with every commit inside the correlation window.
// Confidence decays linearly with distance and is floored; only the strongest few are kept.
func (c *Correlator) FindCorrelations(timeline []models.TimelineEvent) []models.Correlation {
	window := c.thresholds.CorrelationWindow
	if window <= 0 {
		return nil
	}

	var errs, commits []models.TimelineEvent
	for _, event := range timeline {
		switch {
		case event.Source == models.SourceGit:
			commits = append(commits, event)
		case event.Severity == models.EventError:
			errs = append(errs, event)
		}
	}

	correlations := make([]models.Correlation, 0)
	for _, errEvent := range errs {
		for _, commit := range commits {
			delta := utils.AbsDelta(errEvent.Timestamp, commit.Timestamp)
			if delta >= window {
				continue
			}
			confidence := 1 - float64(delta.Milliseconds())/float64(window.Milliseconds())
			if confidence < c.thresholds.CorrelationFloor {
				confidence = c.thresholds.CorrelationFloor
			}
			correlations = append(correlations, models.Correlation{
				Description: describeCorrelation(errEvent, commit, delta),
				Confidence:  confidence,
				TimeDelta:   delta,
				Cause:       commit,
				Effect:      errEvent,
			})
		}
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		return correlations[i].Confidence > correlations[j].Confidence
	})
	if limit := c.thresholds.CorrelationCap; limit > 0 && len(correlations) > limit {
		correlations = correlations[:limit]
	}
	return correlations
}

func describeCorrelation(errEvent, commit models.TimelineEvent, delta time.Duration) string {
	sha, _ := commit.Details["sha"].(string)
	message, _ := commit.Details["message"].(string)
	if message == "" {
		message = commit.Event
	}
	return fmt.Sprintf("\"%s\" within %s of commit %s: %s", errEvent.Event, utils.HumanizeDelta(delta), extractors.ShortSHA(sha), message)
}
