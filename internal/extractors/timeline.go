package extractors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// ShortSHA trims a commit hash to seven characters.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// Timeline merges logs, commits, cluster events and report runs into one time-sorted view.
func (d *Detector) Timeline(bundle models.TelemetryBundle) []models.TimelineEvent {
	events := make([]models.TimelineEvent, 0, len(bundle.Logs)+len(bundle.Commits))

	for _, line := range bundle.Logs {
		text := strings.TrimSpace(line.Message)
		if line.Service != "" {
			text = fmt.Sprintf("[%s] %s", line.Service, text)
		}
		events = append(events, models.TimelineEvent{
			Timestamp: line.Timestamp,
			Source:    models.SourceLogs,
			Event:     text,
			Severity:  ClassifyLine(line.Message),
			Details:   map[string]any{"service": line.Service},
		})
	}

	for _, commit := range bundle.Commits {
		events = append(events, models.TimelineEvent{
			Timestamp: commit.Date,
			Source:    models.SourceGit,
			Event:     fmt.Sprintf("Commit %s: %s", ShortSHA(commit.SHA), firstLine(commit.Message)),
			Severity:  models.EventInfo,
			Details: map[string]any{
				"sha":     commit.SHA,
				"author":  commit.Author,
				"message": firstLine(commit.Message),
			},
		})
	}

	if bundle.Kubernetes != nil {
		for _, event := range bundle.Kubernetes.Events {
			severity := models.EventInfo
			if strings.EqualFold(event.Type, "Warning") {
				severity = models.EventWarning
			}
			events = append(events, models.TimelineEvent{
				Timestamp: event.Timestamp,
				Source:    models.SourceKubernetes,
				Event:     fmt.Sprintf("%s %s: %s", event.Reason, event.Object, event.Message),
				Severity:  severity,
				Details:   map[string]any{"reason": event.Reason, "object": event.Object},
			})
		}
	}

	if chaos := bundle.Chaos; chaos != nil && !chaos.Timestamp.IsZero() {
		severity := models.EventInfo
		if chaos.Score < d.thresholds.ChaosScoreFloor {
			severity = models.EventWarning
		}
		events = append(events, models.TimelineEvent{
			Timestamp: chaos.Timestamp,
			Source:    models.SourceChaos,
			Event:     fmt.Sprintf("Chaos run scored %.0f/100", chaos.Score),
			Severity:  severity,
		})
	}

	if perf := bundle.Perf; perf != nil && !perf.Timestamp.IsZero() {
		severity := models.EventInfo
		if perf.ErrorRate() > d.thresholds.PerfErrorRate {
			severity = models.EventWarning
		}
		events = append(events, models.TimelineEvent{
			Timestamp: perf.Timestamp,
			Source:    models.SourcePerf,
			Event:     fmt.Sprintf("Load test: %d requests, %.1f%% failed, p95 %.0fms", perf.TotalRequests, perf.ErrorRate()*100, perf.P95LatencyMs),
			Severity:  severity,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
