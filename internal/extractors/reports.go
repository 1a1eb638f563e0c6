package extractors

import (
	"fmt"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// ReportsExtractor checks the latest performance and failure-injection summaries.
type ReportsExtractor struct {
	thresholds config.Thresholds
}

// NewReportsExtractor constructs a report detector.
func NewReportsExtractor(thresholds config.Thresholds) *ReportsExtractor {
	return &ReportsExtractor{thresholds: thresholds}
}

// Detect emits perf issues (error rate, then p95 latency) followed by a chaos issue.
func (e *ReportsExtractor) Detect(perf *models.PerfReport, chaos *models.ChaosReport) []models.DetectedIssue {
	issues := make([]models.DetectedIssue, 0)

	if perf != nil {
		if rate := perf.ErrorRate(); rate > e.thresholds.PerfErrorRate {
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("Performance test error rate at %.1f%%", rate*100),
				Details:  fmt.Sprintf("%d of %d requests failed during the last load test.", perf.FailedRequests, perf.TotalRequests),
				Type:     models.IncidentPerformanceDegradation,
				Severity: models.SeverityHigh,
				Tags:     []string{"perf", "errors"},
			})
		}
		if e.thresholds.PerfP95Ms > 0 && perf.P95LatencyMs > e.thresholds.PerfP95Ms {
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("Performance test p95 latency at %.0fms", perf.P95LatencyMs),
				Details:  fmt.Sprintf("avg %.0fms, p95 %.0fms, p99 %.0fms (threshold %.0fms); slow responses or timeout risk.", perf.AvgLatencyMs, perf.P95LatencyMs, perf.P99LatencyMs, e.thresholds.PerfP95Ms),
				Type:     models.IncidentPerformanceDegradation,
				Severity: models.SeverityMedium,
				Tags:     []string{"perf", "latency"},
			})
		}
	}

	if chaos != nil && chaos.Score < e.thresholds.ChaosScoreFloor {
		failed := make([]string, 0)
		for _, result := range chaos.Results {
			if result.Passed {
				continue
			}
			entry := result.Name
			if result.Message != "" {
				entry += ": " + result.Message
			}
			failed = append(failed, entry)
		}
		details := "No experiment details reported."
		if len(failed) > 0 {
			details = "Failed experiments:\n- " + strings.Join(failed, "\n- ")
		}
		issues = append(issues, models.DetectedIssue{
			Finding:  fmt.Sprintf("Chaos resilience score below target (%.0f/100)", chaos.Score),
			Details:  details,
			Type:     models.IncidentCustom,
			Severity: models.SeverityMedium,
			Tags:     []string{"chaos", "resilience"},
		})
	}

	return issues
}
