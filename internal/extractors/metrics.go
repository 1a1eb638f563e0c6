package extractors

import (
	"fmt"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// MetricExtractor flags containers whose CPU or memory crosses the configured thresholds.
type MetricExtractor struct {
	thresholds config.Thresholds
}

// NewMetricExtractor creates a container metrics detector.
func NewMetricExtractor(thresholds config.Thresholds) *MetricExtractor {
	return &MetricExtractor{thresholds: thresholds}
}

// Detect emits, per container, a CPU issue and then a memory issue when over threshold.
func (e *MetricExtractor) Detect(samples []models.ContainerMetric) []models.DetectedIssue {
	if len(samples) == 0 {
		return nil
	}

	issues := make([]models.DetectedIssue, 0)
	for _, sample := range samples {
		name := sample.ContainerName
		if name == "" {
			name = "unknown"
		}

		if sample.CPUPercent > e.thresholds.CPUHigh {
			severity := models.SeverityHigh
			if sample.CPUPercent > e.thresholds.CPUCritical {
				severity = models.SeverityCritical
			}
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("High CPU usage on %s (%.1f%%)", name, sample.CPUPercent),
				Details:  fmt.Sprintf("Container %s is using %.1f%% CPU (threshold %.0f%%).", name, sample.CPUPercent, e.thresholds.CPUHigh),
				Type:     models.IncidentResourceExhaustion,
				Severity: severity,
				Tags:     []string{"cpu", "resource", name},
			})
		}

		if sample.MemoryPercent > e.thresholds.MemoryHigh {
			severity := models.SeverityHigh
			if sample.MemoryPercent > e.thresholds.MemoryCritical {
				severity = models.SeverityCritical
			}
			details := fmt.Sprintf("Container %s is using %.1f%% of its memory (threshold %.0f%%).", name, sample.MemoryPercent, e.thresholds.MemoryHigh)
			if sample.MemoryUsage != "" {
				details += " Usage: " + sample.MemoryUsage + "."
			}
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("High memory usage on %s (%.1f%%)", name, sample.MemoryPercent),
				Details:  details,
				Type:     models.IncidentResourceExhaustion,
				Severity: severity,
				Tags:     []string{"memory", "resource", name},
			})
		}
	}
	return issues
}
