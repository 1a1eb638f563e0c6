package extractors

import (
	"sort"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// Detector runs every heuristic over a telemetry bundle. It never fails:
// missing sources simply yield fewer issues.
type Detector struct {
	logs       *LogsExtractor
	metrics    *MetricExtractor
	kubernetes *KubernetesExtractor
	reports    *ReportsExtractor
	thresholds config.Thresholds
}

// NewDetector wires the individual extractors with shared thresholds.
func NewDetector(thresholds config.Thresholds) *Detector {
	return &Detector{
		logs:       NewLogsExtractor(thresholds),
		metrics:    NewMetricExtractor(thresholds),
		kubernetes: NewKubernetesExtractor(thresholds),
		reports:    NewReportsExtractor(thresholds),
		thresholds: thresholds,
	}
}

// Detect returns issues ordered by severity; equal severities keep emission order.
func (d *Detector) Detect(bundle models.TelemetryBundle) []models.DetectedIssue {
	issues := make([]models.DetectedIssue, 0)
	issues = append(issues, d.logs.Detect(bundle.Logs)...)
	issues = append(issues, d.metrics.Detect(bundle.Metrics)...)
	issues = append(issues, d.kubernetes.Detect(bundle.Kubernetes)...)
	issues = append(issues, d.reports.Detect(bundle.Perf, bundle.Chaos)...)

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() < issues[j].Severity.Rank()
	})
	return issues
}
