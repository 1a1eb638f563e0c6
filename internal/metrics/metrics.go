package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced a finding.
	OutcomeSuccess = "success"
	// OutcomeNoIssues labels analyses that found nothing wrong.
	OutcomeNoIssues = "no_issues"
	// OutcomeError labels failed analyses (storage or collaborator problems).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_kb",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_kb",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	analysisConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_kb",
			Name:      "analysis_confidence",
			Help:      "Confidence reported by completed analyses.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)

	incidentsRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mirador_kb",
			Name:      "incidents_recorded_total",
			Help:      "Total number of incidents recorded.",
		},
	)

	fixOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_kb",
			Name:      "fix_outcomes_total",
			Help:      "Fix outcome updates, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches mirador-kb collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		analysisConfidence,
		incidentsRecordedTotal,
		fixOutcomesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration, outcome label and, unless it failed, its confidence.
func ObserveAnalysis(duration time.Duration, outcome string, confidence int) {
	label := outcome
	if label != OutcomeError && label != OutcomeNoIssues {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
	if label != OutcomeError {
		analysisConfidence.Observe(float64(confidence))
	}
}

// IncIncidentsRecorded counts one recorded incident.
func IncIncidentsRecorded() {
	incidentsRecordedTotal.Inc()
}

// ObserveFixOutcome counts one fix outcome update.
func ObserveFixOutcome(outcome string) {
	fixOutcomesTotal.WithLabelValues(outcome).Inc()
}
