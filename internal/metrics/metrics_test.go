package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestObserveAnalysisNormalisesOutcome(t *testing.T) {
	before := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeSuccess))
	errorsBefore := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeError))

	ObserveAnalysis(120*time.Millisecond, "whatever", 74)
	ObserveAnalysis(-time.Second, OutcomeError, 0)

	if got := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeSuccess)); got != before+1 {
		t.Fatalf("expected success counter %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(analysesTotal.WithLabelValues(OutcomeError)); got != errorsBefore+1 {
		t.Fatalf("expected error counter %v, got %v", errorsBefore+1, got)
	}
}

func TestIncidentAndFixCounters(t *testing.T) {
	recorded := testutil.ToFloat64(incidentsRecordedTotal)
	resolved := testutil.ToFloat64(fixOutcomesTotal.WithLabelValues("resolved"))

	IncIncidentsRecorded()
	ObserveFixOutcome("resolved")

	if got := testutil.ToFloat64(incidentsRecordedTotal); got != recorded+1 {
		t.Fatalf("expected %v recorded incidents, got %v", recorded+1, got)
	}
	if got := testutil.ToFloat64(fixOutcomesTotal.WithLabelValues("resolved")); got != resolved+1 {
		t.Fatalf("expected %v resolved fixes, got %v", resolved+1, got)
	}
}
