package extractors

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

func errorLines(n int, services ...string) []models.LogLine {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lines := make([]models.LogLine, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, models.LogLine{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Service:   services[i%len(services)],
			Message:   fmt.Sprintf("ERROR request %d failed with status 500", i),
		})
	}
	return lines
}

func TestMetricExtractorDetect(t *testing.T) {
	extractor := NewMetricExtractor(config.DefaultThresholds())

	issues := extractor.Detect([]models.ContainerMetric{
		{ContainerName: "api", CPUPercent: 97, MemoryPercent: 40},
		{ContainerName: "worker", CPUPercent: 91, MemoryPercent: 88},
		{ContainerName: "db", CPUPercent: 90, MemoryPercent: 96},
		{ContainerName: "idle", CPUPercent: 10, MemoryPercent: 10},
	})
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %+v", len(issues), issues)
	}

	want := []struct {
		finding  string
		severity models.Severity
	}{
		{"High CPU usage on api", models.SeverityCritical},
		{"High CPU usage on worker", models.SeverityHigh},
		{"High memory usage on worker", models.SeverityHigh},
		{"High memory usage on db", models.SeverityCritical},
	}
	for i, w := range want {
		if !strings.HasPrefix(issues[i].Finding, w.finding) || issues[i].Severity != w.severity {
			t.Fatalf("issue %d: expected %q/%s, got %q/%s", i, w.finding, w.severity, issues[i].Finding, issues[i].Severity)
		}
		if issues[i].Type != models.IncidentResourceExhaustion {
			t.Fatalf("issue %d: expected resource-exhaustion, got %s", i, issues[i].Type)
		}
	}
}

func TestLogsExtractorErrorDensity(t *testing.T) {
	extractor := NewLogsExtractor(config.DefaultThresholds())

	if issues := extractor.Detect(errorLines(10, "api")); len(issues) != 0 {
		t.Fatalf("expected no issue at exactly 10 errors, got %+v", issues)
	}

	issues := extractor.Detect(errorLines(11, "api", "worker"))
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	issue := issues[0]
	if issue.Finding != "High error rate detected in logs (11 errors)" {
		t.Fatalf("unexpected finding %q", issue.Finding)
	}
	if issue.Type != models.IncidentErrorSpike || issue.Severity != models.SeverityHigh {
		t.Fatalf("unexpected classification %s/%s", issue.Type, issue.Severity)
	}
	if !strings.Contains(issue.Details, "api, worker") {
		t.Fatalf("expected services in details, got %q", issue.Details)
	}

	issues = extractor.Detect(errorLines(51, "api"))
	if issues[0].Severity != models.SeverityCritical {
		t.Fatalf("expected critical above 50 errors, got %s", issues[0].Severity)
	}
}

func TestLogsExtractorOOMAndDependency(t *testing.T) {
	extractor := NewLogsExtractor(config.DefaultThresholds())

	lines := []models.LogLine{{Service: "api", Message: "container api was OOMKilled"}}
	for i := 0; i < 6; i++ {
		lines = append(lines, models.LogLine{Service: "api", Message: "dial tcp 10.0.0.5:5432: connect: connection refused"})
	}

	issues := extractor.Detect(lines)
	if len(issues) != 2 {
		t.Fatalf("expected OOM and dependency issues, got %+v", issues)
	}
	if issues[0].Type != models.IncidentResourceExhaustion || issues[0].Severity != models.SeverityCritical {
		t.Fatalf("expected critical resource exhaustion first, got %+v", issues[0])
	}
	if issues[1].Type != models.IncidentDependencyFailure || issues[1].Severity != models.SeverityHigh {
		t.Fatalf("expected high dependency failure, got %+v", issues[1])
	}
}

func TestClassifyLine(t *testing.T) {
	cases := map[string]models.EventSeverity{
		"panic: nil map":           models.EventError,
		"WARN disk almost full":    models.EventWarning,
		"warning: retrying":        models.EventWarning,
		"served GET /healthz 200":  models.EventInfo,
		"payment processing FAILED": models.EventError,
	}
	for msg, want := range cases {
		if got := ClassifyLine(msg); got != want {
			t.Fatalf("ClassifyLine(%q) = %s, want %s", msg, got, want)
		}
	}
}
