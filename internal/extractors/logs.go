package extractors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

var (
	errorLinePattern      = regexp.MustCompile(`(?i)error|exception|fatal|panic|fail`)
	warningLinePattern    = regexp.MustCompile(`(?i)\bwarn(ing)?\b`)
	oomLinePattern        = regexp.MustCompile(`(?i)oomkilled|out of memory|heap space|memory limit`)
	dependencyLinePattern = regexp.MustCompile(`(?i)connection refused|econnrefused|connection reset|timeout`)
)

const maxSamples = 3

// LogsExtractor counts error, OOM and dependency signatures in collected log lines.
type LogsExtractor struct {
	thresholds config.Thresholds
}

// NewLogsExtractor constructs a log detector.
func NewLogsExtractor(thresholds config.Thresholds) *LogsExtractor {
	return &LogsExtractor{thresholds: thresholds}
}

// Detect returns issues in emission order: error density, memory exhaustion, dependency failure.
func (e *LogsExtractor) Detect(lines []models.LogLine) []models.DetectedIssue {
	if len(lines) == 0 {
		return nil
	}

	var errs, ooms, deps []models.LogLine
	for _, line := range lines {
		if errorLinePattern.MatchString(line.Message) {
			errs = append(errs, line)
		}
		if oomLinePattern.MatchString(line.Message) {
			ooms = append(ooms, line)
		}
		if dependencyLinePattern.MatchString(line.Message) {
			deps = append(deps, line)
		}
	}

	issues := make([]models.DetectedIssue, 0, 3)
	if len(errs) > e.thresholds.ErrorLines {
		severity := models.SeverityHigh
		if len(errs) > e.thresholds.CriticalErrorLines {
			severity = models.SeverityCritical
		}
		services := servicesOf(errs)
		issues = append(issues, models.DetectedIssue{
			Finding:  fmt.Sprintf("High error rate detected in logs (%d errors)", len(errs)),
			Details:  describeLines(services, errs),
			Type:     models.IncidentErrorSpike,
			Severity: severity,
			Tags:     append([]string{"errors", "logs"}, services...),
		})
	}

	if len(ooms) > 0 {
		services := servicesOf(ooms)
		issues = append(issues, models.DetectedIssue{
			Finding:  fmt.Sprintf("Out of memory condition detected (%d events)", len(ooms)),
			Details:  describeLines(services, ooms),
			Type:     models.IncidentResourceExhaustion,
			Severity: models.SeverityCritical,
			Tags:     append([]string{"oom", "memory"}, services...),
		})
	}

	if len(deps) > e.thresholds.DependencyLines {
		services := servicesOf(deps)
		issues = append(issues, models.DetectedIssue{
			Finding:  fmt.Sprintf("Dependency failures detected (%d connection errors)", len(deps)),
			Details:  describeLines(services, deps),
			Type:     models.IncidentDependencyFailure,
			Severity: models.SeverityHigh,
			Tags:     append([]string{"dependency", "network"}, services...),
		})
	}

	return issues
}

// ClassifyLine grades a log message for the timeline.
func ClassifyLine(message string) models.EventSeverity {
	switch {
	case errorLinePattern.MatchString(message):
		return models.EventError
	case warningLinePattern.MatchString(message):
		return models.EventWarning
	default:
		return models.EventInfo
	}
}

func servicesOf(lines []models.LogLine) []string {
	seen := make(map[string]struct{})
	services := make([]string, 0)
	for _, line := range lines {
		if line.Service == "" {
			continue
		}
		if _, ok := seen[line.Service]; ok {
			continue
		}
		seen[line.Service] = struct{}{}
		services = append(services, line.Service)
	}
	sort.Strings(services)
	return services
}

func describeLines(services []string, lines []models.LogLine) string {
	var b strings.Builder
	if len(services) > 0 {
		fmt.Fprintf(&b, "Services affected: %s\n", strings.Join(services, ", "))
	}
	b.WriteString("Samples:")
	for i, line := range lines {
		if i == maxSamples {
			break
		}
		b.WriteString("\n- ")
		if line.Service != "" {
			fmt.Fprintf(&b, "[%s] ", line.Service)
		}
		b.WriteString(strings.TrimSpace(line.Message))
	}
	return b.String()
}
