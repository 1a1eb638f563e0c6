package extractors

import (
	"fmt"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
)

// KubernetesExtractor inspects pod statuses and warning events.
type KubernetesExtractor struct {
	thresholds config.Thresholds
}

// NewKubernetesExtractor constructs a cluster-state detector.
func NewKubernetesExtractor(thresholds config.Thresholds) *KubernetesExtractor {
	return &KubernetesExtractor{thresholds: thresholds}
}

// Detect emits pod issues first, then event issues.
func (e *KubernetesExtractor) Detect(snapshot *models.KubernetesSnapshot) []models.DetectedIssue {
	if snapshot == nil {
		return nil
	}

	issues := make([]models.DetectedIssue, 0)
	for _, pod := range snapshot.Pods {
		switch {
		case pod.Reason == "CrashLoopBackOff":
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("Pod %s is in CrashLoopBackOff (%d restarts)", pod.Name, pod.Restarts),
				Details:  fmt.Sprintf("Namespace %s, phase %s. The container keeps crashing after start.", snapshot.Namespace, pod.Phase),
				Type:     models.IncidentDeploymentFailure,
				Severity: models.SeverityCritical,
				Tags:     []string{"kubernetes", "crashloop", "restart", pod.Name},
			})
		case pod.Restarts >= e.thresholds.PodRestarts && e.thresholds.PodRestarts > 0:
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("Pod %s restarted %d times", pod.Name, pod.Restarts),
				Details:  fmt.Sprintf("Namespace %s, phase %s, ready=%t.", snapshot.Namespace, pod.Phase, pod.Ready),
				Type:     models.IncidentDeploymentFailure,
				Severity: models.SeverityHigh,
				Tags:     []string{"kubernetes", "restart", pod.Name},
			})
		}
	}

	for _, event := range snapshot.Events {
		if !strings.EqualFold(event.Type, "Warning") {
			continue
		}
		switch event.Reason {
		case "OOMKilling", "OOMKilled":
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("Kubernetes reported OOMKilled for %s", event.Object),
				Details:  event.Message,
				Type:     models.IncidentResourceExhaustion,
				Severity: models.SeverityCritical,
				Tags:     []string{"kubernetes", "oom", "memory"},
			})
		case "FailedScheduling", "Evicted":
			issues = append(issues, models.DetectedIssue{
				Finding:  fmt.Sprintf("Kubernetes %s for %s", event.Reason, event.Object),
				Details:  event.Message,
				Type:     models.IncidentResourceExhaustion,
				Severity: models.SeverityMedium,
				Tags:     []string{"kubernetes", "scheduling", strings.ToLower(event.Reason)},
			})
		}
	}
	return issues
}
