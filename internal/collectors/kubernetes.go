package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// Kubernetes snapshots recent events and pod statuses from one namespace.
type Kubernetes struct {
	client           kubernetes.Interface
	defaultNamespace string
}

// NewKubernetes wraps an existing clientset.
func NewKubernetes(client kubernetes.Interface, defaultNamespace string) *Kubernetes {
	if defaultNamespace == "" {
		defaultNamespace = "default"
	}
	return &Kubernetes{client: client, defaultNamespace: defaultNamespace}
}

// NewKubernetesFromConfig builds a clientset from in-cluster config, falling back to kubeconfig.
func NewKubernetesFromConfig(kubeconfig, defaultNamespace string) (*Kubernetes, error) {
	cfg, err := restConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("k8s config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("k8s clientset: %w", err)
	}
	return NewKubernetes(clientset, defaultNamespace), nil
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	if kubeconfig == "" {
		home, _ := os.UserHomeDir()
		kubeconfig = filepath.Join(home, ".kube", "config")
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

// Name implements Source.
func (k *Kubernetes) Name() string { return "kubernetes" }

// Collect lists events and pods. It only contributes when the caller asked for cluster state.
func (k *Kubernetes) Collect(ctx context.Context, _ string, opts models.AnalyzeOptions) (models.TelemetryBundle, error) {
	if !opts.IncludeK8s {
		return models.TelemetryBundle{}, nil
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = k.defaultNamespace
	}

	events, err := k.client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return models.TelemetryBundle{}, fmt.Errorf("list events: %w", err)
	}
	pods, err := k.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return models.TelemetryBundle{}, fmt.Errorf("list pods: %w", err)
	}

	snapshot := &models.KubernetesSnapshot{
		Namespace: namespace,
		Events:    make([]models.KubernetesEvent, 0, len(events.Items)),
		Pods:      make([]models.PodStatus, 0, len(pods.Items)),
	}
	for _, ev := range events.Items {
		snapshot.Events = append(snapshot.Events, models.KubernetesEvent{
			Timestamp: eventTime(ev),
			Type:      ev.Type,
			Reason:    ev.Reason,
			Object:    ev.InvolvedObject.Kind + "/" + ev.InvolvedObject.Name,
			Message:   ev.Message,
		})
	}
	sort.SliceStable(snapshot.Events, func(i, j int) bool {
		return snapshot.Events[i].Timestamp.Before(snapshot.Events[j].Timestamp)
	})
	for _, pod := range pods.Items {
		snapshot.Pods = append(snapshot.Pods, podStatus(pod))
	}
	return models.TelemetryBundle{Kubernetes: snapshot}, nil
}

func eventTime(ev corev1.Event) time.Time {
	switch {
	case !ev.LastTimestamp.IsZero():
		return ev.LastTimestamp.Time
	case !ev.EventTime.IsZero():
		return ev.EventTime.Time
	default:
		return ev.CreationTimestamp.Time
	}
}

func podStatus(pod corev1.Pod) models.PodStatus {
	status := models.PodStatus{
		Name:  pod.Name,
		Phase: string(pod.Status.Phase),
		Ready: true,
	}
	if len(pod.Status.ContainerStatuses) == 0 {
		status.Ready = false
	}
	for _, cs := range pod.Status.ContainerStatuses {
		status.Restarts += int(cs.RestartCount)
		if !cs.Ready {
			status.Ready = false
		}
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" && status.Reason == "" {
			status.Reason = cs.State.Waiting.Reason
		}
	}
	if status.Reason == "" {
		status.Reason = pod.Status.Reason
	}
	return status
}
