package models

import "time"

// LogLine is one collected log record.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
}

// Commit is one entry of the project's git history.
type Commit struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// ContainerMetric is a point-in-time resource sample for one container.
type ContainerMetric struct {
	ContainerName string  `json:"containerName"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsage   string  `json:"memoryUsage,omitempty"`
	NetIO         string  `json:"netIO,omitempty"`
}

// KubernetesEvent is a recent cluster event.
type KubernetesEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Object    string    `json:"object"`
	Message   string    `json:"message"`
}

// PodStatus summarises one pod.
type PodStatus struct {
	Name     string `json:"name"`
	Phase    string `json:"phase"`
	Ready    bool   `json:"ready"`
	Restarts int    `json:"restarts"`
	Reason   string `json:"reason,omitempty"`
}

// KubernetesSnapshot carries orchestrator state, only collected when requested.
type KubernetesSnapshot struct {
	Namespace string            `json:"namespace"`
	Events    []KubernetesEvent `json:"events"`
	Pods      []PodStatus       `json:"pods"`
}

// ChaosResult is the outcome of one failure-injection experiment.
type ChaosResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// ChaosReport is the most recent failure-injection summary for a project.
type ChaosReport struct {
	Timestamp time.Time     `json:"timestamp"`
	Score     float64       `json:"score"`
	Results   []ChaosResult `json:"results"`
}

// PerfReport is the most recent performance-test summary for a project.
type PerfReport struct {
	Timestamp      time.Time `json:"timestamp"`
	TotalRequests  int       `json:"totalRequests"`
	FailedRequests int       `json:"failedRequests"`
	AvgLatencyMs   float64   `json:"avgLatencyMs"`
	P95LatencyMs   float64   `json:"p95LatencyMs"`
	P99LatencyMs   float64   `json:"p99LatencyMs"`
}

// ErrorRate returns failed/total, or zero when nothing was sent.
func (r PerfReport) ErrorRate() float64 {
	if r.TotalRequests <= 0 {
		return 0
	}
	return float64(r.FailedRequests) / float64(r.TotalRequests)
}

// TelemetryBundle is the immutable, already-assembled input to an analysis run.
type TelemetryBundle struct {
	Logs       []LogLine           `json:"logs"`
	Commits    []Commit            `json:"commits"`
	Metrics    []ContainerMetric   `json:"metrics"`
	Kubernetes *KubernetesSnapshot `json:"kubernetes,omitempty"`
	Chaos      *ChaosReport        `json:"chaos,omitempty"`
	Perf       *PerfReport         `json:"perf,omitempty"`
}

// Merge folds other into b, keeping the first non-nil snapshot/report.
func (b TelemetryBundle) Merge(other TelemetryBundle) TelemetryBundle {
	b.Logs = append(append([]LogLine(nil), b.Logs...), other.Logs...)
	b.Commits = append(append([]Commit(nil), b.Commits...), other.Commits...)
	b.Metrics = append(append([]ContainerMetric(nil), b.Metrics...), other.Metrics...)
	if b.Kubernetes == nil {
		b.Kubernetes = other.Kubernetes
	}
	if b.Chaos == nil {
		b.Chaos = other.Chaos
	}
	if b.Perf == nil {
		b.Perf = other.Perf
	}
	return b
}
