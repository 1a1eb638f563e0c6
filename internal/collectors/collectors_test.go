package collectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/miradorstack/mirador-kb/internal/models"
)

func TestParseGitLog(t *testing.T) {
	out := "abc1234567" + fieldSep + "Ada" + fieldSep + "2024-04-02T10:00:00Z" + fieldSep + "Raise pool size\n\nbody" + recordSep + "\n" +
		"def7654321" + fieldSep + "Lin" + fieldSep + "2024-04-01T09:30:00+02:00" + fieldSep + "Initial" + recordSep

	commits, err := ParseGitLog([]byte(out))
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "abc1234567", commits[0].SHA)
	assert.Equal(t, "Raise pool size\n\nbody", commits[0].Message)
	assert.True(t, commits[1].Date.Equal(time.Date(2024, 4, 1, 7, 30, 0, 0, time.UTC)))

	_, err = ParseGitLog([]byte("broken" + recordSep))
	assert.Error(t, err)
}

func TestGitCollectorUsesRunner(t *testing.T) {
	g := NewGit("/srv/repo", 0)
	var gotArgs []string
	g.run = func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "/srv/repo", dir)
		assert.Equal(t, "git", name)
		gotArgs = args
		return []byte("abc" + fieldSep + "Ada" + fieldSep + "2024-04-02T10:00:00Z" + fieldSep + "msg" + recordSep), nil
	}

	bundle, err := g.Collect(context.Background(), "shop", models.AnalyzeOptions{})
	require.NoError(t, err)
	require.Len(t, bundle.Commits, 1)
	assert.Equal(t, []string{"log", "-n", "20"}, gotArgs[:3])
	assert.True(t, strings.HasPrefix(gotArgs[3], "--pretty=format:"))
}

func TestReportsCollector(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shop"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop", "perf.json"),
		[]byte(`{"totalRequests":1000,"failedRequests":80,"p95LatencyMs":1500}`), 0o600))

	bundle, err := NewReports(dir).Collect(context.Background(), "shop", models.AnalyzeOptions{})
	require.NoError(t, err)
	require.NotNil(t, bundle.Perf)
	assert.Nil(t, bundle.Chaos)
	assert.InDelta(t, 0.08, bundle.Perf.ErrorRate(), 1e-9)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop", "chaos.json"), []byte(`{`), 0o600))
	_, err = NewReports(dir).Collect(context.Background(), "shop", models.AnalyzeOptions{})
	assert.Error(t, err)
}

func TestLoadBundleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"logs":[{"service":"api","message":"ERROR x"}]}`), 0o600))

	static, err := LoadBundleFile(path)
	require.NoError(t, err)
	bundle, err := static.Collect(context.Background(), "shop", models.AnalyzeOptions{})
	require.NoError(t, err)
	assert.Len(t, bundle.Logs, 1)

	_, err = LoadBundleFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestKubernetesCollector(t *testing.T) {
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	client := fake.NewSimpleClientset(
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "ev-1", Namespace: "prod"},
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "api-1"},
			Type:           corev1.EventTypeWarning,
			Reason:         "OOMKilling",
			Message:        "Memory cgroup out of memory",
			LastTimestamp:  metav1.NewTime(at),
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "api-1", Namespace: "prod"},
			Status: corev1.PodStatus{
				Phase: corev1.PodRunning,
				ContainerStatuses: []corev1.ContainerStatus{{
					Name:         "api",
					RestartCount: 7,
					State: corev1.ContainerState{
						Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"},
					},
				}},
			},
		},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "other", Namespace: "staging"}},
	)
	k := NewKubernetes(client, "")

	empty, err := k.Collect(context.Background(), "shop", models.AnalyzeOptions{Namespace: "prod"})
	require.NoError(t, err)
	assert.Nil(t, empty.Kubernetes)

	bundle, err := k.Collect(context.Background(), "shop", models.AnalyzeOptions{IncludeK8s: true, Namespace: "prod"})
	require.NoError(t, err)
	require.NotNil(t, bundle.Kubernetes)
	snap := bundle.Kubernetes
	assert.Equal(t, "prod", snap.Namespace)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Pod/api-1", snap.Events[0].Object)
	assert.True(t, snap.Events[0].Timestamp.Equal(at))
	require.Len(t, snap.Pods, 1)
	assert.Equal(t, models.PodStatus{Name: "api-1", Phase: "Running", Ready: false, Restarts: 7, Reason: "CrashLoopBackOff"}, snap.Pods[0])
}

type stubSource struct {
	name   string
	bundle models.TelemetryBundle
	err    error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Collect(context.Context, string, models.AnalyzeOptions) (models.TelemetryBundle, error) {
	return s.bundle, s.err
}

func TestMultiMergesPartialResults(t *testing.T) {
	perf := &models.PerfReport{TotalRequests: 10}
	m := NewMulti(nil,
		stubSource{name: "logs", bundle: models.TelemetryBundle{Logs: []models.LogLine{{Message: "a"}}}},
		nil,
		stubSource{name: "broken", err: errors.New("unreachable")},
		stubSource{name: "reports", bundle: models.TelemetryBundle{Perf: perf, Logs: []models.LogLine{{Message: "b"}}}},
	)
	assert.Equal(t, []string{"logs", "broken", "reports"}, m.Sources())

	bundle, err := m.Collect(context.Background(), "shop", models.AnalyzeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: unreachable")
	require.Len(t, bundle.Logs, 2)
	assert.Equal(t, "a", bundle.Logs[0].Message)
	assert.Equal(t, "b", bundle.Logs[1].Message)
	assert.Same(t, perf, bundle.Perf)
}
