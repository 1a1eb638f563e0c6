package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/miradorstack/mirador-kb/internal/models"
)

func jsonResponse(t *testing.T, status int, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestRemoteCollectsAllSignals(t *testing.T) {
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	paths := map[string]int{}
	client := NewRemote("https://telemetry.example.com/base/", "/logs", "commits", "/metrics", time.Second)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		paths[req.URL.Path]++
		var body remoteRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Project != "shop" || body.Namespace != "prod" {
			t.Fatalf("unexpected request body: %+v", body)
		}
		switch req.URL.Path {
		case "/base/logs":
			return jsonResponse(t, http.StatusOK, map[string]any{
				"logs": []map[string]any{{"timestamp": at, "service": "api", "message": "ERROR boom"}},
			}), nil
		case "/base/commits":
			return jsonResponse(t, http.StatusOK, map[string]any{
				"commits": []map[string]any{{"sha": "abc1234def", "author": "dev", "date": at, "message": "bump"}},
			}), nil
		case "/base/metrics":
			return jsonResponse(t, http.StatusOK, map[string]any{
				"metrics": []map[string]any{{"containerName": "api", "cpuPercent": 97.5, "memoryPercent": 40}},
			}), nil
		}
		t.Fatalf("unexpected path: %s", req.URL.Path)
		return nil, nil
	}))

	bundle, err := client.Collect(context.Background(), "shop", models.AnalyzeOptions{Namespace: "prod"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected three endpoints, got %v", paths)
	}
	if len(bundle.Logs) != 1 || bundle.Logs[0].Service != "api" {
		t.Fatalf("unexpected logs: %+v", bundle.Logs)
	}
	if len(bundle.Commits) != 1 || !bundle.Commits[0].Date.Equal(at) {
		t.Fatalf("unexpected commits: %+v", bundle.Commits)
	}
	if len(bundle.Metrics) != 1 || bundle.Metrics[0].CPUPercent != 97.5 {
		t.Fatalf("unexpected metrics: %+v", bundle.Metrics)
	}
}

func TestRemoteReportsHTTPFailure(t *testing.T) {
	client := NewRemote("https://telemetry.example.com", "/logs", "", "", time.Second)
	client.httpClient = newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusBadGateway, map[string]any{}), nil
	}))

	if _, err := client.Collect(context.Background(), "shop", models.AnalyzeOptions{}); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestRemoteRequiresBaseURL(t *testing.T) {
	client := NewRemote("", "/logs", "", "", time.Second)
	if _, err := client.Collect(context.Background(), "shop", models.AnalyzeOptions{}); err == nil {
		t.Fatalf("expected configuration error")
	}
}
