package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// Remote pulls logs, commits and container metrics from a telemetry aggregation endpoint.
type Remote struct {
	baseURL     string
	logsPath    string
	commitsPath string
	metricsPath string
	httpClient  *http.Client
}

// NewRemote constructs a client targeting the configured endpoint.
func NewRemote(baseURL, logsPath, commitsPath, metricsPath string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:     strings.TrimRight(baseURL, "/"),
		logsPath:    logsPath,
		commitsPath: commitsPath,
		metricsPath: metricsPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type remoteRequest struct {
	Project   string `json:"project"`
	Namespace string `json:"namespace,omitempty"`
}

// Name implements Source.
func (c *Remote) Name() string { return "remote" }

// Collect fetches all three signal kinds. An empty path skips that signal.
func (c *Remote) Collect(ctx context.Context, project string, opts models.AnalyzeOptions) (models.TelemetryBundle, error) {
	if c == nil {
		return models.TelemetryBundle{}, fmt.Errorf("telemetry client not initialised")
	}
	if c.baseURL == "" {
		return models.TelemetryBundle{}, fmt.Errorf("telemetry base URL not configured")
	}

	payload := remoteRequest{Project: project, Namespace: opts.Namespace}
	var bundle models.TelemetryBundle

	if c.logsPath != "" {
		var response struct {
			Logs []models.LogLine `json:"logs"`
		}
		if err := c.postJSON(ctx, c.resolvePath(c.logsPath), payload, &response); err != nil {
			return bundle, fmt.Errorf("telemetry logs request failed: %w", err)
		}
		bundle.Logs = response.Logs
	}

	if c.commitsPath != "" {
		var response struct {
			Commits []models.Commit `json:"commits"`
		}
		if err := c.postJSON(ctx, c.resolvePath(c.commitsPath), payload, &response); err != nil {
			return bundle, fmt.Errorf("telemetry commits request failed: %w", err)
		}
		bundle.Commits = response.Commits
	}

	if c.metricsPath != "" {
		var response struct {
			Metrics []models.ContainerMetric `json:"metrics"`
		}
		if err := c.postJSON(ctx, c.resolvePath(c.metricsPath), payload, &response); err != nil {
			return bundle, fmt.Errorf("telemetry metrics request failed: %w", err)
		}
		bundle.Metrics = response.Metrics
	}
	return bundle, nil
}

func (c *Remote) resolvePath(p string) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *Remote) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telemetry endpoint returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
