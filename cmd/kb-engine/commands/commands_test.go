package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/mirador-kb/internal/models"
)

func writeMemoryConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\ncache:\n  enabled: false\n"), 0o600))
	return path
}

func writeSpikeBundle(t *testing.T) string {
	t.Helper()
	logs := make([]models.LogLine, 0, 11)
	for i := 0; i < 11; i++ {
		logs = append(logs, models.LogLine{Service: "api", Message: fmt.Sprintf("ERROR request %d failed", i)})
	}
	data, err := json.Marshal(models.TelemetryBundle{Logs: logs})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	analyzeFlags.project, analyzeFlags.bundle, analyzeFlags.incidentID = "", "", ""
	analyzeFlags.k8s, analyzeFlags.namespace, analyzeFlags.gitDir = false, "", ""
	statsProject = ""
	patternsFlags.project, patternsFlags.pack = "", ""
	configPath = ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestAnalyzeBundlePrintsResult(t *testing.T) {
	cfg := writeMemoryConfig(t)
	bundle := writeSpikeBundle(t)

	out, err := execute(t, "analyze", "--config", cfg, "--project", "shop", "--bundle", bundle)
	require.NoError(t, err)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "shop", result.Project)
	assert.True(t, strings.HasPrefix(result.Finding, "High error rate detected in logs (11 errors)"), result.Finding)
	require.NotNil(t, result.Issue)
	assert.Equal(t, models.IncidentErrorSpike, result.Issue.Type)
}

func TestAnalyzeRejectsBundleWithIncident(t *testing.T) {
	cfg := writeMemoryConfig(t)
	bundle := writeSpikeBundle(t)

	out, err := execute(t, "analyze", "--config", cfg, "--project", "shop", "--bundle", bundle, "--incident", "inc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
	assert.Empty(t, out)
}

func TestAnalyzeMissingBundleFile(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, err := execute(t, "analyze", "--config", cfg, "--project", "shop", "--bundle", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestStatsAndPatternsCommands(t *testing.T) {
	cfg := writeMemoryConfig(t)

	out, err := execute(t, "stats", "--config", cfg, "--project", "shop")
	require.NoError(t, err)
	var stats models.KnowledgeBaseStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 8, stats.Patterns.Total)
	assert.Equal(t, 0, stats.Incidents.Total)

	pack := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(pack, []byte(`patterns:
  - id: pat-dns
    name: DNS resolution failure
    category: reliability
    symptoms: ["no such host"]
`), 0o600))

	out, err = execute(t, "patterns", "--config", cfg, "--project", "shop", "--pack", pack)
	require.NoError(t, err)
	var patterns []models.Pattern
	require.NoError(t, json.Unmarshal([]byte(out), &patterns))
	assert.Len(t, patterns, 9)
}
