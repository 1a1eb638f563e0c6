package collectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// Reports loads the latest chaos and performance summaries from <dir>/<project>/.
type Reports struct {
	dir string
}

// NewReports constructs a report collector rooted at dir.
func NewReports(dir string) *Reports {
	return &Reports{dir: dir}
}

// Name implements Source.
func (r *Reports) Name() string { return "reports" }

// Collect reads chaos.json and perf.json. Missing files are not an error.
func (r *Reports) Collect(_ context.Context, project string, _ models.AnalyzeOptions) (models.TelemetryBundle, error) {
	var bundle models.TelemetryBundle

	var chaos models.ChaosReport
	found, err := readJSON(filepath.Join(r.dir, project, "chaos.json"), &chaos)
	if err != nil {
		return bundle, err
	}
	if found {
		bundle.Chaos = &chaos
	}

	var perf models.PerfReport
	found, err = readJSON(filepath.Join(r.dir, project, "perf.json"), &perf)
	if err != nil {
		return bundle, err
	}
	if found {
		bundle.Perf = &perf
	}
	return bundle, nil
}

func readJSON(path string, dst any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
