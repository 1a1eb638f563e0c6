package collectors

import (
	"context"
	"fmt"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// Static returns a pre-assembled bundle, typically read from a file or request body.
type Static struct {
	bundle models.TelemetryBundle
}

// NewStatic wraps bundle.
func NewStatic(bundle models.TelemetryBundle) *Static {
	return &Static{bundle: bundle}
}

// LoadBundleFile reads a JSON telemetry bundle from path.
func LoadBundleFile(path string) (*Static, error) {
	var bundle models.TelemetryBundle
	found, err := readJSON(path, &bundle)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bundle file %s does not exist", path)
	}
	return NewStatic(bundle), nil
}

// Name implements Source.
func (s *Static) Name() string { return "static" }

// Collect implements Source.
func (s *Static) Collect(context.Context, string, models.AnalyzeOptions) (models.TelemetryBundle, error) {
	return s.bundle, nil
}
