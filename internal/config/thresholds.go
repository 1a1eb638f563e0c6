package config

import (
	"fmt"
	"time"

	"github.com/miradorstack/mirador-kb/internal/utils"
)

// Thresholds holds every tunable number used by detection, matching and scoring.
type Thresholds struct {
	ErrorLines         int     `yaml:"errorLines"`
	CriticalErrorLines int     `yaml:"criticalErrorLines"`
	DependencyLines    int     `yaml:"dependencyLines"`
	CPUHigh            float64 `yaml:"cpuHigh"`
	CPUCritical        float64 `yaml:"cpuCritical"`
	MemoryHigh         float64 `yaml:"memoryHigh"`
	MemoryCritical     float64 `yaml:"memoryCritical"`
	PodRestarts        int     `yaml:"podRestarts"`
	PerfErrorRate      float64 `yaml:"perfErrorRate"`
	PerfP95Ms          float64 `yaml:"perfP95Ms"`
	ChaosScoreFloor    float64 `yaml:"chaosScoreFloor"`

	RecordMatchFloor float64 `yaml:"recordMatchFloor"`
	SimilarityFloor  float64 `yaml:"similarityFloor"`
	SimilarLimit     int     `yaml:"similarLimit"`

	CorrelationWindow time.Duration `yaml:"correlationWindow"`
	CorrelationFloor  float64       `yaml:"correlationFloor"`
	CorrelationCap    int           `yaml:"correlationCap"`

	FixPatterns int `yaml:"fixPatterns"`
	FixCap      int `yaml:"fixCap"`
	SearchLimit int `yaml:"searchLimit"`

	Confidence ConfidenceWeights `yaml:"confidence"`
}

// ConfidenceWeights are the additive terms of the analysis confidence score.
type ConfidenceWeights struct {
	Base        float64 `yaml:"base"`
	Pattern     float64 `yaml:"pattern"`
	Correlation float64 `yaml:"correlation"`
	Similarity  float64 `yaml:"similarity"`
	Bonus       float64 `yaml:"bonus"`
	Cap         int     `yaml:"cap"`
	NoIssue     int     `yaml:"noIssue"`
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorLines:         10,
		CriticalErrorLines: 50,
		DependencyLines:    5,
		CPUHigh:            90,
		CPUCritical:        95,
		MemoryHigh:         85,
		MemoryCritical:     95,
		PodRestarts:        5,
		PerfErrorRate:      0.05,
		PerfP95Ms:          1000,
		ChaosScoreFloor:    70,

		RecordMatchFloor: 0.25,
		SimilarityFloor:  0.1,
		SimilarLimit:     5,

		CorrelationWindow: time.Hour,
		CorrelationFloor:  0.3,
		CorrelationCap:    5,

		FixPatterns: 3,
		FixCap:      10,
		SearchLimit: 50,

		Confidence: ConfidenceWeights{
			Base:        20,
			Pattern:     30,
			Correlation: 25,
			Similarity:  20,
			Bonus:       5,
			Cap:         95,
			NoIssue:     90,
		},
	}
}

// Validate rejects out-of-range values.
func (t Thresholds) Validate() error {
	const op = "config.Thresholds"
	switch {
	case t.ErrorLines < 0 || t.CriticalErrorLines < t.ErrorLines:
		return utils.InvalidInput(op, fmt.Sprintf("error line thresholds %d/%d out of order", t.ErrorLines, t.CriticalErrorLines))
	case t.DependencyLines < 0 || t.PodRestarts < 0:
		return utils.InvalidInput(op, "line and restart counts must be non-negative")
	case !percent(t.CPUHigh) || !percent(t.CPUCritical) || t.CPUCritical < t.CPUHigh:
		return utils.InvalidInput(op, fmt.Sprintf("cpu thresholds %.1f/%.1f invalid", t.CPUHigh, t.CPUCritical))
	case !percent(t.MemoryHigh) || !percent(t.MemoryCritical) || t.MemoryCritical < t.MemoryHigh:
		return utils.InvalidInput(op, fmt.Sprintf("memory thresholds %.1f/%.1f invalid", t.MemoryHigh, t.MemoryCritical))
	case !fraction(t.PerfErrorRate) || t.PerfP95Ms < 0 || !percent(t.ChaosScoreFloor):
		return utils.InvalidInput(op, "report thresholds out of range")
	case !fraction(t.RecordMatchFloor) || !fraction(t.SimilarityFloor) || !fraction(t.CorrelationFloor):
		return utils.InvalidInput(op, "floors must lie in [0,1]")
	case t.CorrelationWindow <= 0:
		return utils.InvalidInput(op, "correlation window must be positive")
	case t.SimilarLimit <= 0 || t.CorrelationCap <= 0 || t.FixPatterns <= 0 || t.FixCap <= 0 || t.SearchLimit <= 0:
		return utils.InvalidInput(op, "limits must be positive")
	case t.Confidence.Cap < 0 || t.Confidence.Cap > 100 || t.Confidence.NoIssue < 0 || t.Confidence.NoIssue > 100:
		return utils.InvalidInput(op, "confidence cap and no-issue score must lie in [0,100]")
	case t.Confidence.Base < 0 || t.Confidence.Pattern < 0 || t.Confidence.Correlation < 0 ||
		t.Confidence.Similarity < 0 || t.Confidence.Bonus < 0:
		return utils.InvalidInput(op, "confidence weights must be non-negative")
	}
	return nil
}

func percent(v float64) bool  { return v >= 0 && v <= 100 }
func fraction(v float64) bool { return v >= 0 && v <= 1 }
