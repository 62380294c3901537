package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	dirMode  = 0755
	fileMode = 0644
)

// ErrArtifactMissing is returned when the artifact cannot be loaded.
var ErrArtifactMissing = errors.New("model artifact missing or unreadable")

// Artifact is the unit of transfer between training and serving.
// It is not mutated after Train returns.
type Artifact struct {
	Features   []string              `json:"features"`
	Imputer    *MedianImputer        `json:"imputer"`
	Classifier *CalibratedClassifier `json:"classifier"`
	Metrics    *Metrics              `json:"metrics,omitempty"`
	TrainedAt  time.Time             `json:"trained_at"`
}

// Probability imputes row (ordered as Features) and returns the calibrated
// positive-class probability.
func (a *Artifact) Probability(row []float64) (float64, error) {
	if len(row) != len(a.Features) {
		return 0, fmt.Errorf("expected %d values, got %d", len(a.Features), len(row))
	}
	return a.Classifier.Probability(a.Imputer.TransformRow(row)), nil
}

// Validate checks the internal consistency of a loaded artifact.
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return errors.New("artifact declares no features")
	}
	if a.Imputer == nil || len(a.Imputer.Medians) != len(a.Features) {
		return errors.New("imputer does not match feature list")
	}
	if a.Classifier == nil {
		return errors.New("artifact has no classifier")
	}
	dims, err := a.Classifier.Dims()
	if err != nil {
		return err
	}
	if dims != len(a.Features) {
		return fmt.Errorf("classifier expects %d features, artifact declares %d", dims, len(a.Features))
	}
	return nil
}

// Save writes the artifact as JSON, creating parent directories as needed.
func (a *Artifact) Save(path string) error {
	if path == "" {
		return errors.New("artifact path required")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("failed to create dir: %s: %w", dir, err)
		}
	}

	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write artifact file: %s: %w", path, err)
	}

	slog.Debug("artifact saved", "path", path, "bytes", len(b))
	return nil
}

// Load reads and validates the artifact at path. Every failure wraps
// ErrArtifactMissing.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactMissing, path, err)
	}

	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactMissing, path, err)
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactMissing, path, err)
	}

	slog.Debug("artifact loaded", "path", path, "features", len(a.Features), "members", len(a.Classifier.Members))
	return &a, nil
}
