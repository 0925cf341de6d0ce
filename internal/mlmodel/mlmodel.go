// Package mlmodel loads the pluggable v2 load-estimator artifact from disk.
//
// An artifact is a JSON file containing a linear model's coefficients plus
// a sha256 digest of its own coefficient bytes, so a truncated or
// hand-edited file is caught at load time rather than silently mispredicting.
// This is a single-file descendant of the content-addressed blob/manifest
// split the model registry uses for full model pulls — there is no remote
// pull path here, no blob store, just one artifact and its checksum.
package mlmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"cogload/internal/domain"
	"cogload/internal/estimate"
)

// artifact is the on-disk JSON shape. Weights must align with
// estimate.FeatureColumns; Checksum is the hex sha256 of the canonical
// JSON encoding of Weights+Bias, so edits to either invalidate it.
type artifact struct {
	Columns  []string  `json:"columns"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
	Checksum string    `json:"checksum"`
}

// LinearModel is an estimate.Model backed by a loaded artifact: a sigmoid
// over a weighted sum of the normalized feature row.
type LinearModel struct {
	weights []float64
	bias    float64
}

// Predict implements estimate.Model.
func (m *LinearModel) Predict(row []float64) (float64, error) {
	if len(row) != len(m.weights) {
		return 0, fmt.Errorf("mlmodel: feature row has %d columns, model expects %d", len(row), len(m.weights))
	}
	sum := m.bias
	for i, w := range m.weights {
		sum += w * row[i]
	}
	return sigmoid(sum), nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Load reads and verifies the artifact at path, returning a LinearModel
// ready to back estimate.NewWithModel. A missing file maps to
// domain.ErrModelArtifactMissing; a present-but-unreadable or
// checksum-mismatched file maps to domain.ErrModelArtifactCorrupt — both
// are meant for startup logging only, since the caller falls back to the
// rule-based estimator regardless of which one it got.
func Load(path string) (*LinearModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrModelArtifactMissing
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrModelArtifactCorrupt, err)
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelArtifactCorrupt, err)
	}

	if len(a.Columns) != len(estimate.FeatureColumns) {
		return nil, fmt.Errorf("%w: expected %d feature columns, got %d",
			domain.ErrModelArtifactCorrupt, len(estimate.FeatureColumns), len(a.Columns))
	}
	for i, c := range a.Columns {
		if c != estimate.FeatureColumns[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q",
				domain.ErrModelArtifactCorrupt, i, c, estimate.FeatureColumns[i])
		}
	}
	if len(a.Weights) != len(a.Columns) {
		return nil, fmt.Errorf("%w: %d weights for %d columns",
			domain.ErrModelArtifactCorrupt, len(a.Weights), len(a.Columns))
	}

	want, err := checksum(a.Weights, a.Bias)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelArtifactCorrupt, err)
	}
	if want != a.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrModelArtifactCorrupt)
	}

	return &LinearModel{weights: a.Weights, bias: a.Bias}, nil
}

// checksum hashes the canonical JSON encoding of weights+bias, matching how
// WriteArtifact computes it.
func checksum(weights []float64, bias float64) (string, error) {
	payload, err := json.Marshal(struct {
		Weights []float64 `json:"weights"`
		Bias    float64   `json:"bias"`
	}{weights, bias})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// WriteArtifact serializes weights+bias into a checksummed artifact file at
// path, for training pipelines or tests producing a new model generation.
func WriteArtifact(path string, weights []float64, bias float64) error {
	if len(weights) != len(estimate.FeatureColumns) {
		return fmt.Errorf("mlmodel: expected %d weights, got %d", len(estimate.FeatureColumns), len(weights))
	}
	sum, err := checksum(weights, bias)
	if err != nil {
		return err
	}
	a := artifact{
		Columns:  estimate.FeatureColumns,
		Weights:  weights,
		Bias:     bias,
		Checksum: sum,
	}
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
