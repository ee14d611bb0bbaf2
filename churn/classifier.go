package churn

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Score is the raw classifier output for one row.
type Score struct {
	Label       int
	Probability float64
}

// Classifier exposes the minimal surface the pipeline needs from a trained model.
type Classifier interface {
	Predict(ctx context.Context, features []float32) (Score, error)
	// NumFeatures is the input width the model was trained on, or 0 when unknown.
	NumFeatures() int
	// FeatureNames returns the training feature names when the artifact records them.
	FeatureNames() []string
	ModelID() string
	Close() error
}

// OpenClassifier picks an implementation from the model file extension.
func OpenClassifier(cfg ArtifactConfig) (Classifier, error) {
	switch ext := strings.ToLower(filepath.Ext(cfg.ModelPath)); ext {
	case ".json":
		return LoadTreeEnsemble(cfg.ModelPath)
	case ".onnx":
		return NewOrtClassifier(cfg.ModelPath, cfg.OrtLib)
	default:
		return nil, fmt.Errorf("unsupported model format %q", ext)
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
