package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArtifactConfig locates the three files produced by offline training.
type ArtifactConfig struct {
	ModelPath    string `json:"modelPath"`
	EncodersPath string `json:"encodersPath"`
	ColumnsPath  string `json:"columnsPath"`
	// OrtLib is the onnxruntime shared library, only used for .onnx models.
	OrtLib string `json:"ortLib"`
}

// Artifacts bundles the read-only inputs of the pipeline. Load once and share.
type Artifacts struct {
	Model    Classifier
	Encoders EncoderSet
	Columns  ColumnOrder
}

// LoadArtifacts reads and cross-checks model, encoders and column order.
func LoadArtifacts(cfg ArtifactConfig) (*Artifacts, error) {
	columns, err := LoadColumns(cfg.ColumnsPath)
	if err != nil {
		return nil, err
	}
	encoders, err := LoadEncoders(cfg.EncodersPath)
	if err != nil {
		return nil, err
	}
	model, err := OpenClassifier(cfg)
	if err != nil {
		return nil, artifactErr("model", cfg.ModelPath, err)
	}
	a := &Artifacts{Model: model, Encoders: encoders, Columns: columns}
	if err := a.Check(); err != nil {
		_ = model.Close()
		return nil, artifactErr("model", cfg.ModelPath, err)
	}
	return a, nil
}

// Check verifies the model was trained on the same feature order.
func (a *Artifacts) Check() error {
	if a.Model == nil {
		return errors.New("model is not loaded")
	}
	if err := a.Columns.Validate(); err != nil {
		return err
	}
	if n := a.Model.NumFeatures(); n > 0 && n != len(a.Columns) {
		return fmt.Errorf("model expects %d features, column order lists %d", n, len(a.Columns))
	}
	names := a.Model.FeatureNames()
	if len(names) > 0 && !a.Columns.Equal(names) {
		return fmt.Errorf("model feature names %v do not match column order %v", names, []string(a.Columns))
	}
	return nil
}

// Close releases the model.
func (a *Artifacts) Close() error {
	if a == nil || a.Model == nil {
		return nil
	}
	return a.Model.Close()
}

// LoadColumns reads the column-order artifact: a JSON or YAML list of names.
func LoadColumns(path string) (ColumnOrder, error) {
	var names []string
	if err := decodeArtifact(path, &names); err != nil {
		return nil, artifactErr("column order", path, err)
	}
	order := ColumnOrder(names)
	if err := order.Validate(); err != nil {
		return nil, artifactErr("column order", path, err)
	}
	return order, nil
}

// LoadEncoders reads the encoder artifact: a JSON or YAML map of column to
// class list in code order.
func LoadEncoders(path string) (EncoderSet, error) {
	var vocab map[string][]string
	if err := decodeArtifact(path, &vocab); err != nil {
		return nil, artifactErr("encoder", path, err)
	}
	set, err := NewEncoderSet(vocab)
	if err != nil {
		return nil, artifactErr("encoder", path, err)
	}
	return set, nil
}

func decodeArtifact(path string, out any) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return json.Unmarshal(data, out)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported artifact format %q", ext)
	}
}
