package churn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArtifact marks a missing or unreadable model, encoder or column-order file.
	ErrArtifact = errors.New("churn: artifact")
	// ErrValidation marks input the pipeline refuses to score.
	ErrValidation = errors.New("churn: validation")
)

// UnseenCategoryError reports a categorical value outside an encoder's vocabulary.
type UnseenCategoryError struct {
	Column string
	Value  string
	Known  []string
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("unknown value %q for %s (expected one of: %s)", e.Value, e.Column, strings.Join(e.Known, ", "))
}

func (e *UnseenCategoryError) Unwrap() error { return ErrValidation }

// ArtifactError wraps a load failure with the offending path.
type ArtifactError struct {
	Kind string
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load %s artifact %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() []error { return []error{ErrArtifact, e.Err} }

func artifactErr(kind, path string, err error) error {
	return &ArtifactError{Kind: kind, Path: path, Err: err}
}

// UserMessage turns a pipeline error into a sentence suitable for a dialog.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var unseen *UnseenCategoryError
	if errors.As(err, &unseen) {
		return fmt.Sprintf("%q is not a value the model was trained on for %s. Choose one of: %s.",
			unseen.Value, unseen.Column, strings.Join(unseen.Known, ", "))
	}
	var art *ArtifactError
	if errors.As(err, &art) {
		return fmt.Sprintf("The %s file could not be loaded (%s). Check the artifact paths in the configuration.", art.Kind, art.Path)
	}
	return err.Error()
}
