package churn

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInitMu sync.Mutex

// OrtClassifier runs an ONNX export of the classifier through onnxruntime.
// The export must use zipmap=False so that probabilities come back as a
// float tensor of shape [1,2].
type OrtClassifier struct {
	mu      sync.Mutex
	id      string
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	label   *ort.Tensor[int64]
	probs   *ort.Tensor[float32]
	numFeat int
}

// NewOrtClassifier initialises the runtime (once per process) and binds a
// session with preallocated tensors.
func NewOrtClassifier(modelPath, sharedLib string) (*OrtClassifier, error) {
	if err := initOrt(sharedLib); err != nil {
		return nil, err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect onnx model: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx model has %d inputs, want 1", len(inputs))
	}
	in := inputs[0]
	numFeat := 0
	if dims := in.Dimensions; len(dims) == 2 && dims[1] > 0 {
		numFeat = int(dims[1])
	}
	if numFeat == 0 {
		return nil, fmt.Errorf("onnx input %q has no fixed feature dimension", in.Name)
	}
	labelName, probName, err := pickOutputs(outputs)
	if err != nil {
		return nil, err
	}

	c := &OrtClassifier{id: filepath.Base(modelPath), numFeat: numFeat}
	if c.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numFeat))); err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	if c.label, err = ort.NewEmptyTensor[int64](ort.NewShape(1)); err != nil {
		c.Close()
		return nil, fmt.Errorf("allocate label tensor: %w", err)
	}
	if c.probs, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 2)); err != nil {
		c.Close()
		return nil, fmt.Errorf("allocate probability tensor: %w", err)
	}
	c.session, err = ort.NewAdvancedSession(modelPath,
		[]string{in.Name}, []string{labelName, probName},
		[]ort.Value{c.input}, []ort.Value{c.label, c.probs}, nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return c, nil
}

func initOrt(sharedLib string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if strings.TrimSpace(sharedLib) != "" {
		ort.SetSharedLibraryPath(sharedLib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

func pickOutputs(outputs []ort.InputOutputInfo) (string, string, error) {
	var label, probs string
	for _, out := range outputs {
		name := strings.ToLower(out.Name)
		switch {
		case strings.Contains(name, "prob"):
			probs = out.Name
		case strings.Contains(name, "label"):
			label = out.Name
		}
	}
	if label == "" || probs == "" {
		return "", "", errors.New("onnx model must expose label and probabilities outputs")
	}
	return label, probs, nil
}

// Predict implements Classifier. Calls are serialised because the session
// reuses its bound tensors.
func (c *OrtClassifier) Predict(ctx context.Context, features []float32) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	if len(features) != c.numFeat {
		return Score{}, fmt.Errorf("model expects %d features, got %d", c.numFeat, len(features))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Score{}, errors.New("onnx session is closed")
	}
	copy(c.input.GetData(), features)
	if err := c.session.Run(); err != nil {
		return Score{}, fmt.Errorf("run onnx session: %w", err)
	}
	probs := c.probs.GetData()
	return Score{
		Label:       int(c.label.GetData()[0]),
		Probability: clamp01(float64(probs[1])),
	}, nil
}

// NumFeatures implements Classifier.
func (c *OrtClassifier) NumFeatures() int { return c.numFeat }

// FeatureNames implements Classifier. ONNX exports do not carry them.
func (c *OrtClassifier) FeatureNames() []string { return nil }

// ModelID implements Classifier.
func (c *OrtClassifier) ModelID() string { return c.id }

// Close releases the session and tensors.
func (c *OrtClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.session != nil {
		errs = append(errs, c.session.Destroy())
		c.session = nil
	}
	if c.input != nil {
		errs = append(errs, c.input.Destroy())
		c.input = nil
	}
	if c.label != nil {
		errs = append(errs, c.label.Destroy())
		c.label = nil
	}
	if c.probs != nil {
		errs = append(errs, c.probs.Destroy())
		c.probs = nil
	}
	return errors.Join(errs...)
}
