package churn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TreeEnsemble scores rows with a gradient boosted tree model saved by
// XGBoost's save_model in JSON form. Only binary:logistic is supported.
type TreeEnsemble struct {
	id        string
	baseScore float64
	features  []string
	numFeat   int
	trees     []regTree
}

type regTree struct {
	left        []int
	right       []int
	splitIndex  []int
	splitCond   []float64
	defaultLeft []bool
}

type xgbDocument struct {
	Learner struct {
		Attributes      map[string]string `json:"attributes"`
		FeatureNames    []string          `json:"feature_names"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Param struct {
					NumParallelTree string `json:"num_parallel_tree"`
				} `json:"gbtree_model_param"`
				IterationIndptr []int     `json:"iteration_indptr"`
				Trees           []xgbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int       `json:"left_children"`
	RightChildren   []int       `json:"right_children"`
	SplitIndices    []int       `json:"split_indices"`
	SplitConditions []float64   `json:"split_conditions"`
	DefaultLeft     flexBoolSet `json:"default_left"`
}

// flexBoolSet accepts default_left written either as 0/1 integers or as booleans.
type flexBoolSet []bool

func (f *flexBoolSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, item := range raw {
		switch strings.TrimSpace(string(item)) {
		case "1", "true":
			out[i] = true
		case "0", "false":
		default:
			return fmt.Errorf("default_left[%d]: unexpected %s", i, item)
		}
	}
	*f = out
	return nil
}

// LoadTreeEnsemble reads and validates a JSON model file.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	model, err := ParseTreeEnsemble(data)
	if err != nil {
		return nil, err
	}
	model.id = filepath.Base(path)
	return model, nil
}

// ParseTreeEnsemble decodes a JSON model document.
func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var doc xgbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	learner := doc.Learner
	if name := learner.Objective.Name; name != "binary:logistic" {
		return nil, fmt.Errorf("unsupported objective %q", name)
	}
	if name := learner.GradientBooster.Name; name != "gbtree" {
		return nil, fmt.Errorf("unsupported booster %q", name)
	}
	if nc := strings.TrimSpace(learner.LearnerModelParam.NumClass); nc != "" && nc != "0" && nc != "1" {
		return nil, fmt.Errorf("multi-class model (num_class=%s) is not a churn classifier", nc)
	}
	base, err := parseBaseScore(learner.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}
	numFeat := 0
	if s := strings.TrimSpace(learner.LearnerModelParam.NumFeature); s != "" {
		if numFeat, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("num_feature: %w", err)
		}
	}
	raw := learner.GradientBooster.Model.Trees
	if len(raw) == 0 {
		return nil, errors.New("model has no trees")
	}
	limit, err := treeLimit(doc, len(raw))
	if err != nil {
		return nil, err
	}
	trees := make([]regTree, limit)
	for i, t := range raw[:limit] {
		tree, err := buildTree(t, numFeat)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tree
	}
	return &TreeEnsemble{
		id:        "xgboost",
		baseScore: base,
		features:  cloneStrings(learner.FeatureNames),
		numFeat:   numFeat,
		trees:     trees,
	}, nil
}

// treeLimit returns how many leading trees take part in prediction. A model
// saved after early stopping records best_iteration, and only the trees of
// iterations [0, best_iteration] are used.
func treeLimit(doc xgbDocument, total int) (int, error) {
	raw, ok := doc.Learner.Attributes["best_iteration"]
	if !ok || strings.TrimSpace(raw) == "" {
		return total, nil
	}
	best, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || best < 0 {
		return 0, fmt.Errorf("best_iteration %q is not a valid iteration", raw)
	}
	model := doc.Learner.GradientBooster.Model
	limit := 0
	if indptr := model.IterationIndptr; len(indptr) > 0 {
		if best+1 >= len(indptr) {
			return 0, fmt.Errorf("best_iteration %d beyond the %d saved iterations", best, len(indptr)-1)
		}
		limit = indptr[best+1]
	} else {
		parallel := 1
		if s := strings.TrimSpace(model.Param.NumParallelTree); s != "" {
			if parallel, err = strconv.Atoi(s); err != nil || parallel < 1 {
				return 0, fmt.Errorf("num_parallel_tree %q is invalid", s)
			}
		}
		limit = (best + 1) * parallel
	}
	if limit <= 0 || limit > total {
		return 0, fmt.Errorf("best_iteration %d selects %d trees, model has %d", best, limit, total)
	}
	return limit, nil
}

// parseBaseScore handles both "5E-1" and the bracketed "[5E-1]" written by newer versions.
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return 0.5, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("base_score %q: %w", s, err)
	}
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("base_score %v outside (0,1)", v)
	}
	return v, nil
}

func buildTree(t xgbTree, numFeat int) (regTree, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return regTree{}, errors.New("empty tree")
	}
	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
		return regTree{}, errors.New("node arrays differ in length")
	}
	defaultLeft := []bool(t.DefaultLeft)
	if len(defaultLeft) == 0 {
		defaultLeft = make([]bool, n)
	}
	if len(defaultLeft) != n {
		return regTree{}, errors.New("default_left length mismatch")
	}
	for i := 0; i < n; i++ {
		l, r := t.LeftChildren[i], t.RightChildren[i]
		if l == -1 {
			continue
		}
		if l <= i || r <= i || l >= n || r >= n {
			return regTree{}, fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if t.SplitIndices[i] < 0 || (numFeat > 0 && t.SplitIndices[i] >= numFeat) {
			return regTree{}, fmt.Errorf("node %d splits on feature %d", i, t.SplitIndices[i])
		}
	}
	return regTree{
		left:        t.LeftChildren,
		right:       t.RightChildren,
		splitIndex:  t.SplitIndices,
		splitCond:   t.SplitConditions,
		defaultLeft: defaultLeft,
	}, nil
}

// leaf walks the tree for x and returns the leaf weight. Leaves keep their
// weight in split_conditions.
func (t regTree) leaf(x []float32) float64 {
	node := 0
	for t.left[node] != -1 {
		fidx := t.splitIndex[node]
		var v float64
		missing := fidx >= len(x)
		if !missing {
			v = float64(x[fidx])
			missing = math.IsNaN(v)
		}
		switch {
		case missing && t.defaultLeft[node]:
			node = t.left[node]
		case missing:
			node = t.right[node]
		case float32(v) < float32(t.splitCond[node]):
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.splitCond[node]
}

// Margin returns the raw additive score for x.
func (m *TreeEnsemble) Margin(x []float32) float64 {
	margin := math.Log(m.baseScore / (1 - m.baseScore))
	for _, t := range m.trees {
		margin += t.leaf(x)
	}
	return margin
}

// Predict implements Classifier.
func (m *TreeEnsemble) Predict(ctx context.Context, features []float32) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	if m.numFeat > 0 && len(features) != m.numFeat {
		return Score{}, fmt.Errorf("model expects %d features, got %d", m.numFeat, len(features))
	}
	p := clamp01(1 / (1 + math.Exp(-m.Margin(features))))
	label := 0
	if p > 0.5 {
		label = 1
	}
	return Score{Label: label, Probability: p}, nil
}

// NumFeatures implements Classifier. It is 0 when the model does not record num_feature.
func (m *TreeEnsemble) NumFeatures() int { return m.numFeat }

// FeatureNames implements Classifier.
func (m *TreeEnsemble) FeatureNames() []string { return cloneStrings(m.features) }

// ModelID implements Classifier.
func (m *TreeEnsemble) ModelID() string { return m.id }

// Close implements Classifier.
func (m *TreeEnsemble) Close() error { return nil }
