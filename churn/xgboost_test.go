package churn

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stumpModel = `{
  "learner": {
    "feature_names": ["x0", "x1"],
    "gradient_booster": {
      "name": "gbtree",
      "model": {"trees": [{
        "left_children": [1, -1, -1],
        "right_children": [2, -1, -1],
        "split_indices": [1, 0, 0],
        "split_conditions": [0.5, -1.0, 2.0],
        "default_left": [true, false, false]
      }]}
    },
    "learner_model_param": {"base_score": "2.5E-1", "num_class": "0", "num_feature": "2"},
    "objective": {"name": "binary:logistic"}
  }
}`

func TestParseTreeEnsembleStump(t *testing.T) {
	m, err := ParseTreeEnsemble([]byte(stumpModel))
	require.NoError(t, err)
	assert.Equal(t, []string{"x0", "x1"}, m.FeatureNames())

	base := math.Log(0.25 / 0.75)
	assert.InDelta(t, base-1, m.Margin([]float32{9, 0}), 1e-9)
	assert.InDelta(t, base+2, m.Margin([]float32{9, 0.5}), 1e-9, "split is strictly less-than")
	assert.InDelta(t, base-1, m.Margin([]float32{9, float32(math.NaN())}), 1e-9, "missing follows default_left")

	score, err := m.Predict(context.Background(), []float32{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, score.Label)
	assert.InDelta(t, 1/(1+math.Exp(-(base+2))), score.Probability, 1e-9)
}

func TestTreeEnsembleFeatureCount(t *testing.T) {
	m, err := ParseTreeEnsemble([]byte(stumpModel))
	require.NoError(t, err)
	_, err = m.Predict(context.Background(), []float32{1, 2, 3})
	assert.ErrorContains(t, err, "expects 2 features")
}

func TestParseTreeEnsembleRejects(t *testing.T) {
	cases := map[string]string{
		"objective":  `{"learner":{"objective":{"name":"reg:squarederror"},"gradient_booster":{"name":"gbtree"}}}`,
		"booster":    `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gblinear"}}}`,
		"multiclass": `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gbtree"},"learner_model_param":{"num_class":"3"}}}`,
		"no trees":   `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gbtree","model":{"trees":[]}}}}`,
		"base score": `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gbtree"},"learner_model_param":{"base_score":"1.5"}}}`,
		"children": `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gbtree","model":{"trees":[
			{"left_children":[0,-1],"right_children":[1,-1],"split_indices":[0,0],"split_conditions":[1,1],"default_left":[0,0]}]}}}}`,
		"feature": `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gbtree","model":{"trees":[
			{"left_children":[1,-1,-1],"right_children":[2,-1,-1],"split_indices":[4,0,0],"split_conditions":[1,1,1],"default_left":[0,0,0]}]}},
			"learner_model_param":{"num_feature":"2"}}}`,
		"default_left": `{"learner":{"objective":{"name":"binary:logistic"},"gradient_booster":{"name":"gbtree","model":{"trees":[
			{"left_children":[-1],"right_children":[-1],"split_indices":[0],"split_conditions":[1],"default_left":["yes"]}]}}}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTreeEnsemble([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseBaseScore(t *testing.T) {
	v, err := parseBaseScore("[5E-1]")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	v, err = parseBaseScore("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	_, err = parseBaseScore("abc")
	assert.Error(t, err)
}

func TestLoadTreeEnsembleFixture(t *testing.T) {
	m, err := LoadTreeEnsemble(filepath.Join("testdata", "xgc.json"))
	require.NoError(t, err)
	assert.Equal(t, "xgc.json", m.ModelID())
	assert.Equal(t, CustomerColumns, m.FeatureNames())
	assert.Len(t, m.trees, 3)
}

func TestOpenClassifierUnknownFormat(t *testing.T) {
	_, err := OpenClassifier(ArtifactConfig{ModelPath: "xgc.joblib"})
	assert.ErrorContains(t, err, "unsupported model format")
}

func fixtureWithAttributes(t *testing.T, attributes string, dropIndptr bool) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "xgc.json"))
	require.NoError(t, err)
	doc := strings.Replace(string(data), `"attributes": {}`, `"attributes": `+attributes, 1)
	if dropIndptr {
		doc = strings.Replace(doc, `"iteration_indptr": [0, 1, 2, 3], `, "", 1)
	}
	return []byte(doc)
}

func TestTreeEnsembleHonoursBestIteration(t *testing.T) {
	x := make([]float32, len(CustomerColumns))
	x[4] = 12 // tenure; every categorical code is 0

	full, err := ParseTreeEnsemble(fixtureWithAttributes(t, `{}`, false))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, full.Margin(x), 1e-9)

	for _, dropIndptr := range []bool{false, true} {
		m, err := ParseTreeEnsemble(fixtureWithAttributes(t, `{"best_iteration": "0", "best_score": "0.41"}`, dropIndptr))
		require.NoError(t, err)
		assert.Len(t, m.trees, 1)
		assert.InDelta(t, 0.8, m.Margin(x), 1e-9)
	}

	m, err := ParseTreeEnsemble(fixtureWithAttributes(t, `{"best_iteration": "1"}`, false))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Margin(x), 1e-9)
}

func TestTreeEnsembleRejectsBadBestIteration(t *testing.T) {
	for _, attrs := range []string{`{"best_iteration": "3"}`, `{"best_iteration": "-1"}`, `{"best_iteration": "x"}`} {
		_, err := ParseTreeEnsemble(fixtureWithAttributes(t, attrs, false))
		assert.ErrorContains(t, err, "best_iteration", attrs)
	}
	_, err := ParseTreeEnsemble(fixtureWithAttributes(t, `{"best_iteration": "3"}`, true))
	assert.ErrorContains(t, err, "selects 4 trees, model has 3")
}
