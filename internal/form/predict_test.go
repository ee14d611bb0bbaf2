package form

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/churnpredictor/churn"
)

func fixtureService(t *testing.T) (*churn.Service, *churn.Artifacts) {
	t.Helper()
	testdata := filepath.Join("..", "..", "churn", "testdata")
	artifacts, err := churn.LoadArtifacts(churn.ArtifactConfig{
		ModelPath:    filepath.Join(testdata, "xgc.json"),
		EncodersPath: filepath.Join(testdata, "encoders.json"),
		ColumnsPath:  filepath.Join(testdata, "columns.json"),
	})
	require.NoError(t, err)
	svc, err := churn.NewService(artifacts, churn.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, artifacts
}

func TestEveryOptionIsInEncoderVocabulary(t *testing.T) {
	_, artifacts := fixtureService(t)
	for _, f := range Fields() {
		if f.Kind != KindSelect {
			continue
		}
		enc, ok := artifacts.Encoders[f.Name]
		if !ok {
			// SeniorCitizen is mapped to 0/1 by hand.
			assert.Equal(t, churn.ColSeniorCitizen, f.Name, "select field without encoder")
			continue
		}
		for _, opt := range f.Options {
			_, ok := enc.Transform(opt)
			assert.True(t, ok, "%s option %q missing from encoder", f.Name, opt)
		}
	}
}

// sweepValues yields one form per option and per numeric bound, all other
// fields left at their defaults.
func sweepValues() []Values {
	var out []Values
	for _, f := range Fields() {
		var raws []string
		switch f.Kind {
		case KindSelect:
			raws = f.Options
		default:
			raws = []string{
				strconv.FormatFloat(f.Min, 'f', -1, 64),
				strconv.FormatFloat(f.Max, 'f', -1, 64),
			}
		}
		for _, raw := range raws {
			v := Defaults()
			v[f.Name] = raw
			out = append(out, v)
		}
	}
	return out
}

func TestEveryValidInputPredicts(t *testing.T) {
	svc, _ := fixtureService(t)
	inputs := sweepValues()
	require.NotEmpty(t, inputs)

	for _, v := range inputs {
		c, err := Decode(v)
		require.NoError(t, err, "%v", v)
		pred, err := svc.Predict(context.Background(), c)
		require.NoError(t, err, "%v", v)
		assert.Contains(t, []int{0, 1}, pred.Label)
		assert.GreaterOrEqual(t, pred.Probability, 0.0)
		assert.LessOrEqual(t, pred.Probability, 1.0)
		assert.Empty(t, pred.Padded)
		assert.Empty(t, pred.Coerced)
		assert.Empty(t, pred.Unknown)
	}
}
