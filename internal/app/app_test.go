package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/test"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/churnpredictor/churn"
	"yashubustudio/churnpredictor/internal/form"
)

func TestMain(m *testing.M) {
	test.NewApp()
	os.Exit(m.Run())
}

func TestFormInputsStartAtDefaults(t *testing.T) {
	fi := newFormInputs()
	if diff := cmp.Diff(form.Defaults(), fi.Values()); diff != "" {
		t.Fatalf("initial widget state mismatch (-want +got):\n%s", diff)
	}
}

func TestFormInputsSet(t *testing.T) {
	fi := newFormInputs()
	fi.Set(form.Values{
		churn.ColContract:     "Two year",
		churn.ColTenure:       "48",
		churn.ColTotalCharges: "2500.5",
		"customerID":          "ignored",
	})
	got := fi.Values()
	assert.Equal(t, "Two year", got[churn.ColContract])
	assert.Equal(t, "48", got[churn.ColTenure])
	assert.Equal(t, "2500.5", got[churn.ColTotalCharges])
	assert.NotContains(t, got, "customerID")

	// Values outside a widget's domain fall back to the field default.
	fi.Set(form.Values{churn.ColContract: "Three year", churn.ColTenure: "99"})
	got = fi.Values()
	assert.Equal(t, "Month-to-month", got[churn.ColContract])
	assert.Equal(t, "12", got[churn.ColTenure])
}

func TestLogCaptureKeepsTail(t *testing.T) {
	b := binding.NewString()
	l := newLogCapture(b, 3)
	_, err := l.Write([]byte("one\ntwo\r\n\nthree\n"))
	require.NoError(t, err)
	_, err = l.Write([]byte("four\n"))
	require.NoError(t, err)

	assert.Equal(t, "two\nthree\nfour", l.Text())
	require.NoError(t, l.Sync())
	got, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\nfour", got)
}

func TestLoggerWritesIntoCapture(t *testing.T) {
	l := newLogCapture(binding.NewString(), 0)
	logger, err := churn.NewLogger(churn.LogConfig{Level: "info"}, l)
	require.NoError(t, err)
	logger.Info("model loaded")
	logger.Debug("hidden")
	assert.Contains(t, l.Text(), "model loaded")
	assert.NotContains(t, l.Text(), "hidden")
}

func TestWriteExplanation(t *testing.T) {
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

	customer, err := form.Decode(form.Defaults())
	require.NoError(t, err)
	ctx := context.Background()
	pred, err := svc.Predict(ctx, customer)
	require.NoError(t, err)
	prep, err := svc.Prepare(ctx, customer)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeExplanation(&buf, customer.Record(), prep, pred))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+19+2)
	assert.Equal(t, []string{"column", "input", "feature", "note"}, rows[0])
	assert.Equal(t, []string{"gender", "Male", "1", ""}, rows[1])
	assert.Equal(t, []string{"tenure", "12", "12", ""}, rows[5])
	assert.Equal(t, []string{"label", "", "1", "xgc.json"}, rows[20])
	assert.Equal(t, "probability", rows[21][0])
}
