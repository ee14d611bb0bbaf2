package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"yashubustudio/churnpredictor/churn"
)

// writeExplanation writes the model-ready row as CSV: one line per column with
// the raw form value and the feature the model saw, followed by the outcome.
func writeExplanation(w io.Writer, raw churn.Record, prep churn.Prepared, pred churn.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"column", "input", "feature", "note"}); err != nil {
		return err
	}
	for i, col := range prep.Record.Columns {
		input := ""
		if v, ok := raw.Get(col); ok {
			input = cellText(v)
		}
		feature := ""
		if i < len(prep.Features) {
			feature = strconv.FormatFloat(float64(prep.Features[i]), 'f', -1, 32)
		}
		if err := cw.Write([]string{col, input, feature, columnNote(col, prep)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"label", "", strconv.Itoa(pred.Label), pred.ModelID}); err != nil {
		return err
	}
	if err := cw.Write([]string{"probability", "", fmt.Sprintf("%.4f", pred.Probability), ""}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func cellText(v churn.Value) string {
	if v.IsNum {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

func columnNote(col string, prep churn.Prepared) string {
	switch {
	case contains(prep.Unknown, col):
		return "unseen category"
	case contains(prep.Padded, col):
		return "padded"
	case contains(prep.Coerced, col):
		return "coerced"
	default:
		return ""
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
