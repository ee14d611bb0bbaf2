package churn

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColumnOrder is the exact feature order the model was trained with.
type ColumnOrder []string

// Validate rejects empty orders, blank names and duplicates.
func (o ColumnOrder) Validate() error {
	if len(o) == 0 {
		return errors.New("column order is empty")
	}
	seen := make(map[string]struct{}, len(o))
	for i, col := range o {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("column %d is blank", i)
		}
		if _, ok := seen[col]; ok {
			return fmt.Errorf("column %q listed twice", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}

// Reindex lays r out in column order. Columns the model expects but r lacks are
// filled with 0 and reported; columns r has but the model does not are dropped.
func (o ColumnOrder) Reindex(r Record) (Record, []string) {
	out := Record{
		Columns: cloneStrings(o),
		Values:  make([]Value, len(o)),
	}
	var padded []string
	for i, col := range o {
		if v, ok := r.Get(col); ok {
			out.Values[i] = v
			continue
		}
		out.Values[i] = Number(0)
		padded = append(padded, col)
	}
	return out, padded
}

// Equal reports whether o and names list the same columns in the same order.
func (o ColumnOrder) Equal(names []string) bool {
	if len(o) != len(names) {
		return false
	}
	for i := range o {
		if o[i] != names[i] {
			return false
		}
	}
	return true
}

// CoerceNumeric converts every cell to float32. Cells that do not parse as a
// number become 0 and their columns are returned.
func CoerceNumeric(r Record) ([]float32, []string) {
	out := make([]float32, len(r.Values))
	var coerced []string
	for i, v := range r.Values {
		f, ok := numericValue(v)
		if !ok {
			coerced = append(coerced, r.Columns[i])
			f = 0
		}
		out[i] = float32(f)
	}
	return out, coerced
}

func numericValue(v Value) (float64, bool) {
	f := v.Num
	if !v.IsNum {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
