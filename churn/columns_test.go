package churn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestReindexOrdersPadsAndDrops(t *testing.T) {
	order := ColumnOrder{"tenure", "gender", "TotalCharges"}
	rec := Record{
		Columns: []string{"gender", "Extra", "tenure"},
		Values:  []Value{Number(1), Text("x"), Number(5)},
	}

	got, padded := order.Reindex(rec)
	want := Record{
		Columns: []string{"tenure", "gender", "TotalCharges"},
		Values:  []Value{Number(5), Number(1), Number(0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reindex mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"TotalCharges"}, padded)
}

func TestReindexIdempotent(t *testing.T) {
	order := ColumnOrder(CustomerColumns[3:])
	once, _ := order.Reindex(defaultCustomer().Record())
	twice, padded := order.Reindex(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second reindex changed the record (-once +twice):\n%s", diff)
	}
	assert.Empty(t, padded)
}

func TestColumnOrderValidate(t *testing.T) {
	assert.NoError(t, ColumnOrder(CustomerColumns).Validate())
	assert.Error(t, ColumnOrder{}.Validate())
	assert.ErrorContains(t, ColumnOrder{"a", " "}.Validate(), "blank")
	assert.ErrorContains(t, ColumnOrder{"a", "b", "a"}.Validate(), "listed twice")
}

func TestCoerceNumeric(t *testing.T) {
	rec := Record{
		Columns: []string{"a", "b", "c", "d", "e"},
		Values:  []Value{Number(2.5), Text(" 7 "), Text("Male"), Text("NaN"), Text("")},
	}
	got, coerced := CoerceNumeric(rec)
	assert.Equal(t, []float32{2.5, 7, 0, 0, 0}, got)
	assert.Equal(t, []string{"c", "d", "e"}, coerced)
}

func TestCustomerRecordUsesTrainingNames(t *testing.T) {
	rec := defaultCustomer().Record()
	assert.Equal(t, CustomerColumns, rec.Columns)
	assert.Len(t, rec.Values, 19)
	v, ok := rec.Get("tenure")
	assert.True(t, ok)
	assert.Equal(t, Number(12), v)
	_, ok = rec.Get("Tenure")
	assert.False(t, ok)
}
