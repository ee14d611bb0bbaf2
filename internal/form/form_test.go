package form

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/churnpredictor/churn"
)

func TestFieldsCoverTrainingColumns(t *testing.T) {
	var names []string
	for _, f := range Fields() {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, churn.CustomerColumns, names)
	assert.Len(t, Sections(), 3)
}

func TestDecodeDefaults(t *testing.T) {
	c, err := Decode(Defaults())
	require.NoError(t, err)

	want := churn.Customer{
		Gender:           "Male",
		SeniorCitizen:    "No",
		Partner:          "No",
		Dependents:       "No",
		Tenure:           12,
		PhoneService:     "Yes",
		MultipleLines:    "No",
		InternetService:  "DSL",
		OnlineSecurity:   "Yes",
		OnlineBackup:     "Yes",
		DeviceProtection: "Yes",
		TechSupport:      "Yes",
		StreamingTV:      "Yes",
		StreamingMovies:  "Yes",
		Contract:         "Month-to-month",
		PaperlessBilling: "Yes",
		PaymentMethod:    "Electronic check",
		MonthlyCharges:   70,
		TotalCharges:     1000,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("decoded defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	v := Defaults()
	v[churn.ColTenure] = "0"
	v[churn.ColInternetService] = "Fiber optic"
	v[churn.ColTotalCharges] = "29.85"

	c, err := Decode(v)
	require.NoError(t, err)
	if diff := cmp.Diff(v, Encode(c)); diff != "" {
		t.Fatalf("encode(decode(v)) mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeCollectsFieldErrors(t *testing.T) {
	v := Defaults()
	v[churn.ColTenure] = "73"
	v[churn.ColMonthlyCharges] = "-1"
	v[churn.ColContract] = "Three year"
	v[churn.ColTotalCharges] = "lots"

	_, err := Decode(v)
	var errs FieldErrors
	require.True(t, errors.As(err, &errs))

	got := map[string]string{}
	for _, fe := range errs {
		got[fe.Field] = fe.Reason
	}
	want := map[string]string{
		churn.ColTenure:         "must be between 0 and 72",
		churn.ColContract:       "must be one of: Month-to-month, One year, Two year",
		churn.ColMonthlyCharges: "must be between 0 and 150",
		churn.ColTotalCharges:   "must be a number",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, err.Error(), "Tenure (in months): must be between 0 and 72")
}

func TestDecodeDoesNotCrossValidate(t *testing.T) {
	v := Defaults()
	v[churn.ColInternetService] = "No"
	v[churn.ColStreamingTV] = "Yes"

	c, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "Yes", c.StreamingTV)
}

func TestFieldCheckBounds(t *testing.T) {
	tenure, ok := Lookup(churn.ColTenure)
	require.True(t, ok)
	assert.NoError(t, tenure.Check("0"))
	assert.NoError(t, tenure.Check(" 72 "))
	assert.Error(t, tenure.Check("12.5"))

	monthly, ok := Lookup(churn.ColMonthlyCharges)
	require.True(t, ok)
	assert.NoError(t, monthly.Check("150"))
	assert.Error(t, monthly.Check("150.01"))
	assert.Error(t, monthly.Check("NaN"))

	_, ok = Lookup("Churn")
	assert.False(t, ok)
}

func TestMergeIgnoresUnknownKeys(t *testing.T) {
	v := Merge(map[string]string{churn.ColGender: "Female", "customerID": "7590-VHVEG"})
	assert.Equal(t, "Female", v[churn.ColGender])
	assert.NotContains(t, v, "customerID")
	assert.Len(t, v, 19)
}

func TestParseValuesJSON(t *testing.T) {
	data := []byte(`{"tenure": 5, "MonthlyCharges": 89.1, "Contract": "One year", "customerID": "x", "Churn": "No"}`)
	v, ignored, err := ParseValues(data, ".json")
	require.NoError(t, err)
	assert.Equal(t, Values{
		churn.ColTenure:         "5",
		churn.ColMonthlyCharges: "89.1",
		churn.ColContract:       "One year",
	}, v)
	assert.Equal(t, []string{"Churn", "customerID"}, ignored)
}

func TestParseValuesYAML(t *testing.T) {
	data := []byte("SeniorCitizen: true\nTotalCharges: 120\nPaymentMethod: Mailed check\n")
	v, ignored, err := ParseValues(data, ".yml")
	require.NoError(t, err)
	assert.Empty(t, ignored)

	c, err := Decode(Merge(v))
	require.NoError(t, err)
	assert.Equal(t, "Yes", c.SeniorCitizen)
	assert.Equal(t, 120.0, c.TotalCharges)
	assert.Equal(t, "Mailed check", c.PaymentMethod)
}

func TestParseValuesRejects(t *testing.T) {
	_, _, err := ParseValues([]byte("a,b"), ".csv")
	assert.ErrorContains(t, err, "unsupported input format")

	_, _, err = ParseValues([]byte(`{"gender": ["Male"]}`), ".json")
	assert.ErrorContains(t, err, "gender: expected a scalar")
}
