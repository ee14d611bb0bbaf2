package churn

import (
	"fmt"
	"time"
)

// Column names as they appeared in the training frame. Spelling and case matter.
const (
	ColGender           = "gender"
	ColSeniorCitizen    = "SeniorCitizen"
	ColPartner          = "Partner"
	ColDependents       = "Dependents"
	ColTenure           = "tenure"
	ColPhoneService     = "PhoneService"
	ColMultipleLines    = "MultipleLines"
	ColInternetService  = "InternetService"
	ColOnlineSecurity   = "OnlineSecurity"
	ColOnlineBackup     = "OnlineBackup"
	ColDeviceProtection = "DeviceProtection"
	ColTechSupport      = "TechSupport"
	ColStreamingTV      = "StreamingTV"
	ColStreamingMovies  = "StreamingMovies"
	ColContract         = "Contract"
	ColPaperlessBilling = "PaperlessBilling"
	ColPaymentMethod    = "PaymentMethod"
	ColMonthlyCharges   = "MonthlyCharges"
	ColTotalCharges     = "TotalCharges"
)

// CustomerColumns lists the record columns in the order they are assembled.
var CustomerColumns = []string{
	ColGender,
	ColSeniorCitizen,
	ColPartner,
	ColDependents,
	ColTenure,
	ColPhoneService,
	ColMultipleLines,
	ColInternetService,
	ColOnlineSecurity,
	ColOnlineBackup,
	ColDeviceProtection,
	ColTechSupport,
	ColStreamingTV,
	ColStreamingMovies,
	ColContract,
	ColPaperlessBilling,
	ColPaymentMethod,
	ColMonthlyCharges,
	ColTotalCharges,
}

// Customer holds the attributes collected by the form for one prediction.
type Customer struct {
	Gender           string  `json:"gender" yaml:"gender"`
	SeniorCitizen    string  `json:"SeniorCitizen" yaml:"SeniorCitizen"`
	Partner          string  `json:"Partner" yaml:"Partner"`
	Dependents       string  `json:"Dependents" yaml:"Dependents"`
	Tenure           int     `json:"tenure" yaml:"tenure"`
	PhoneService     string  `json:"PhoneService" yaml:"PhoneService"`
	MultipleLines    string  `json:"MultipleLines" yaml:"MultipleLines"`
	InternetService  string  `json:"InternetService" yaml:"InternetService"`
	OnlineSecurity   string  `json:"OnlineSecurity" yaml:"OnlineSecurity"`
	OnlineBackup     string  `json:"OnlineBackup" yaml:"OnlineBackup"`
	DeviceProtection string  `json:"DeviceProtection" yaml:"DeviceProtection"`
	TechSupport      string  `json:"TechSupport" yaml:"TechSupport"`
	StreamingTV      string  `json:"StreamingTV" yaml:"StreamingTV"`
	StreamingMovies  string  `json:"StreamingMovies" yaml:"StreamingMovies"`
	Contract         string  `json:"Contract" yaml:"Contract"`
	PaperlessBilling string  `json:"PaperlessBilling" yaml:"PaperlessBilling"`
	PaymentMethod    string  `json:"PaymentMethod" yaml:"PaymentMethod"`
	MonthlyCharges   float64 `json:"MonthlyCharges" yaml:"MonthlyCharges"`
	TotalCharges     float64 `json:"TotalCharges" yaml:"TotalCharges"`
}

// SeniorFlag maps the senior citizen choice to the 0/1 flag the model was trained on.
func SeniorFlag(choice string) int {
	if NormalizeText(choice) == "Yes" {
		return 1
	}
	return 0
}

// Record builds the single-row table for c using training column names.
func (c Customer) Record() Record {
	return Record{
		Columns: cloneStrings(CustomerColumns),
		Values: []Value{
			Text(c.Gender),
			Number(float64(SeniorFlag(c.SeniorCitizen))),
			Text(c.Partner),
			Text(c.Dependents),
			Number(float64(c.Tenure)),
			Text(c.PhoneService),
			Text(c.MultipleLines),
			Text(c.InternetService),
			Text(c.OnlineSecurity),
			Text(c.OnlineBackup),
			Text(c.DeviceProtection),
			Text(c.TechSupport),
			Text(c.StreamingTV),
			Text(c.StreamingMovies),
			Text(c.Contract),
			Text(c.PaperlessBilling),
			Text(c.PaymentMethod),
			Number(c.MonthlyCharges),
			Number(c.TotalCharges),
		},
	}
}

// Value is a single cell: either a number or a string awaiting encoding.
type Value struct {
	Num   float64 `json:"num"`
	Str   string  `json:"str,omitempty"`
	IsNum bool    `json:"isNum"`
}

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{Num: f, IsNum: true} }

// Text wraps a string cell.
func Text(s string) Value { return Value{Str: s} }

func (v Value) String() string {
	if v.IsNum {
		return fmt.Sprintf("%g", v.Num)
	}
	return fmt.Sprintf("%q", v.Str)
}

// Record is a one-row table. Columns and Values are index aligned.
type Record struct {
	Columns []string `json:"columns"`
	Values  []Value  `json:"values"`
}

// Index returns the position of col or -1.
func (r Record) Index(col string) int {
	for i, c := range r.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Get returns the value stored under col.
func (r Record) Get(col string) (Value, bool) {
	idx := r.Index(col)
	if idx < 0 || idx >= len(r.Values) {
		return Value{}, false
	}
	return r.Values[idx], true
}

// Clone returns a copy that shares no slices with r.
func (r Record) Clone() Record {
	out := Record{
		Columns: cloneStrings(r.Columns),
		Values:  make([]Value, len(r.Values)),
	}
	copy(out.Values, r.Values)
	return out
}

// Prediction is the outcome of a successful pipeline run.
type Prediction struct {
	Label       int           `json:"label"`
	Probability float64       `json:"probability"`
	Churn       bool          `json:"churn"`
	ModelID     string        `json:"modelId"`
	Padded      []string      `json:"padded,omitempty"`
	Coerced     []string      `json:"coerced,omitempty"`
	Unknown     []string      `json:"unknown,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Message renders the result sentence shown to the user.
func (p Prediction) Message() string {
	verdict := "STAY"
	if p.Churn {
		verdict = "CHURN"
	}
	return fmt.Sprintf("The customer is likely to %s (Probability: %.2f)", verdict, p.Probability)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
