// Package form declares the customer form: one constrained input per model
// attribute, grouped the way the screen lays them out.
package form

import (
	"strconv"

	"yashubustudio/churnpredictor/churn"
)

// Kind is the widget family a field renders as.
type Kind int

const (
	KindSelect Kind = iota
	KindInt
	KindFloat
)

// Field describes one input. Name is the training column the value feeds.
type Field struct {
	Name    string
	Label   string
	Kind    Kind
	Options []string
	Min     float64
	Max     float64
	Step    float64
	Default string
}

// Section is a titled group rendered as two columns.
type Section struct {
	Title   string
	Columns [2][]Field
}

var (
	yesNo      = []string{"No", "Yes"}
	netService = []string{"Yes", "No", "No internet service"}
)

func selectField(name, label string, options ...string) Field {
	return Field{Name: name, Label: label, Kind: KindSelect, Options: options, Default: options[0]}
}

var sections = []Section{
	{
		Title: "Customer Information",
		Columns: [2][]Field{
			{
				selectField(churn.ColGender, "Gender", "Male", "Female"),
				selectField(churn.ColSeniorCitizen, "Senior Citizen", yesNo...),
				selectField(churn.ColPartner, "Has Partner?", yesNo...),
				selectField(churn.ColDependents, "Has Dependents?", yesNo...),
			},
			{
				{Name: churn.ColTenure, Label: "Tenure (in months)", Kind: KindInt, Min: 0, Max: 72, Step: 1, Default: "12"},
				selectField(churn.ColPhoneService, "Phone Service", "Yes", "No"),
				selectField(churn.ColMultipleLines, "Multiple Lines", "No", "Yes", "No phone service"),
			},
		},
	},
	{
		Title: "Internet and Services",
		Columns: [2][]Field{
			{
				selectField(churn.ColInternetService, "Internet Service", "DSL", "Fiber optic", "No"),
				selectField(churn.ColOnlineSecurity, "Online Security", netService...),
				selectField(churn.ColOnlineBackup, "Online Backup", netService...),
			},
			{
				selectField(churn.ColDeviceProtection, "Device Protection", netService...),
				selectField(churn.ColTechSupport, "Tech Support", netService...),
				selectField(churn.ColStreamingTV, "Streaming TV", netService...),
				selectField(churn.ColStreamingMovies, "Streaming Movies", netService...),
			},
		},
	},
	{
		Title: "Billing and Payment",
		Columns: [2][]Field{
			{
				selectField(churn.ColContract, "Contract Type", "Month-to-month", "One year", "Two year"),
				selectField(churn.ColPaperlessBilling, "Paperless Billing", "Yes", "No"),
			},
			{
				selectField(churn.ColPaymentMethod, "Payment Method",
					"Electronic check",
					"Mailed check",
					"Bank transfer (automatic)",
					"Credit card (automatic)",
				),
				{Name: churn.ColMonthlyCharges, Label: "Monthly Charges ($)", Kind: KindFloat, Min: 0, Max: 150, Step: 0.01, Default: "70.00"},
				{Name: churn.ColTotalCharges, Label: "Total Charges ($)", Kind: KindFloat, Min: 0, Max: 10000, Step: 0.01, Default: "1000.00"},
			},
		},
	},
}

// Sections returns the form layout.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// Fields returns every field in layout order.
func Fields() []Field {
	var out []Field
	for _, s := range sections {
		for _, col := range s.Columns {
			out = append(out, col...)
		}
	}
	return out
}

// Lookup finds a field by column name.
func Lookup(name string) (Field, bool) {
	for _, f := range Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Values holds raw widget state keyed by column name.
type Values map[string]string

// Defaults returns the initial widget state.
func Defaults() Values {
	v := make(Values)
	for _, f := range Fields() {
		v[f.Name] = f.Default
	}
	return v
}

// Merge returns the defaults overlaid with the known keys of saved.
func Merge(saved map[string]string) Values {
	v := Defaults()
	for k, val := range saved {
		if _, ok := v[k]; ok {
			v[k] = val
		}
	}
	return v
}

// Encode renders c as widget state.
func Encode(c churn.Customer) Values {
	return Values{
		churn.ColGender:           c.Gender,
		churn.ColSeniorCitizen:    c.SeniorCitizen,
		churn.ColPartner:          c.Partner,
		churn.ColDependents:       c.Dependents,
		churn.ColTenure:           strconv.Itoa(c.Tenure),
		churn.ColPhoneService:     c.PhoneService,
		churn.ColMultipleLines:    c.MultipleLines,
		churn.ColInternetService:  c.InternetService,
		churn.ColOnlineSecurity:   c.OnlineSecurity,
		churn.ColOnlineBackup:     c.OnlineBackup,
		churn.ColDeviceProtection: c.DeviceProtection,
		churn.ColTechSupport:      c.TechSupport,
		churn.ColStreamingTV:      c.StreamingTV,
		churn.ColStreamingMovies:  c.StreamingMovies,
		churn.ColContract:         c.Contract,
		churn.ColPaperlessBilling: c.PaperlessBilling,
		churn.ColPaymentMethod:    c.PaymentMethod,
		churn.ColMonthlyCharges:   strconv.FormatFloat(c.MonthlyCharges, 'f', 2, 64),
		churn.ColTotalCharges:     strconv.FormatFloat(c.TotalCharges, 'f', 2, 64),
	}
}
