package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"yashubustudio/churnpredictor/churn"
)

// FieldError is a widget-level constraint violation.
type FieldError struct {
	Field  string
	Label  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Reason)
}

// FieldErrors collects every violation found in one submission.
type FieldErrors []*FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Check validates raw against the field's domain.
func (f Field) Check(raw string) error {
	_, err := f.parse(raw)
	return err
}

func (f Field) parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindSelect:
		for _, opt := range f.Options {
			if raw == opt {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("must be one of: %s", strings.Join(f.Options, ", "))
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a whole number")
		}
		if float64(n) < f.Min || float64(n) > f.Max {
			return nil, fmt.Errorf("must be between %g and %g", f.Min, f.Max)
		}
		return n, nil
	case KindFloat:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(x) {
			return nil, fmt.Errorf("must be a number")
		}
		if x < f.Min || x > f.Max {
			return nil, fmt.Errorf("must be between %g and %g", f.Min, f.Max)
		}
		return x, nil
	default:
		return nil, fmt.Errorf("unknown field kind %d", f.Kind)
	}
}

// Decode validates v and builds the customer. Missing keys take the field default.
func Decode(v Values) (churn.Customer, error) {
	var (
		c    churn.Customer
		errs FieldErrors
	)
	for _, f := range Fields() {
		raw, ok := v[f.Name]
		if !ok {
			raw = f.Default
		}
		val, err := f.parse(raw)
		if err != nil {
			errs = append(errs, &FieldError{Field: f.Name, Label: f.Label, Reason: err.Error()})
			continue
		}
		assign(&c, f.Name, val)
	}
	if len(errs) > 0 {
		return churn.Customer{}, errs
	}
	return c, nil
}

func assign(c *churn.Customer, name string, val any) {
	switch name {
	case churn.ColTenure:
		c.Tenure = val.(int)
		return
	case churn.ColMonthlyCharges:
		c.MonthlyCharges = val.(float64)
		return
	case churn.ColTotalCharges:
		c.TotalCharges = val.(float64)
		return
	}
	s := val.(string)
	switch name {
	case churn.ColGender:
		c.Gender = s
	case churn.ColSeniorCitizen:
		c.SeniorCitizen = s
	case churn.ColPartner:
		c.Partner = s
	case churn.ColDependents:
		c.Dependents = s
	case churn.ColPhoneService:
		c.PhoneService = s
	case churn.ColMultipleLines:
		c.MultipleLines = s
	case churn.ColInternetService:
		c.InternetService = s
	case churn.ColOnlineSecurity:
		c.OnlineSecurity = s
	case churn.ColOnlineBackup:
		c.OnlineBackup = s
	case churn.ColDeviceProtection:
		c.DeviceProtection = s
	case churn.ColTechSupport:
		c.TechSupport = s
	case churn.ColStreamingTV:
		c.StreamingTV = s
	case churn.ColStreamingMovies:
		c.StreamingMovies = s
	case churn.ColContract:
		c.Contract = s
	case churn.ColPaperlessBilling:
		c.PaperlessBilling = s
	case churn.ColPaymentMethod:
		c.PaymentMethod = s
	}
}
