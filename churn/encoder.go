package churn

import (
	"fmt"
	"sort"
)

// SentinelCode is substituted for unseen categories under UnknownSentinel.
const SentinelCode = -1

// UnknownPolicy decides what happens to a categorical value an encoder never saw.
type UnknownPolicy string

const (
	// UnknownReject fails the prediction with an UnseenCategoryError.
	UnknownReject UnknownPolicy = "reject"
	// UnknownSentinel encodes the value as SentinelCode and logs a warning.
	UnknownSentinel UnknownPolicy = "sentinel"
)

// Valid reports whether p is a known policy.
func (p UnknownPolicy) Valid() bool {
	return p == UnknownReject || p == UnknownSentinel
}

// LabelEncoder maps a fitted vocabulary to integer codes. The code of a class is
// its position in the vocabulary, which is how the training encoders were saved.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder from the saved class list.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder has no classes")
	}
	enc := &LabelEncoder{
		classes: cloneStrings(classes),
		index:   make(map[string]int, len(classes)),
	}
	for i, class := range classes {
		key := NormalizeText(class)
		if _, dup := enc.index[key]; dup {
			return nil, fmt.Errorf("duplicate class %q", class)
		}
		enc.index[key] = i
	}
	return enc, nil
}

// Transform returns the code for value.
func (e *LabelEncoder) Transform(value string) (int, bool) {
	code, ok := e.index[NormalizeText(value)]
	return code, ok
}

// Inverse returns the class stored under code.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("code %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// Classes returns a copy of the vocabulary in code order.
func (e *LabelEncoder) Classes() []string {
	return cloneStrings(e.classes)
}

// EncoderSet maps a column name to its encoder.
type EncoderSet map[string]*LabelEncoder

// NewEncoderSet builds encoders from column → classes.
func NewEncoderSet(vocab map[string][]string) (EncoderSet, error) {
	set := make(EncoderSet, len(vocab))
	for col, classes := range vocab {
		enc, err := NewLabelEncoder(classes)
		if err != nil {
			return nil, fmt.Errorf("encoder %s: %w", col, err)
		}
		set[col] = enc
	}
	return set, nil
}

// Columns returns the encoded column names sorted for stable iteration.
func (s EncoderSet) Columns() []string {
	out := make([]string, 0, len(s))
	for col := range s {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

// Encode replaces every encoded column of r with its code. The returned slice
// lists columns that received SentinelCode.
func (s EncoderSet) Encode(r Record, policy UnknownPolicy) (Record, []string, error) {
	out := r.Clone()
	var unknown []string
	for _, col := range s.Columns() {
		idx := out.Index(col)
		if idx < 0 {
			continue
		}
		enc := s[col]
		v := out.Values[idx]
		raw := v.Str
		if v.IsNum {
			raw = fmt.Sprintf("%g", v.Num)
		}
		code, ok := enc.Transform(raw)
		if !ok {
			if policy != UnknownSentinel {
				return Record{}, nil, &UnseenCategoryError{Column: col, Value: raw, Known: enc.Classes()}
			}
			code = SentinelCode
			unknown = append(unknown, col)
		}
		out.Values[idx] = Number(float64(code))
	}
	return out, unknown, nil
}
