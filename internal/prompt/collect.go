package prompt

import (
	"context"
	"fmt"
	"strings"

	"yashubustudio/churnpredictor/internal/form"
)

// Collect walks the form section by section and returns the answers.
// defaults seeds every prompt; missing keys fall back to the field default.
func Collect(ctx context.Context, d Driver, defaults form.Values) (form.Values, error) {
	out := form.Merge(defaults)
	for _, section := range form.Sections() {
		if err := d.Info(ctx, section.Title); err != nil {
			return nil, err
		}
		for _, col := range section.Columns {
			for _, f := range col {
				answer, err := ask(ctx, d, f, out[f.Name])
				if err != nil {
					return nil, fmt.Errorf("%s: %w", f.Name, err)
				}
				out[f.Name] = answer
			}
		}
	}
	return out, nil
}

func ask(ctx context.Context, d Driver, f form.Field, current string) (string, error) {
	if f.Kind == form.KindSelect {
		return d.Select(ctx, SelectConfig{
			Message: f.Label,
			Options: f.Options,
			Default: current,
		})
	}
	answer, err := d.Input(ctx, InputConfig{
		Message:   f.Label,
		Default:   current,
		Help:      fmt.Sprintf("%g to %g", f.Min, f.Max),
		Validator: f.Check,
	})
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if err := f.Check(answer); err != nil {
		return "", err
	}
	return answer, nil
}
