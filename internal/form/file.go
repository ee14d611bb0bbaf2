package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadValues loads one record of form values from a JSON or YAML file.
// Keys that are not form fields are returned in ignored, sorted.
func ReadValues(path string) (Values, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	return ParseValues(data, filepath.Ext(path))
}

// ParseValues decodes data according to ext (".json", ".yaml" or ".yml").
func ParseValues(data []byte, ext string) (Values, []string, error) {
	raw := map[string]any{}
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("decode json input: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, nil, fmt.Errorf("decode yaml input: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported input format %q", ext)
	}

	v := make(Values, len(raw))
	var ignored []string
	for k, val := range raw {
		if _, ok := Lookup(k); !ok {
			ignored = append(ignored, k)
			continue
		}
		s, err := scalarString(val)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", k, err)
		}
		v[k] = s
	}
	sort.Strings(ignored)
	return v, ignored, nil
}

func scalarString(val any) (string, error) {
	switch x := val.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		if x {
			return "Yes", nil
		}
		return "No", nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", val)
	}
}
