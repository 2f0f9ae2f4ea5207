package guide2pdf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MergeVariables combines guide-declared variables with submitted answers.
// Names are matched case-insensitively and the result is keyed by the
// lower-cased name. An answer replaces the guide default of the same name
// but keeps its declared type; guide variables without an answer pass
// through unchanged. Neither input is modified.
func MergeVariables(guide map[string]Variable, answers map[string]any) Variables {
	out := make(Variables, len(guide)+len(answers))

	for key, v := range guide {
		if v.Name == "" {
			v.Name = key
		}
		v.Source = SourceGuide
		out[strings.ToLower(v.Name)] = v
	}

	for name, value := range answers {
		key := strings.ToLower(name)
		v, declared := out[key]
		if !declared {
			v = Variable{Name: name}
		}
		v.Value = value
		v.Source = SourceAnswer
		out[key] = v
	}

	return out
}

// DecodeAnswers parses the JSON answers field of an assembly request.
// An empty field means no answers. Values stored in interview form,
// {"name": ..., "values": [null, v1, v2]}, are flattened with FlattenAnswers.
func DecodeAnswers(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	var answers map[string]any
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	if answers == nil {
		return map[string]any{}, nil
	}
	return FlattenAnswers(answers), nil
}

// FlattenAnswers returns a copy of answers with interview-form values
// reduced to plain values. The leading null slot of a values list is
// dropped; a single remaining value is returned as is, several as a list.
func FlattenAnswers(answers map[string]any) map[string]any {
	out := make(map[string]any, len(answers))
	for name, value := range answers {
		out[name] = flattenAnswer(value)
	}
	return out
}

func flattenAnswer(value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	values, ok := obj["values"].([]any)
	if !ok {
		return value
	}
	if len(values) > 0 && values[0] == nil {
		values = values[1:]
	}
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}
