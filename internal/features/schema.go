package features

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParamType is the expected type of a request parameter.
type ParamType int

const (
	ParamString ParamType = iota
	ParamNumber
	ParamBool
)

// ParamField declares one field of a feature's parameter contract.
type ParamField struct {
	Name     string
	Type     ParamType
	Required bool
	// Enum restricts a string parameter to a fixed value set.
	Enum []string
	// Fold lower-cases the value before validation and caching. Set only
	// where case-insensitivity is semantically correct for the feature.
	Fold bool
}

// validateParams checks params against the declared fields and returns a
// normalized copy: strings trimmed, folded where declared, unknown fields
// rejected.
func validateParams(fields []ParamField, params map[string]any) (map[string]any, error) {
	declared := make(map[string]ParamField, len(fields))
	for _, f := range fields {
		declared[f.Name] = f
	}
	for name := range params {
		if _, ok := declared[name]; !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
	}

	normalized := make(map[string]any, len(params))
	for _, f := range fields {
		val, present := params[f.Name]
		if !present || val == nil {
			if f.Required {
				return nil, fmt.Errorf("missing required parameter %q", f.Name)
			}
			continue
		}

		switch f.Type {
		case ParamString:
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a string", f.Name)
			}
			s = strings.TrimSpace(s)
			if f.Fold {
				s = strings.ToLower(s)
			}
			if s == "" && f.Required {
				return nil, fmt.Errorf("parameter %q must not be empty", f.Name)
			}
			if len(f.Enum) > 0 && !contains(f.Enum, s) {
				return nil, fmt.Errorf("parameter %q must be one of %v", f.Name, f.Enum)
			}
			normalized[f.Name] = s
		case ParamNumber:
			n, ok := toFloat(val)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a number", f.Name)
			}
			normalized[f.Name] = n
		case ParamBool:
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("parameter %q must be a boolean", f.Name)
			}
			normalized[f.Name] = b
		}
	}
	return normalized, nil
}

// FieldType is the expected type of an output schema field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeBool
	TypeStringArray
	TypeObjectArray
)

// Field declares one field of a feature's output schema.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	// Enum restricts a string field to a fixed value set.
	Enum []string
	// Fields declares the element schema for TypeObjectArray.
	Fields []Field
}

// Schema is the declarative shape a provider response must match.
type Schema struct {
	Fields []Field
}

// Validate parses raw JSON and checks it against the schema. The provider
// output is normalized at this one boundary and never trusted elsewhere.
func (s Schema) Validate(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	out, err := validateObject(s.Fields, data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateObject(fields []Field, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		val, present := data[f.Name]
		if !present || val == nil {
			if f.Required {
				return nil, fmt.Errorf("missing required field %q", f.Name)
			}
			continue
		}

		switch f.Type {
		case TypeString:
			str, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("field %q must be a string", f.Name)
			}
			if len(f.Enum) > 0 && !contains(f.Enum, str) {
				return nil, fmt.Errorf("field %q value %q not in %v", f.Name, str, f.Enum)
			}
			out[f.Name] = str
		case TypeNumber:
			n, ok := toFloat(val)
			if !ok {
				return nil, fmt.Errorf("field %q must be a number", f.Name)
			}
			out[f.Name] = n
		case TypeBool:
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("field %q must be a boolean", f.Name)
			}
			out[f.Name] = b
		case TypeStringArray:
			arr, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("field %q must be an array", f.Name)
			}
			strs := make([]string, 0, len(arr))
			for i, item := range arr {
				str, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("field %q[%d] must be a string", f.Name, i)
				}
				strs = append(strs, str)
			}
			out[f.Name] = strs
		case TypeObjectArray:
			arr, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("field %q must be an array", f.Name)
			}
			objs := make([]map[string]any, 0, len(arr))
			for i, item := range arr {
				obj, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("field %q[%d] must be an object", f.Name, i)
				}
				validated, err := validateObject(f.Fields, obj)
				if err != nil {
					return nil, fmt.Errorf("field %q[%d]: %w", f.Name, i, err)
				}
				objs = append(objs, validated)
			}
			out[f.Name] = objs
		}
	}
	return out, nil
}

func contains(set []string, val string) bool {
	for _, s := range set {
		if s == val {
			return true
		}
	}
	return false
}

func toFloat(val any) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
