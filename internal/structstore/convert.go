package structstore

import (
	"encoding/json"
	"fmt"
)

// toColumnValue converts an application-level value for field f into the
// driver value written to its column: booleans become 0/1, objects and
// arrays become JSON text, everything else passes through unchanged
// (dates are already expected as ISO-8601 strings by the time they reach
// here — §3).
func toColumnValue(f FieldDef, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case FieldBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q: expected bool, got %T", f.Name, v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case FieldObject, FieldArray:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: marshal: %w", f.Name, err)
		}
		return string(data), nil
	case FieldNumber:
		switch n := v.(type) {
		case float64, int, int64:
			return n, nil
		default:
			return nil, fmt.Errorf("field %q: expected number, got %T", f.Name, v)
		}
	default: // string, date, enum
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: expected string, got %T", f.Name, v)
		}
		return s, nil
	}
}

// fromColumnValue converts a raw driver value read back from field f's
// column into the application-level representation.
func fromColumnValue(f FieldDef, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case FieldBoolean:
		switch n := v.(type) {
		case int64:
			return n != 0, nil
		case float64:
			return n != 0, nil
		default:
			return nil, fmt.Errorf("field %q: unexpected boolean storage type %T", f.Name, v)
		}
	case FieldObject, FieldArray:
		var s string
		switch raw := v.(type) {
		case string:
			s = raw
		case []byte:
			s = string(raw)
		default:
			return nil, fmt.Errorf("field %q: unexpected JSON storage type %T", f.Name, v)
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("field %q: corrupt JSON: %w", f.Name, err)
		}
		return out, nil
	case FieldNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("field %q: unexpected numeric storage type %T", f.Name, v)
		}
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		default:
			return nil, fmt.Errorf("field %q: unexpected string storage type %T", f.Name, v)
		}
	}
}
