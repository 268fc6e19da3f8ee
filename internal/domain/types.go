package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metadata is an unstructured data container decoded from JSON columns.
type Metadata map[string]any

// Int64 reads an integral value stored under key. JSON numbers decode as
// float64, so whole floats and json.Number are accepted.
func (m Metadata) Int64(key string) (int64, bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, true, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		return int64(v), true, nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, true, fmt.Errorf("%s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("%s: unsupported type %T", key, raw)
	}
}
