// Package jsonsafe rewrites values that encoding/json cannot represent.
package jsonsafe

import "math"

// Sanitize returns a copy of v with NaN and infinite floats replaced by nil,
// descending into maps and slices.
func Sanitize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = Sanitize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	case float64:
		return Float(val)
	case float32:
		return Float(float64(val))
	default:
		return v
	}
}

// Float returns nil for values JSON has no encoding for.
func Float(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
