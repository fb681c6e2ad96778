package plan

// Tolerant accessors for untyped plan payloads. Model output mixes up
// numbers and strings freely, so every accessor degrades to a zero value
// instead of failing.

func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func getFloat(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}

func getInt(m map[string]any, keys ...string) int {
	return int(getFloat(m, keys...))
}

func getBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v
		}
	}
	return false
}

func getMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func getArray(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

// getMapArray returns the object entries of an array field, skipping
// anything that isn't an object.
func getMapArray(m map[string]any, key string) []map[string]any {
	raw := getArray(m, key)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// getPoint reads a 2-element [x, z] array or an {x, z} object.
func getPoint(m map[string]any, keys ...string) (x, z float64, ok bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			if len(v) >= 2 {
				xf, xok := toFloat(v[0])
				zf, zok := toFloat(v[len(v)-1])
				if xok && zok {
					return xf, zf, true
				}
			}
		case map[string]any:
			xf, xok := toFloat(v["x"])
			zf, zok := toFloat(v["z"])
			if xok && zok {
				return xf, zf, true
			}
		}
	}
	return 0, 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
