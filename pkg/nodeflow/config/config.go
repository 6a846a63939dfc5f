package config

import (
	"encoding/json"
	"strconv"
	"time"
)

// Config wraps a node's raw option map (as it arrives from the editor or a
// graph file) and extracts typed values. Accessors never fail: a missing key
// or an unusable value yields the supplied default.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// NonEmptyString is like String but also falls back when the stored value
// is the empty string. Editors tend to persist cleared fields as "".
func (c Config) NonEmptyString(key, defaultVal string) string {
	if s := c.String(key, ""); s != "" {
		return s
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64, json.Number: interpreted as seconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case time.Duration:
		return val
	default:
		if f, ok := toFloat(val); ok {
			return time.Duration(f * float64(time.Second))
		}
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing.
// The strings "true" and "false" are accepted since form inputs often
// serialise checkboxes that way.
func (c Config) Bool(key string, defaultVal bool) bool {
	switch val := c.data[key].(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
// Floats are only accepted when they have no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case string:
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	default:
		if f, ok := toFloat(val); ok && f == float64(int(f)) {
			return int(f)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not convertible.
func (c Config) Float(key string, defaultVal float64) float64 {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if s, isString := v.(string); isString {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return defaultVal
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return defaultVal
}

// StringMap returns a map of string values for key (used for request headers).
// Non-string entries are skipped. Returns nil when the key is missing or is
// not a map.
func (c Config) StringMap(key string) map[string]string {
	var out map[string]string
	switch val := c.data[key].(type) {
	case map[string]string:
		out = make(map[string]string, len(val))
		for k, v := range val {
			out[k] = v
		}
	case map[string]any:
		out = make(map[string]string, len(val))
		for k, v := range val {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

// Any returns the raw value for key, or defaultVal if missing.
func (c Config) Any(key string, defaultVal any) any {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	return v
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}
	return 0, false
}
