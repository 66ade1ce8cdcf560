// Package config wraps loosely-typed maps with safe typed accessors.
// Node configurations arrive as map[string]any from YAML or JSON; Config
// gives node types a uniform way to pull out fields without type switches
// at every call site.
package config

import "time"

// Config wraps a map[string]any. Accessors return the caller's default when
// the key is missing or the value cannot be converted.
type Config struct {
	data map[string]any
}

// New creates a Config from data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Has reports whether key is present, regardless of its type.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the untyped value for key.
func (c Config) Raw(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// String returns the string for key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the bool for key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the int for key, or defaultVal. JSON numbers arrive as
// float64 and are accepted when they have no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// Float returns the float64 for key, or defaultVal.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch v := c.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultVal
}

// Duration returns the duration for key, or defaultVal.
// Strings are parsed with time.ParseDuration; bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	}
	return defaultVal
}

// List returns the []any for key, or nil.
func (c Config) List(key string) []any {
	if l, ok := c.data[key].([]any); ok {
		return l
	}
	return nil
}

// StringSlice returns the value for key as []string. Accepts []string
// directly or []any whose elements are all strings; anything else yields nil.
func (c Config) StringSlice(key string) []string {
	switch v := c.data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

// Map returns the nested map for key, or nil.
func (c Config) Map(key string) map[string]any {
	if m, ok := c.data[key].(map[string]any); ok {
		return m
	}
	return nil
}

// Sub returns the nested map for key wrapped as a Config.
func (c Config) Sub(key string) Config {
	return New(c.Map(key))
}
