package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_String(t *testing.T) {
	c := New(map[string]any{"text": "hello", "num": 3})

	assert.Equal(t, "hello", c.String("text", "fallback"))
	assert.Equal(t, "fallback", c.String("num", "fallback"))
	assert.Equal(t, "fallback", c.String("missing", "fallback"))
}

func TestConfig_Int(t *testing.T) {
	c := New(map[string]any{
		"int":      5,
		"int64":    int64(6),
		"json":     float64(7), // JSON decodes numbers to float64
		"fraction": 7.5,
		"text":     "8",
	})

	assert.Equal(t, 5, c.Int("int", 0))
	assert.Equal(t, 6, c.Int("int64", 0))
	assert.Equal(t, 7, c.Int("json", 0))
	assert.Equal(t, 0, c.Int("fraction", 0))
	assert.Equal(t, 0, c.Int("text", 0))
	assert.Equal(t, 9, c.Int("missing", 9))
}

func TestConfig_BoolAndFloat(t *testing.T) {
	c := New(map[string]any{"flag": true, "temp": 0.7, "count": 2})

	assert.True(t, c.Bool("flag", false))
	assert.False(t, c.Bool("missing", false))
	assert.InDelta(t, 0.7, c.Float("temp", 0), 1e-9)
	assert.InDelta(t, 2.0, c.Float("count", 0), 1e-9)
	assert.InDelta(t, 1.5, c.Float("missing", 1.5), 1e-9)
}

func TestConfig_Duration(t *testing.T) {
	c := New(map[string]any{
		"str":  "30s",
		"int":  10,
		"frac": 1.5,
		"bad":  "not-a-duration",
	})

	assert.Equal(t, 30*time.Second, c.Duration("str", 0))
	assert.Equal(t, 10*time.Second, c.Duration("int", 0))
	assert.Equal(t, 1500*time.Millisecond, c.Duration("frac", 0))
	assert.Equal(t, time.Minute, c.Duration("bad", time.Minute))
	assert.Equal(t, time.Minute, c.Duration("missing", time.Minute))
}

func TestConfig_StringSlice(t *testing.T) {
	c := New(map[string]any{
		"direct": []string{"a", "b"},
		"any":    []any{"c", "d"},
		"mixed":  []any{"e", 1},
	})

	assert.Equal(t, []string{"a", "b"}, c.StringSlice("direct"))
	assert.Equal(t, []string{"c", "d"}, c.StringSlice("any"))
	assert.Nil(t, c.StringSlice("mixed"))
	assert.Nil(t, c.StringSlice("missing"))
}

func TestConfig_MapAndSub(t *testing.T) {
	c := New(map[string]any{
		"nested": map[string]any{"key": "value"},
	})

	assert.Equal(t, "value", c.Sub("nested").String("key", ""))
	assert.Nil(t, c.Map("missing"))
	assert.Equal(t, "d", c.Sub("missing").String("key", "d"))
}

func TestConfig_NilMap(t *testing.T) {
	c := New(nil)
	assert.False(t, c.Has("anything"))
	assert.Equal(t, "d", c.String("anything", "d"))
}

func TestFromYAML(t *testing.T) {
	c, err := FromYAML([]byte("text: hello\ncount: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello", c.String("text", ""))
	assert.Equal(t, 3, c.Int("count", 0))
}

func TestFromJSON(t *testing.T) {
	c, err := FromJSON([]byte(`{"text": "hello", "count": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", c.String("text", ""))
	assert.Equal(t, 3, c.Int("count", 0))
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte(":\n :bad"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "wf.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: test\n"), 0o644))

	c, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "test", c.String("name", ""))

	_, err = FromFile(filepath.Join(dir, "wf.toml"))
	assert.Error(t, err)

	_, err = FromFile(filepath.Join(dir, "does-not-exist.yaml"))
	assert.Error(t, err)
}
