package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when no search directory holds the file.
var ErrNotFound = errors.New("configuration file not found")

// Result pairs a configuration value with whether it was found.
type Result[T any] struct {
	Found bool
	Value T
}

// Or returns the value when found, otherwise def.
func (r Result[T]) Or(def T) T {
	if r.Found {
		return r.Value
	}
	return def
}

// Config is a loaded configuration document.
//
// Config is read-only after Load and safe for concurrent use.
type Config struct {
	path string
	root map[string]any
}

// Load searches dirs in order for name and parses the first file whose root
// is an object. Files that exist but do not parse to an object are skipped.
func Load(name string, dirs []string) (*Config, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		slog.Debug("looking for layer config", "path", path)

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		cfg, err := Parse(data)
		if err != nil {
			slog.Warn("skipping unreadable layer config", "path", path, "error", err)
			continue
		}
		cfg.path = path

		slog.Info("layer config loaded", "path", path)
		return cfg, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Parse decodes a configuration document. The root must be an object.
func Parse(data []byte) (*Config, error) {
	var root any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse config: root is %T, want object", root)
	}

	return &Config{root: obj}, nil
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Root returns the decoded document. Callers must not mutate it.
func (c *Config) Root() map[string]any {
	return c.root
}

// lookupRaw walks a dotted path and returns the addressed value as-is.
func (c *Config) lookupRaw(path string) (any, bool) {
	if c == nil || c.root == nil {
		return nil, false
	}

	var current any = c.root
	for _, item := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = obj[item]; !ok {
			return nil, false
		}
	}
	return current, true
}

// lookup walks a dotted path. An optional index selects an array element
// when the addressed value is an array; without one the first element is
// used.
func (c *Config) lookup(path string, index []int) (any, bool) {
	current, ok := c.lookupRaw(path)
	if !ok {
		return nil, false
	}

	if arr, isArr := current.([]any); isArr {
		i := 0
		if len(index) > 0 {
			i = index[0]
		}
		if i < 0 || i >= len(arr) {
			return nil, false
		}
		current = arr[i]
	}

	return current, true
}

// expandEnv resolves "$VARIABLE[=default]" references. Other strings are
// returned unchanged.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "$") {
		return s
	}

	name, def, _ := strings.Cut(s[1:], "=")
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

// GetString returns the string at path, expanding environment references.
func (c *Config) GetString(path string, index ...int) Result[string] {
	v, ok := c.lookup(path, index)
	if !ok {
		return Result[string]{}
	}
	s, ok := v.(string)
	if !ok {
		return Result[string]{}
	}
	return Result[string]{Found: true, Value: expandEnv(s)}
}

// GetInteger returns the integer at path. String values are expanded and
// parsed.
func (c *Config) GetInteger(path string, index ...int) Result[int] {
	v, ok := c.lookup(path, index)
	if !ok {
		return Result[int]{}
	}
	switch val := v.(type) {
	case int:
		return Result[int]{Found: true, Value: val}
	case float64:
		if val == float64(int(val)) {
			return Result[int]{Found: true, Value: int(val)}
		}
	case string:
		n, err := strconv.Atoi(expandEnv(val))
		if err == nil {
			return Result[int]{Found: true, Value: n}
		}
	}
	return Result[int]{}
}

// GetFloat returns the number at path as a float64.
func (c *Config) GetFloat(path string, index ...int) Result[float64] {
	v, ok := c.lookup(path, index)
	if !ok {
		return Result[float64]{}
	}
	switch val := v.(type) {
	case float64:
		return Result[float64]{Found: true, Value: val}
	case int:
		return Result[float64]{Found: true, Value: float64(val)}
	case string:
		f, err := strconv.ParseFloat(expandEnv(val), 64)
		if err == nil {
			return Result[float64]{Found: true, Value: f}
		}
	}
	return Result[float64]{}
}

// GetBool returns the boolean at path. String values are expanded and
// parsed with strconv.ParseBool.
func (c *Config) GetBool(path string, index ...int) Result[bool] {
	v, ok := c.lookup(path, index)
	if !ok {
		return Result[bool]{}
	}
	switch val := v.(type) {
	case bool:
		return Result[bool]{Found: true, Value: val}
	case string:
		b, err := strconv.ParseBool(expandEnv(val))
		if err == nil {
			return Result[bool]{Found: true, Value: b}
		}
	}
	return Result[bool]{}
}

// Number is the set of element types GetArrayOf can produce from numbers.
type Number interface {
	~int | ~int32 | ~int64 | ~uint32 | ~float32 | ~float64
}

// GetArrayOf returns every element of the array at path converted to T.
// All elements must be numbers; a non-numeric element fails the lookup.
// Environment references are not expanded.
func GetArrayOf[T Number](c *Config, path string) Result[[]T] {
	current, ok := c.lookupRaw(path)
	if !ok {
		return Result[[]T]{}
	}

	arr, ok := current.([]any)
	if !ok || len(arr) == 0 {
		return Result[[]T]{}
	}

	out := make([]T, 0, len(arr))
	for _, elem := range arr {
		switch val := elem.(type) {
		case int:
			out = append(out, T(val))
		case float64:
			out = append(out, T(val))
		default:
			return Result[[]T]{}
		}
	}
	return Result[[]T]{Found: true, Value: out}
}

// GetStrings returns the strings at path, expanding environment references.
// A single string value yields a one-element slice.
func (c *Config) GetStrings(path string) Result[[]string] {
	current, ok := c.lookupRaw(path)
	if !ok {
		return Result[[]string]{}
	}

	switch val := current.(type) {
	case string:
		return Result[[]string]{Found: true, Value: []string{expandEnv(val)}}
	case []any:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			s, ok := elem.(string)
			if !ok {
				return Result[[]string]{}
			}
			out = append(out, expandEnv(s))
		}
		return Result[[]string]{Found: true, Value: out}
	}
	return Result[[]string]{}
}
