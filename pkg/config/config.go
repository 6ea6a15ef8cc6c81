package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Config is a flat set of named settings. Values are stored as strings and
// parsed on access.
type Config map[string]string

// Scalar is the set of types a Config value can be read as.
type Scalar interface {
	float64 | int | bool | string
}

// New returns an empty Config.
func New() Config {
	return Config{}
}

// HasValue reports whether key is present with a non-empty value.
func (c Config) HasValue(key string) bool {
	return strings.TrimSpace(c[key]) != ""
}

// Value returns the raw value for key, or "" if absent.
func (c Config) Value(key string) string {
	return c[key]
}

// Set stores a raw value. A nil Config panics, as with any map.
func (c Config) Set(key, value string) {
	c[key] = value
}

// Keys returns the keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String renders the config as "k=v" pairs in key order.
func (c Config) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c.Keys() {
		parts = append(parts, k+"="+c[k])
	}
	return strings.Join(parts, " ")
}

// Get reads key as T. The second result is false when the key is absent or
// its value does not parse.
func Get[T Scalar](c Config, key string) (T, bool) {
	var zero T
	if !c.HasValue(key) {
		return zero, false
	}
	v, err := Parse[T](c[key])
	if err != nil {
		return zero, false
	}
	return v, true
}

// GetOptional sets dst from key when the key is present and parses.
// It reports whether dst was updated. Malformed values leave dst untouched.
func GetOptional[T Scalar](c Config, key string, dst *Optional[T]) bool {
	v, ok := Get[T](c, key)
	if !ok {
		return false
	}
	dst.Set(v)
	return true
}

// AddOptional stores o under key only when o is set.
func AddOptional[T Scalar](c Config, key string, o Optional[T]) {
	if v, ok := o.Get(); ok {
		c[key] = Format(v)
	}
}

// Parse converts a raw string to T. Booleans additionally accept
// yes/no and on/off.
func Parse[T Scalar](s string) (T, error) {
	var zero T
	s = strings.TrimSpace(s)

	var v any
	var err error
	switch any(zero).(type) {
	case float64:
		v, err = strconv.ParseFloat(s, 64)
	case int:
		v, err = strconv.Atoi(s)
	case bool:
		v, err = parseBool(s)
	case string:
		v = s
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Format converts a scalar to its stored string form.
func Format[T Scalar](v T) string {
	switch x := any(v).(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
