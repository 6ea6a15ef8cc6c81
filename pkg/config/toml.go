package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// RootSection names the section holding top-level keys that are not inside
// any TOML table.
const RootSection = ""

// Document is a parsed TOML file: one Config per table.
type Document map[string]Config

// Section returns the named table. A missing table yields an empty Config,
// never nil, so callers can read from it without checks.
func (d Document) Section(name string) Config {
	if c, ok := d[name]; ok && c != nil {
		return c
	}
	return New()
}

// SetSection replaces the named table.
func (d Document) SetSection(name string, c Config) {
	d[name] = c
}

// Decode reads a TOML document. Nested tables below the first level and
// arrays are flattened with fmt formatting.
func Decode(r io.Reader) (Document, error) {
	var raw map[string]any
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	doc := Document{}
	for key, val := range raw {
		table, ok := val.(map[string]any)
		if !ok {
			if doc[RootSection] == nil {
				doc[RootSection] = New()
			}
			doc[RootSection][key] = stringify(val)
			continue
		}
		c := New()
		for k, v := range table {
			c[k] = stringify(v)
		}
		doc[key] = c
	}
	return doc, nil
}

// Load reads and decodes the TOML file at path.
func Load(path string) (Document, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Encode writes the document as TOML. Values that look like numbers or
// booleans are written as such so the file stays idiomatic.
func (d Document) Encode(w io.Writer) error {
	out := make(map[string]any, len(d))
	for name, c := range d {
		if name == RootSection {
			for k, v := range c {
				out[k] = typed(v)
			}
			continue
		}
		table := make(map[string]any, len(c))
		for k, v := range c {
			table[k] = typed(v)
		}
		out[name] = table
	}
	return toml.NewEncoder(w).Encode(out)
}

// Save writes the document to path, creating parent directories.
func (d Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func typed(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
