// Package config holds the ambient settings for the triagec CLI: nothing
// in here touches the rule language itself, only how the tool around it
// behaves (default verbosity, column-name aliasing for the CSV loader).
// Config/DefaultConfig/Apply follow an overlay pattern so a file on disk
// only needs to set the fields it wants to change.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the ambient configuration for the triagec CLI.
type Config struct {
	// Verbose enables debug-level structured logging during eval.
	Verbose bool `yaml:"verbose"`
	// FieldAliases maps an alternate column spelling (as it might appear in
	// a CSV header) to the canonical field name used by rule scripts, so a
	// deployment can point triagec at a CSV without renaming its columns.
	FieldAliases map[string]string `yaml:"fieldAliases"`
}

// DefaultConfig returns a Config with no aliases and verbose logging off.
func DefaultConfig() Config {
	return Config{
		Verbose:      false,
		FieldAliases: map[string]string{},
	}
}

// Apply overrides c's values with any non-zero values set in overlay.
func (c *Config) Apply(overlay Config) {
	if overlay.Verbose {
		c.Verbose = true
	}
	for k, v := range overlay.FieldAliases {
		if c.FieldAliases == nil {
			c.FieldAliases = map[string]string{}
		}
		c.FieldAliases[k] = v
	}
}

// Load reads and parses a YAML config file at path. A missing file is not an
// error — it simply yields an empty overlay, since every field has a usable
// zero value.
func Load(path string) (Config, error) {
	var overlay Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overlay, nil
		}
		return overlay, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return overlay, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return overlay, nil
}

// Canonicalize rewrites any field name in fields known to be an alias (per
// c.FieldAliases) to its canonical spelling, leaving unrecognized names
// untouched.
func (c *Config) Canonicalize(fields map[string]string) map[string]string {
	if len(c.FieldAliases) == 0 {
		return fields
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if canon, ok := c.FieldAliases[k]; ok {
			out[canon] = v
		} else {
			out[k] = v
		}
	}
	return out
}
