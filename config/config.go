// Package config loads the settings of the assist command: the observer,
// the journal and the watches attached to the store. Files are JSON, YAML
// or TOML by extension and are merged onto Default.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/assist/selector"
)

const defaultJournalCapacity = 256

// ErrUnknownFormat is returned by Load for an unsupported file extension.
var ErrUnknownFormat = errors.New("unknown config format")

// Config holds the command's initialization parameters.
type Config struct {
	Name     string        `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Observer string        `json:"observer,omitempty" yaml:"observer,omitempty" toml:"observer"`
	Journal  JournalConfig `json:"journal" yaml:"journal" toml:"journal"`
	Watches  []WatchConfig `json:"watches,omitempty" yaml:"watches,omitempty" toml:"watches"`
}

// JournalConfig sizes the journal and where it is written.
type JournalConfig struct {
	Capacity int    `json:"capacity,omitempty" yaml:"capacity,omitempty" toml:"capacity"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty" toml:"path"` // empty disables saving
	Format   string `json:"format,omitempty" yaml:"format,omitempty" toml:"format"`
}

// WatchConfig declares an assistant reporting changes of an expression
// over the state. Actions restricts reporting to those action types.
type WatchConfig struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Select  string   `json:"select" yaml:"select" toml:"select"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty" toml:"actions"`
}

// Selector compiles the watch expression.
func (w WatchConfig) Selector() (selector.Selector, error) {
	sel, err := selector.Expr(w.Select)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", w.Name, err)
	}
	return sel, nil
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Name:     "assist",
		Observer: "slog",
		Journal: JournalConfig{
			Capacity: defaultJournalCapacity,
			Format:   "json",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	c.Journal.Merge(&source.Journal)

	if len(source.Watches) > 0 {
		c.Watches = source.Watches
	}
}

// Merge applies non-zero values from source into c.
func (c *JournalConfig) Merge(source *JournalConfig) {
	if source.Capacity > 0 {
		c.Capacity = source.Capacity
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Format != "" {
		c.Format = source.Format
	}
}

// Validate checks that every watch is named and its expression compiles.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Watches))
	for i, w := range c.Watches {
		if strings.TrimSpace(w.Name) == "" {
			return fmt.Errorf("watch %d: missing name", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("watch %s: duplicate name", w.Name)
		}
		seen[w.Name] = true

		if _, err := w.Selector(); err != nil {
			return err
		}
	}

	switch c.Journal.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("journal format %q: %w", c.Journal.Format, ErrUnknownFormat)
	}
	return nil
}

// Load reads a config file, merges it with defaults, and returns the
// resulting Config.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, &loaded)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	case ".toml":
		err = toml.Unmarshal(data, &loaded)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
