package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by path's extension, defaulting to
// JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func (f Format) ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode serializes entries in format f.
func Encode(entries []Entry, f Format) ([]byte, error) {
	switch f {
	case FormatJSON, "":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		return data, nil
	case FormatYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
}

// Decode parses entries previously written by Encode.
func Decode(data []byte, f Format) ([]Entry, error) {
	var entries []Entry
	switch f {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
	return entries, nil
}

// MarshalJSON exports the retained entries as a JSON array.
func (j *Journal) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Entries())
}

// MarshalYAML exports the retained entries as a YAML sequence.
func (j *Journal) MarshalYAML() (any, error) {
	return j.Entries(), nil
}

// Save writes the retained entries to path, encoded by its extension. The
// file is replaced atomically.
func (j *Journal) Save(path string) error {
	data, err := Encode(j.Entries(), FormatOf(path))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	return writeFile(path, data)
}
