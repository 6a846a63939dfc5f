package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned by FromFile for paths whose extension is
// not .yaml, .yml or .json.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// FromFile loads configuration from a file, picking the parser by extension
// (.yaml, .yml or .json, any case). A leading "~/" is expanded to the user's
// home directory. Empty files yield an empty Config.
func FromFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	parse, err := parserFor(resolved)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", resolved, err)
	}
	return cfg, nil
}

func parserFor(path string) (func([]byte) (Config, error), error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML, nil
	case ".json":
		return FromJSON, nil
	case "":
		return nil, fmt.Errorf("%w: %s has no extension (want .yaml, .yml or .json)", ErrUnsupportedFormat, path)
	default:
		return nil, fmt.Errorf("%w: %q in %s (want .yaml, .yml or .json)", ErrUnsupportedFormat, ext, path)
	}
}

// resolvePath expands "~/" and cleans the result.
func resolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Clean(path), nil
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a single JSON object into a Config. Numbers are kept as
// json.Number so large integers survive the round trip. Trailing data after
// the object is an error.
func FromJSON(data []byte) (Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(nil), nil
	}

	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	if dec.More() {
		return Config{}, errors.New("parse json: unexpected data after top-level object")
	}
	return New(m), nil
}
