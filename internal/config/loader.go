package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// LoadFromPath reads a config file (YAML or JSON) and returns the parsed Config.
// Format is detected by extension (.yaml/.yml → YAML, .json → JSON) or by
// content. A missing file yields Default() without error.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses config from bytes. ext is the file extension for the format
// hint; empty means detect from content.
func Load(data []byte, ext string) (*Config, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}

	var c Config
	switch {
	case ext == ".yaml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case ext == ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	case strings.HasPrefix(strings.TrimSpace(string(data)), "{"):
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	c.applyDefaults()
	return &c, nil
}
