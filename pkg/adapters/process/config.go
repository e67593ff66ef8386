package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProcessConfig describes an allow-listed command whose output can be streamed.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of a sources file.
type ConfigFile struct {
	Sources []ProcessConfig `yaml:"sources" json:"sources"`
}

// LoadSources reads a sources file (YAML or JSON) keyed by source name.
// A missing file yields an empty map. Entries without a name or command, with a
// command that carries its own flags, or declared twice are rejected.
func LoadSources(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read sources config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	sources := make(map[string]ProcessConfig, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if err := src.validate(); err != nil {
			return nil, fmt.Errorf("%s: source #%d: %w", path, i+1, err)
		}
		if _, dup := sources[src.Name]; dup {
			return nil, fmt.Errorf("%s: source %q declared twice", path, src.Name)
		}
		sources[src.Name] = src
	}
	return sources, nil
}

func (c ProcessConfig) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("source %q: command is required", c.Name)
	}
	if strings.ContainsAny(c.Command, " \t\n") {
		return fmt.Errorf("source %q: command %q must be a single executable, put flags in args", c.Name, c.Command)
	}
	for k := range c.Environment {
		if k == "" || strings.ContainsAny(k, "= ") {
			return fmt.Errorf("source %q: invalid env name %q", c.Name, k)
		}
	}
	return nil
}
