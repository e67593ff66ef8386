// Package config loads the rill runtime configuration from YAML, JSON or TOML files
// with RILL_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RILL_"

// Config is the runtime configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Process ProcessConfig `mapstructure:"process"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig controls the HTTP adapter.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	Buffer          int           `mapstructure:"buffer"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig controls the Redis bridge. An empty Addr disables it.
type RedisConfig struct {
	Addr     string   `mapstructure:"addr"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`
	Prefix   string   `mapstructure:"prefix"`
	Channels []string `mapstructure:"channels"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ProcessConfig points at the allow-list of local commands that can be tailed.
type ProcessConfig struct {
	Sources string `mapstructure:"sources"`
	Dir     string `mapstructure:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			Buffer:          64,
			ShutdownTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Process: ProcessConfig{
			Sources: "rill-sources.yaml",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. The format
// follows the file extension: .json, .toml, or YAML otherwise. A missing file is not
// an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if raw != nil {
			if err := decode(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
			}
		}
	}

	env := envOverrides(os.Environ())
	if redis, ok := env["redis"].(map[string]any); ok {
		if _, ok := redis["channels"]; ok {
			cfg.Redis.Channels = nil
		}
	}
	if err := decode(env, &cfg); err != nil {
		return Config{}, fmt.Errorf("config env override failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".toml":
		_, err = toml.Decode(string(data), &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return raw, nil
}

func decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// envOverrides maps RILL_SECTION_KEY=value entries to {"section": {"key": value}}.
// The first underscore after the prefix separates the section from the key.
func envOverrides(environ []string) map[string]any {
	out := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
		if !ok || !knownSection(section) {
			continue
		}
		m, _ := out[section].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			out[section] = m
		}
		m[key] = value
	}
	return out
}

func knownSection(name string) bool {
	switch name {
	case "log", "http", "redis", "metrics", "process":
		return true
	}
	return false
}

// Validate checks the configuration for values the runtime cannot start with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("config: http.addr must not be empty")
	}
	if c.HTTP.Buffer <= 0 {
		return fmt.Errorf("config: http.buffer must be positive, got %d", c.HTTP.Buffer)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("config: metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}
