package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvLogLevel        = "ORSH_LOG_LEVEL"
	EnvLogFormat       = "ORSH_LOG_FORMAT"
	EnvHistoryFile     = "ORSH_HISTORY_FILE"
	EnvMetricsTextfile = "ORSH_METRICS_TEXTFILE"
	EnvColor           = "ORSH_COLOR"
)

// Load reads the configuration at path. An empty path yields the defaults.
// Environment overrides, defaults and validation are applied in that order.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		if err := decodeFile(absPath, &cfg); err != nil {
			return nil, err
		}
		cfg.resolvePaths(filepath.Dir(absPath))
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

// resolvePaths expands environment references and makes relative paths
// relative to the directory holding the config file.
func (c *Config) resolvePaths(base string) {
	c.HistoryFile = resolvePath(base, c.HistoryFile)
	c.Metrics.Textfile = resolvePath(base, c.Metrics.Textfile)
}

func (c *Config) applyEnv() error {
	if value := os.Getenv(EnvLogLevel); value != "" {
		c.Log.Level = strings.ToLower(value)
	}
	if value := os.Getenv(EnvLogFormat); value != "" {
		c.Log.Format = strings.ToLower(value)
	}
	if value := os.Getenv(EnvHistoryFile); value != "" {
		c.HistoryFile = os.ExpandEnv(value)
	}
	if value := os.Getenv(EnvMetricsTextfile); value != "" {
		c.Metrics.Textfile = os.ExpandEnv(value)
	}
	if value := os.Getenv(EnvColor); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvColor, err)
		}
		c.Color = &enabled
	}
	return nil
}

func resolvePath(base, value string) string {
	if value == "" {
		return ""
	}
	expanded := os.ExpandEnv(value)
	if strings.HasPrefix(expanded, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(home, expanded[2:])
		}
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded)
	}
	return filepath.Clean(filepath.Join(base, expanded))
}
