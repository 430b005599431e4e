// Package config loads the shell's YAML configuration.
package config

const (
	DefaultPrompt    = "orsh$ "
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Config mirrors the orsh.yaml document structure.
type Config struct {
	Prompt      string      `yaml:"prompt"`
	HistoryFile string      `yaml:"historyFile"`
	Color       *bool       `yaml:"color"`
	Log         LogSpec     `yaml:"log"`
	Metrics     MetricsSpec `yaml:"metrics"`
}

// LogSpec configures structured logging.
type LogSpec struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// MetricsSpec configures metrics persistence.
type MetricsSpec struct {
	Textfile string `yaml:"textfile" validate:"omitempty,endswith=.prom"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ColorEnabled reports whether the prompt should be colored. Color is on
// unless explicitly disabled.
func (c *Config) ColorEnabled() bool {
	return c.Color == nil || *c.Color
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
