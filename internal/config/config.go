package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig      `yaml:"log"`
	Database        DatabaseConfig `yaml:"database"`
	Fetch           FetchConfig    `yaml:"fetch"`
	Runtime         RuntimeConfig  `yaml:"runtime"`
	EventBus        EventBusConfig `yaml:"eventbus"`
	Status          StatusConfig   `yaml:"status"`
	Journal         JournalConfig  `yaml:"journal"`
	Manifest        string         `yaml:"manifest"`
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FetchConfig contains script download settings
type FetchConfig struct {
	Timeout Duration `yaml:"timeout"` // HTTP timeout per script download
	// ScriptDir is the base directory for relative file:// and bare-path
	// resources. Empty means the working directory.
	ScriptDir string `yaml:"script_dir"`
}

// RuntimeConfig contains Lua runtime settings
type RuntimeConfig struct {
	QueueSize int `yaml:"queue_size"` // Work queue size (default: 100)
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// StatusConfig contains status server settings
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// JournalConfig contains load journal settings
type JournalConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GetShutdownTimeout returns the shutdown timeout as time.Duration
func (c *Config) GetShutdownTimeout() time.Duration {
	return c.ShutdownTimeout.Duration()
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./scriptd.sqlite"
	}
	if cfg.Manifest == "" {
		cfg.Manifest = "manifest.yaml"
	}

	// Fetch defaults
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = Duration(30 * time.Second)
	}

	// Runtime defaults
	if cfg.Runtime.QueueSize <= 0 {
		cfg.Runtime.QueueSize = 100
	}

	// Journal defaults
	if cfg.Journal.CleanupInterval == 0 {
		cfg.Journal.CleanupInterval = Duration(24 * time.Hour)
	}
	if cfg.Journal.RetentionDays == 0 {
		cfg.Journal.RetentionDays = 30
	}

	// Status server defaults
	if cfg.Status.Port == 0 {
		cfg.Status.Port = 9090
	}
	if cfg.Status.Host == "" {
		cfg.Status.Host = "0.0.0.0"
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
