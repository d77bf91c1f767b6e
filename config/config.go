package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/log"
	"gopkg.in/yaml.v2"
)

const (
	ProtocolHDFS = "hdfs"
	ProtocolQFS  = "qfs"
)

// Configuration represents the complete adapter configuration
type Configuration struct {
	Log       LogConfig                  `yaml:"log"`
	Cache     CacheConfig                `yaml:"cache"`
	Network   NetworkConfig              `yaml:"network"`
	Metrics   MetricsConfig              `yaml:"metrics"`
	Protocols map[string]*ProtocolConfig `yaml:"protocols"`
}

// LogConfig represents logging settings
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	NoTerminal bool   `yaml:"no_terminal"`
	NoColor    bool   `yaml:"no_color"`
}

// CacheConfig represents attribute cache settings
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// NetworkConfig represents connection settings
type NetworkConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MetricsConfig represents prometheus settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Address   string `yaml:"address"`
	Path      string `yaml:"path"`
}

// ProtocolConfig represents the settings of one backend protocol
type ProtocolConfig struct {
	// Directory scanned recursively for backend modules (*.so)
	ModuleDir string `yaml:"module_dir"`
	// Port used when a URL carries none
	StandardPort int `yaml:"standard_port"`
	// Attributes reported for files that do not exist
	DefaultOwner       string `yaml:"default_owner"`
	DefaultGroup       string `yaml:"default_group"`
	DefaultPermissions string `yaml:"default_permissions"`
	// Seeded into the backend configuration object
	Properties map[string]string `yaml:"properties"`
}

// NewDefault creates a configuration with default values
func NewDefault() *Configuration {
	return &Configuration{
		Log: LogConfig{
			Level: "INFO",
		},
		Cache: CacheConfig{
			TTL: 60 * time.Second,
		},
		Network: NetworkConfig{
			ConnectTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "dfs",
			Path:      "/metrics",
		},
		Protocols: map[string]*ProtocolConfig{
			ProtocolHDFS: {
				ModuleDir:    "/usr/lib/dfs/hdfs",
				StandardPort: 8020,
				DefaultGroup: "supergroup",
				Properties:   map[string]string{},
			},
			ProtocolQFS: {
				ModuleDir:          "/usr/lib/dfs/qfs",
				StandardPort:       20000,
				DefaultPermissions: "0664",
				Properties:         map[string]string{},
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the current values
func (c *Configuration) LoadFromFile(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration overrides from environment variables
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("DFS_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("DFS_LOG_FILE"); val != "" {
		c.Log.File = val
	}
	if val := os.Getenv("DFS_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Cache.TTL = duration
		}
	}
	if val := os.Getenv("DFS_CONNECT_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Network.ConnectTimeout = duration
		}
	}
	if val := os.Getenv("DFS_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}
	for name, proto := range c.Protocols {
		key := "DFS_" + strings.ToUpper(name)
		if val := os.Getenv(key + "_MODULE_DIR"); val != "" {
			proto.ModuleDir = val
		}
		if val := os.Getenv(key + "_STANDARD_PORT"); val != "" {
			if port, err := strconv.Atoi(val); err == nil {
				proto.StandardPort = port
			}
		}
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, raw, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	if _, err := log.Parse(c.Log.Level); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.Network.ConnectTimeout <= 0 {
		return fmt.Errorf("network connect_timeout must be greater than 0")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics namespace must be set when metrics are enabled")
	}

	for name, proto := range c.Protocols {
		if proto == nil {
			return fmt.Errorf("protocol '%s' has no settings", name)
		}
		if proto.StandardPort <= 0 || proto.StandardPort > 65535 {
			return fmt.Errorf("protocol '%s' has invalid standard_port %d", name, proto.StandardPort)
		}
		if proto.DefaultPermissions != "" {
			if _, err := data.ParsePermissions(proto.DefaultPermissions); err != nil {
				return fmt.Errorf("protocol '%s': %w", name, err)
			}
		}
	}

	return nil
}

// Protocol returns the settings for name, falling back to the built-in
// defaults when the protocol was not configured.
func (c *Configuration) Protocol(name string) *ProtocolConfig {
	if proto, ok := c.Protocols[name]; ok && proto != nil {
		return proto
	}
	if proto, ok := NewDefault().Protocols[name]; ok {
		return proto
	}
	return &ProtocolConfig{Properties: map[string]string{}}
}

// Permissions returns the configured default permissions, or fallback.
func (p *ProtocolConfig) Permissions(fallback data.Permissions) data.Permissions {
	if p.DefaultPermissions == "" {
		return fallback
	}
	perm, err := data.ParsePermissions(p.DefaultPermissions)
	if err != nil {
		return fallback
	}
	return perm
}

// NewLogger builds the root logger described by the log settings.
func (l *LogConfig) NewLogger(name string) (*log.Logger, error) {
	level, err := log.Parse(l.Level)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger(name, level, l.File, l.NoTerminal)
	logger.JSON = l.JSON
	logger.NoColor = l.NoColor

	return logger, nil
}
