package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/nvrecord/pkg/persist"
	"github.com/ssargent/nvrecord/pkg/store"
)

// Backend names
const (
	BackendFlat = "flat"
	BackendKV   = "kv"
)

// Key-value engine names
const (
	EngineMemory = "memory"
	EnginePebble = "pebble"
	EngineSQLite = "sqlite"
)

// Config represents the nvrec configuration
type Config struct {
	Backend string  `yaml:"backend"`
	Flat    Flat    `yaml:"flat"`
	KV      KV      `yaml:"kv"`
	Logging Logging `yaml:"logging"`
}

// Flat configures the flat byte-store backend
type Flat struct {
	Path        string `yaml:"path"` // empty keeps the sector in memory
	SectorSize  int    `yaml:"sector_size"`
	MaxUsedSize int    `yaml:"max_used_size"`
}

// KV configures the key-value backend
type KV struct {
	Engine     string `yaml:"engine"`
	Path       string `yaml:"path"`
	Namespace  string `yaml:"namespace"`
	QuotaBytes int    `yaml:"quota_bytes"`
}

// Logging contains logging configuration
type Logging struct {
	Level     string `yaml:"level"`
	Verbosity string `yaml:"verbosity"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendFlat,
		Flat: Flat{
			SectorSize:  4096,
			MaxUsedSize: 1024,
		},
		KV: KV{
			Engine:    EngineMemory,
			Path:      "./data/nvrecord",
			Namespace: persist.DefaultNamespace,
		},
		Logging: Logging{
			Level:     "info",
			Verbosity: persist.LogReadWrite.String(),
		},
	}
}

// Validate checks the configuration for values the backends cannot use
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFlat:
		if c.Flat.SectorSize <= 0 {
			return fmt.Errorf("flat.sector_size must be positive, got %d", c.Flat.SectorSize)
		}
		if c.Flat.MaxUsedSize < 0 || c.Flat.MaxUsedSize > c.Flat.SectorSize {
			return fmt.Errorf("flat.max_used_size must be between 0 and %d, got %d", c.Flat.SectorSize, c.Flat.MaxUsedSize)
		}
	case BackendKV:
		switch c.KV.Engine {
		case EngineMemory:
		case EnginePebble, EngineSQLite:
			if c.KV.Path == "" {
				return fmt.Errorf("kv.path is required for the %s engine", c.KV.Engine)
			}
		default:
			return fmt.Errorf("unknown kv.engine %q: must be one of %s, %s, %s", c.KV.Engine, EngineMemory, EnginePebble, EngineSQLite)
		}
		if c.KV.Namespace == "" || len(c.KV.Namespace) > store.MaxNamespaceLength {
			return fmt.Errorf("kv.namespace must be 1 to %d bytes, got %q", store.MaxNamespaceLength, c.KV.Namespace)
		}
		if c.KV.QuotaBytes < 0 {
			return fmt.Errorf("kv.quota_bytes must not be negative, got %d", c.KV.QuotaBytes)
		}
	default:
		return fmt.Errorf("unknown backend %q: must be %s or %s", c.Backend, BackendFlat, BackendKV)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.Logging.PersistLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts the configured log level
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level %q: %w", l.Level, err)
	}
	return level, nil
}

// PersistLevel converts the configured save/load verbosity. Empty means silent.
func (l Logging) PersistLevel() (persist.LogLevel, error) {
	if l.Verbosity == "" {
		return persist.LogSilent, nil
	}
	return persist.ParseLogLevel(l.Verbosity)
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// unset keys keep their defaults
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./nvrec.yaml"
	}

	// For Linux/macOS, use ~/.config/nvrec/config.yaml
	return filepath.Join(homeDir, ".config", "nvrec", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
