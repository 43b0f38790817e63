package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/nvrecord/pkg/persist"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, BackendFlat, config.Backend)
	assert.Empty(t, config.Flat.Path)
	assert.Equal(t, 4096, config.Flat.SectorSize)
	assert.Equal(t, 1024, config.Flat.MaxUsedSize)
	assert.Equal(t, EngineMemory, config.KV.Engine)
	assert.Equal(t, "./data/nvrecord", config.KV.Path)
	assert.Equal(t, "EEP", config.KV.Namespace)
	assert.Equal(t, 0, config.KV.QuotaBytes)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "readwrite", config.Logging.Verbosity)
	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"kv memory", func(c *Config) { c.Backend = BackendKV }, ""},
		{"kv pebble", func(c *Config) { c.Backend = BackendKV; c.KV.Engine = EnginePebble }, ""},
		{"unknown backend", func(c *Config) { c.Backend = "eeprom" }, "unknown backend"},
		{"zero sector", func(c *Config) { c.Flat.SectorSize = 0 }, "flat.sector_size"},
		{"budget past sector", func(c *Config) { c.Flat.MaxUsedSize = 8192 }, "flat.max_used_size"},
		{"unknown engine", func(c *Config) { c.Backend = BackendKV; c.KV.Engine = "bolt" }, "unknown kv.engine"},
		{"sqlite without path", func(c *Config) { c.Backend = BackendKV; c.KV.Engine = EngineSQLite; c.KV.Path = "" }, "kv.path"},
		{"long namespace", func(c *Config) { c.Backend = BackendKV; c.KV.Namespace = "namespace-too-long" }, "kv.namespace"},
		{"negative quota", func(c *Config) { c.Backend = BackendKV; c.KV.QuotaBytes = -1 }, "kv.quota_bytes"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad verbosity", func(c *Config) { c.Logging.Verbosity = "chatty" }, "invalid verbosity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoggingLevels(t *testing.T) {
	level, err := Logging{Level: "debug"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = Logging{Level: "WARN"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	verbosity, err := Logging{}.PersistLevel()
	require.NoError(t, err)
	assert.Equal(t, persist.LogSilent, verbosity)

	verbosity, err = Logging{Verbosity: "verbose"}.PersistLevel()
	require.NoError(t, err)
	assert.Equal(t, persist.LogVerbose, verbosity)
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			Backend: BackendKV,
			Flat: Flat{
				Path:        "/var/lib/nvrec/eeprom.bin",
				SectorSize:  2048,
				MaxUsedSize: 512,
			},
			KV: KV{
				Engine:     EngineSQLite,
				Path:       "/var/lib/nvrec/nvs.db",
				Namespace:  "CFG",
				QuotaBytes: 24576,
			},
			Logging: Logging{
				Level:     "debug",
				Verbosity: "verbose",
			},
		}

		err := SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		err := os.WriteFile(configPath, []byte("backend: kv\nkv:\n  engine: pebble\n"), 0600)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, BackendKV, loadedConfig.Backend)
		assert.Equal(t, EnginePebble, loadedConfig.KV.Engine)
		assert.Equal(t, "EEP", loadedConfig.KV.Namespace)
		assert.Equal(t, 4096, loadedConfig.Flat.SectorSize)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := DefaultConfig()

	err := SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "nvrec")
	assert.Contains(t, path, ".yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err := os.WriteFile(existingPath, []byte("backend: flat"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "backend")
	assert.Contains(t, raw["flat"], "sector_size")
	assert.Contains(t, raw["flat"], "max_used_size")
	assert.Contains(t, raw["kv"], "quota_bytes")
	assert.Contains(t, raw["logging"], "verbosity")
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	err := SaveConfig(config, filepath.Join(blocker, "config.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
