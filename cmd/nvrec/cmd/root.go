package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ssargent/nvrecord/pkg/config"
	"github.com/ssargent/nvrecord/pkg/di"
	"github.com/ssargent/nvrecord/pkg/metrics"
	"github.com/ssargent/nvrecord/pkg/persist"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "dev"

var container = di.NewContainer()

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

// app carries the per-invocation configuration sources
type app struct {
	viper *viper.Viper
}

// NewRootCmd builds the nvrec command tree
func NewRootCmd() *cobra.Command {
	a := &app{viper: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "nvrec",
		Short: "nvrec - NVM record persistence tool",
		Long: `nvrec saves, loads and inspects checksummed records kept in an
emulated EEPROM sector (flat backend) or a namespaced key-value store
(kv backend).

Settings come from the config file, then NVREC_* environment variables
(.env and .env.local are read first), then flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	flags.String("backend", "", "Backend: flat or kv")
	flags.String("flat-path", "", "Sector file for the flat backend (empty keeps it in memory)")
	flags.String("kv-engine", "", "Key-value engine: memory, pebble or sqlite")
	flags.String("kv-path", "", "Database path for the pebble and sqlite engines")
	flags.String("namespace", "", "Key-value namespace")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("verbosity", "", "Record diagnostics: silent, readwrite or verbose")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file when the command finishes")

	rootCmd.AddCommand(
		newSaveCmd(a),
		newLoadCmd(a),
		newInspectCmd(a),
		newEraseCmd(a),
		newSignatureCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig reads env files and binds flags and NVREC_* variables
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	a.viper.SetEnvPrefix("nvrec")
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()

	return a.viper.BindPFlags(cmd.Flags())
}

// config resolves the effective configuration: file, then environment and flags
func (a *app) config() (*config.Config, error) {
	cfg := config.DefaultConfig()

	path := a.viper.GetString("config")
	if path == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		path = config.GetDefaultConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		key string
		dst *string
	}{
		{"backend", &cfg.Backend},
		{"flat-path", &cfg.Flat.Path},
		{"kv-engine", &cfg.KV.Engine},
		{"kv-path", &cfg.KV.Path},
		{"namespace", &cfg.KV.Namespace},
		{"log-level", &cfg.Logging.Level},
		{"verbosity", &cfg.Logging.Verbosity},
	}
	for _, o := range overrides {
		if a.viper.IsSet(o.key) {
			*o.dst = a.viper.GetString(o.key)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withBackend opens the configured backend, runs fn and releases the backend
func (a *app) withBackend(cmd *cobra.Command, fn func(backend *di.Backend, verbosity persist.LogLevel) error) (err error) {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	level, _ := cfg.Logging.SlogLevel()
	verbosity, _ := cfg.Logging.PersistLevel()

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	registry := prometheus.NewRegistry()

	backend, err := container.GetBackendFactory().Open(cfg, di.Options{
		Logger:  logger,
		Metrics: metrics.NewRecorder(registry),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s backend: %w", cfg.Backend, closeErr)
		}
	}()

	err = fn(backend, verbosity)

	if path := a.viper.GetString("metrics-file"); path != "" {
		if writeErr := prometheus.WriteToTextfile(path, registry); writeErr != nil && err == nil {
			err = fmt.Errorf("failed to write metrics: %w", writeErr)
		}
	}
	return err
}
