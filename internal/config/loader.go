package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (IPCGEN_*)
// 2. Config file (.ipcgen/config.yml or .ipcgen/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".ipcgen")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Enable environment variable overrides
	v.SetEnvPrefix("IPCGEN")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., IPCGEN_RUNTIME_MODULE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("default_namespace")
	v.BindEnv("runtime.module")
	v.BindEnv("capabilities.async_streams")
	v.BindEnv("output.host")
	v.BindEnv("output.client")
	v.BindEnv("output.types")

	setDefaults(v)

	// Config file not found is acceptable, defaults plus env apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("source.include", defaults.Source.Include)
	v.SetDefault("source.ignore", defaults.Source.Ignore)

	v.SetDefault("output.host", defaults.Output.Host)
	v.SetDefault("output.client", defaults.Output.Client)
	v.SetDefault("output.types", defaults.Output.Types)

	v.SetDefault("runtime.module", defaults.Runtime.Module)
	v.SetDefault("capabilities.async_streams", defaults.Capabilities.AsyncStreams)
	v.SetDefault("default_namespace", defaults.DefaultNamespace)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
