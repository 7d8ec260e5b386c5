// Package config loads the nssdirect CLI configuration.
//
// The lookup core itself takes options programmatically and reads no
// configuration: the backend set and plugin paths are compile-time
// constants. This package only configures the surrounding tool — logging,
// metrics, and lookup tuning.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete CLI configuration.
//
// Sources, in order of precedence:
//  1. Environment variables (NSSDIRECT_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics controls the optional Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Lookup is the free-form lookup tuning section, decoded by
	// LookupSettingsFrom
	Lookup map[string]any `mapstructure:"lookup"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection on
	Enabled bool `mapstructure:"enabled"`

	// Listen is the address the /metrics endpoint binds to while a
	// long-running command (users/groups enumeration) is in flight
	Listen string `mapstructure:"listen" validate:"required_with=Enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath uses the default location and tolerates a missing
// file; an explicit path that cannot be read is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable support and the config file
// location. Environment variables use the NSSDIRECT_ prefix, for example
// NSSDIRECT_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NSSDIRECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is fine; the defaults cover everything.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDir returns XDG_CONFIG_HOME/nssdirect, falling back to
// ~/.config/nssdirect, or the current directory as a last resort.
func configDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nssdirect")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nssdirect")
}
