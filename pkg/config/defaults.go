package config

import "strings"

// ApplyDefaults fills unspecified fields with sensible defaults. Zero
// values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = "127.0.0.1:9347"
	}
}
