package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/identsvc/nssdirect/pkg/nss"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Logging.Output = %q, want stderr", cfg.Logging.Output)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to false")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  output: stdout
metrics:
  enabled: true
lookup:
  backend: winbind
  initial_buffer_size: 4096
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG (normalized)", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Logging.Output = %q, want stdout", cfg.Logging.Output)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Listen != "127.0.0.1:9347" {
		t.Errorf("Metrics.Listen = %q, want default applied", cfg.Metrics.Listen)
	}

	s, err := LookupSettingsFrom(cfg)
	if err != nil {
		t.Fatalf("LookupSettingsFrom() error: %v", err)
	}
	if s.Backend != "winbind" {
		t.Errorf("Backend = %q, want winbind", s.Backend)
	}
	if s.InitialBufferSize != 4096 {
		t.Errorf("InitialBufferSize = %d, want 4096", s.InitialBufferSize)
	}
	if got := s.PinnedBackend(); got != nss.BackendWinbind {
		t.Errorf("PinnedBackend() = %v, want winbind", got)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with missing file should fall back to defaults, got: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "logging: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail on malformed YAML")
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should reject an unknown log level")
	}
	if !strings.Contains(err.Error(), "validation") {
		t.Errorf("error %q should mention validation", err)
	}
}

func TestLookupSettingsEmptySection(t *testing.T) {
	s, err := LookupSettingsFrom(&Config{})
	if err != nil {
		t.Fatalf("LookupSettingsFrom() error: %v", err)
	}
	if s.Backend != "" || s.InitialBufferSize != 0 || s.MaxBufferSize != 0 {
		t.Errorf("empty section should decode to zero settings, got %+v", s)
	}
	if got := s.PinnedBackend(); got != nss.BackendAny {
		t.Errorf("PinnedBackend() = %v, want any", got)
	}
	if opts := s.ResolverOptions(); len(opts) != 0 {
		t.Errorf("ResolverOptions() = %d options, want none", len(opts))
	}
}

func TestLookupSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		lookup map[string]any
	}{
		{"unknown backend", map[string]any{"backend": "ldap"}},
		{"negative size", map[string]any{"initial_buffer_size": -1}},
		{"initial above max", map[string]any{"initial_buffer_size": 8192, "max_buffer_size": 4096}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LookupSettingsFrom(&Config{Lookup: tt.lookup}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestApplyDefaultsPreservesExplicit(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn", Output: "/var/log/nssdirect.log"},
		Metrics: MetricsConfig{Enabled: true, Listen: "0.0.0.0:9999"},
	}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Level = %q, want WARN", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "/var/log/nssdirect.log" {
		t.Errorf("Output was overwritten: %q", cfg.Logging.Output)
	}
	if cfg.Metrics.Listen != "0.0.0.0:9999" {
		t.Errorf("Listen was overwritten: %q", cfg.Metrics.Listen)
	}
}
