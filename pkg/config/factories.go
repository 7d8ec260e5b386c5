package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/identsvc/nssdirect/pkg/nss"
)

// LookupSettings is the typed form of the free-form lookup section.
type LookupSettings struct {
	// Backend pins every lookup to one backend: files, sss, or winbind.
	// Empty or "any" keeps the fallback chain.
	Backend string `mapstructure:"backend"`

	// InitialBufferSize is the scratch-buffer size reentrant calls start
	// with. Zero keeps the resolver default.
	InitialBufferSize int `mapstructure:"initial_buffer_size"`

	// MaxBufferSize caps the overflow-retry growth. Zero keeps the
	// resolver default.
	MaxBufferSize int `mapstructure:"max_buffer_size"`
}

// LookupSettingsFrom decodes and checks the lookup section of cfg.
func LookupSettingsFrom(cfg *Config) (*LookupSettings, error) {
	var s LookupSettings
	if err := mapstructure.Decode(cfg.Lookup, &s); err != nil {
		return nil, fmt.Errorf("failed to decode lookup config: %w", err)
	}

	if _, ok := nss.ParseBackend(s.Backend); !ok {
		return nil, fmt.Errorf("lookup: unknown backend %q", s.Backend)
	}
	if s.InitialBufferSize < 0 || s.MaxBufferSize < 0 {
		return nil, fmt.Errorf("lookup: buffer sizes must not be negative")
	}
	if s.MaxBufferSize != 0 && s.InitialBufferSize > s.MaxBufferSize {
		return nil, fmt.Errorf("lookup: initial_buffer_size %d exceeds max_buffer_size %d",
			s.InitialBufferSize, s.MaxBufferSize)
	}
	return &s, nil
}

// ResolverOptions converts the settings into resolver construction
// options.
func (s *LookupSettings) ResolverOptions() []nss.Option {
	var opts []nss.Option
	if s.InitialBufferSize > 0 || s.MaxBufferSize > 0 {
		opts = append(opts, nss.WithBufferSizes(s.InitialBufferSize, s.MaxBufferSize))
	}
	return opts
}

// PinnedBackend returns the backend the settings pin lookups to, or
// BackendAny when the fallback chain stays in effect.
func (s *LookupSettings) PinnedBackend() nss.Backend {
	b, _ := nss.ParseBackend(s.Backend)
	return b
}
