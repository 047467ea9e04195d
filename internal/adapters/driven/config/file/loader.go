// Package file loads specsync configuration from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/tessera-labs/specsync/internal/core/domain"
)

// DefaultListen is the API bind address when none is configured.
const DefaultListen = "127.0.0.1:8787"

// Config is the on-disk configuration shape.
type Config struct {
	// Listen is the HTTP API bind address.
	Listen string `toml:"listen"`

	// DataDir holds the sqlite database. Empty selects in-memory
	// storage with no persistence across restarts.
	DataDir string `toml:"data_dir"`

	// Verbose enables diagnostic logging, same as --verbose.
	Verbose bool `toml:"verbose"`

	Sources []Source `toml:"sources"`
}

// Source is one [[sources]] table.
type Source struct {
	// SpecID identifies the spec; derived from Path when empty.
	SpecID string `toml:"spec_id"`

	Type   string `toml:"type"`
	Path   string `toml:"path"`
	Branch string `toml:"branch"`

	// PollingInterval is a Go duration string, e.g. "30s".
	PollingInterval string `toml:"polling_interval"`

	// Enabled defaults to true when omitted.
	Enabled *bool `toml:"enabled"`

	Filters       []string `toml:"filters"`
	WebhookSecret string   `toml:"webhook_secret"`
}

// DefaultPath returns ~/.specsync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".specsync", "config.toml"), nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	return &cfg, nil
}

// ToDomain converts one source table into a validated domain config.
func (s Source) ToDomain() (domain.SourceConfig, error) {
	specID := s.SpecID
	if specID == "" {
		specID = domain.DeriveSpecID(s.Path)
	}

	var interval time.Duration
	if s.PollingInterval != "" {
		var err error
		interval, err = time.ParseDuration(s.PollingInterval)
		if err != nil {
			return domain.SourceConfig{}, fmt.Errorf("source %q: parsing polling_interval: %w", specID, err)
		}
	}

	enabled := true
	if s.Enabled != nil {
		enabled = *s.Enabled
	}

	cfg := domain.SourceConfig{
		SpecID:          specID,
		SourceType:      domain.SourceType(s.Type),
		SourcePath:      s.Path,
		PollingInterval: interval,
		Enabled:         enabled,
		Filters:         s.Filters,
		WebhookSecret:   s.WebhookSecret,
		GitBranch:       s.Branch,
	}
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return domain.SourceConfig{}, fmt.Errorf("source %q: %w", specID, err)
	}
	return cfg, nil
}

// DomainSources converts every source table, failing on the first
// invalid entry.
func (c *Config) DomainSources() ([]domain.SourceConfig, error) {
	out := make([]domain.SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		cfg, err := s.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}
