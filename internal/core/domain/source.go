package domain

import (
	"path"
	"path/filepath"
	"time"
)

// SourceType identifies how a source is monitored.
type SourceType string

const (
	// SourceTypeGit polls a remote branch head on an interval.
	SourceTypeGit SourceType = "git"

	// SourceTypeFile watches a local directory tree for notifications.
	SourceTypeFile SourceType = "file"

	// SourceTypeWebhook receives pushed provider payloads; nothing to poll.
	SourceTypeWebhook SourceType = "webhook"
)

// DefaultPollingInterval is used for git sources that do not set one.
const DefaultPollingInterval = 30 * time.Second

// DefaultGitBranch is the branch monitored when none is configured.
const DefaultGitBranch = "main"

// SourceConfig describes one monitored change source. Configs are
// created once at registration and are read-only afterwards; replacing
// a source means registering a new config under the same SpecID.
type SourceConfig struct {
	// SpecID identifies the specification this source feeds.
	SpecID string

	// SourceType is git, file or webhook.
	SourceType SourceType

	// SourcePath is the repository location for git sources, the
	// directory root for file sources, or a logical name for webhooks.
	SourcePath string

	// PollingInterval is how often a git source checks its remote head.
	// Ignored for other source types.
	PollingInterval time.Duration

	// Enabled gates whether the orchestrator starts monitoring.
	Enabled bool

	// Filters is an optional path-pattern allow-list applied on top of
	// the built-in spec-file predicate.
	Filters []string

	// WebhookSecret, when set, is used to verify inbound payload
	// signatures for this source.
	WebhookSecret string

	// GitBranch is the remote branch monitored by git sources.
	GitBranch string
}

// Normalise fills in defaults for optional fields.
func (c *SourceConfig) Normalise() {
	if c.PollingInterval <= 0 {
		c.PollingInterval = DefaultPollingInterval
	}
	if c.GitBranch == "" {
		c.GitBranch = DefaultGitBranch
	}
}

// AllowsPath applies the optional filter allow-list. An empty list
// allows everything. Patterns use path.Match syntax and are tried
// against both the slash-normalised path and its base name.
func (c *SourceConfig) AllowsPath(p string) bool {
	if len(c.Filters) == 0 {
		return true
	}
	slashed := filepath.ToSlash(p)
	for _, pattern := range c.Filters {
		if ok, err := path.Match(pattern, slashed); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, path.Base(slashed)); err == nil && ok {
			return true
		}
	}
	return false
}

// Validate checks that the config can be registered.
func (c *SourceConfig) Validate() error {
	if c.SpecID == "" {
		return ErrInvalidConfig
	}
	switch c.SourceType {
	case SourceTypeGit, SourceTypeFile, SourceTypeWebhook:
	default:
		return ErrInvalidConfig
	}
	if c.SourceType != SourceTypeWebhook && c.SourcePath == "" {
		return ErrInvalidConfig
	}
	return nil
}
