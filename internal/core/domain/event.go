package domain

import (
	"crypto/md5" //nolint:gosec // Not used for security, only for stable IDs
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// ChangeType classifies what happened to a specification file.
type ChangeType string

const (
	// ChangeCreated indicates a new specification file.
	ChangeCreated ChangeType = "created"

	// ChangeModified indicates an updated specification file.
	ChangeModified ChangeType = "modified"

	// ChangeDeleted indicates a removed specification file.
	ChangeDeleted ChangeType = "deleted"
)

// EventSource identifies which monitor produced an event.
type EventSource string

const (
	// SourceGit marks events produced by polling a git remote.
	SourceGit EventSource = "git"

	// SourceFileWatcher marks events produced by filesystem notifications.
	SourceFileWatcher EventSource = "file_watcher"

	// SourceWebhook marks events produced from an inbound provider payload.
	SourceWebhook EventSource = "webhook"

	// SourceManual marks events injected directly by a caller.
	SourceManual EventSource = "manual"
)

// ChangeEvent is the immutable record of one detected change to an
// API specification. All monitors normalise their findings into this
// shape before handing them to the broadcaster.
type ChangeEvent struct {
	// SpecID is a stable identifier for the specification.
	// Derived from the file path for git and file sources;
	// supplied by the caller for webhook sources.
	SpecID string `json:"spec_id"`

	// ChangeType is created, modified or deleted.
	ChangeType ChangeType `json:"change_type"`

	// FilePath is the path of the affected file, relative to the
	// repository root for git sources and absolute for file sources.
	FilePath string `json:"file_path"`

	// Content is the parsed specification document. Nil for deletions,
	// for unparsable files and for webhook events (the payload does not
	// carry file bodies).
	Content map[string]any `json:"content"`

	// ContentHash is the hex SHA-256 digest of the raw file bytes.
	// Empty for deletions and whenever the bytes could not be read.
	ContentHash string `json:"hash"`

	// Timestamp is seconds since the Unix epoch, set at detection time.
	Timestamp float64 `json:"timestamp"`

	// Source identifies the producing monitor.
	Source EventSource `json:"source"`

	// Author is the commit author, when known.
	Author string `json:"author,omitempty"`

	// CommitMessage is the message of the commit that introduced the
	// change, when known.
	CommitMessage string `json:"commit_message,omitempty"`
}

// Validate checks the structural invariants of an event.
// A deleted event must not carry content or a content hash.
func (e *ChangeEvent) Validate() error {
	if e.SpecID == "" {
		return ErrInvalidEvent
	}
	switch e.ChangeType {
	case ChangeCreated, ChangeModified, ChangeDeleted:
	default:
		return ErrInvalidEvent
	}
	if e.ChangeType == ChangeDeleted && (e.Content != nil || e.ContentHash != "") {
		return ErrInvalidEvent
	}
	return nil
}

// DeriveSpecID produces the stable identifier for a specification file.
// The same path always maps to the same ID across runs. Paths are
// normalised to forward slashes first so IDs match between a git diff
// (always slash-separated) and the local filesystem.
func DeriveSpecID(path string) string {
	normalised := filepath.ToSlash(path)
	sum := md5.Sum([]byte(normalised)) //nolint:gosec // Stable ID, not a security boundary
	return hex.EncodeToString(sum[:])
}

// HashContent computes the hex SHA-256 digest of raw specification
// bytes. Identical bytes always produce identical digests, which is
// what makes change detection idempotent.
func HashContent(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Now returns the current time as seconds since the Unix epoch.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// IsSpecFile reports whether a path looks like an API specification:
// a JSON or YAML document whose path mentions an API-description
// keyword. The check is purely lexical; content is never inspected.
func IsSpecFile(path string) bool {
	lower := strings.ToLower(path)
	switch filepath.Ext(lower) {
	case ".json", ".yaml", ".yml":
	default:
		return false
	}
	return strings.Contains(lower, "openapi") ||
		strings.Contains(lower, "swagger") ||
		strings.Contains(lower, "api")
}
