// Package git polls a remote branch head and diffs commits to detect
// specification changes. The git binary is driven as an external
// process; its output is parsed, never its on-disk state.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/logger"
	"github.com/tessera-labs/specsync/internal/specfile"
)

// commandTimeout bounds each git invocation so a hung remote cannot
// stall the poll loop indefinitely.
const commandTimeout = 30 * time.Second

// Monitor watches one repository clone for changes on a remote branch.
//
// The only mutable state is the last known commit. It is read and
// written exclusively by the poll goroutine that owns this monitor,
// so it needs no synchronisation.
type Monitor struct {
	repoPath string
	branch   string
	runner   Runner

	lastCommit string
}

// New creates a monitor for a repository clone and branch.
// An empty branch defaults to main.
func New(repoPath, branch string) *Monitor {
	return NewWithRunner(repoPath, branch, execRunner{})
}

// NewWithRunner creates a monitor with a custom command runner.
// Used by tests to script git output.
func NewWithRunner(repoPath, branch string, runner Runner) *Monitor {
	if branch == "" {
		branch = domain.DefaultGitBranch
	}
	return &Monitor{
		repoPath: repoPath,
		branch:   branch,
		runner:   runner,
	}
}

// LastCommit returns the last successfully diffed head, or "" before
// the first successful poll.
func (m *Monitor) LastCommit() string {
	return m.lastCommit
}

// SetLastCommit seeds the commit state, typically from a checkpoint.
func (m *Monitor) SetLastCommit(commit string) {
	m.lastCommit = commit
}

// Check performs one poll. It resolves the current remote head,
// returns no events if it matches the last known commit, and
// otherwise diffs the two commits and emits one event per changed
// specification file, in the diff's file order.
//
// The last known commit advances only after the diff succeeds, so a
// mid-diff failure causes the same range to be reconsidered on the
// next poll (at-least-once delivery). On the very first successful
// poll the head is recorded without emitting events; there is no
// previous commit to diff against.
func (m *Monitor) Check(ctx context.Context) ([]domain.ChangeEvent, error) {
	head, err := m.resolveHead(ctx)
	if err != nil {
		return nil, err
	}

	if head == m.lastCommit {
		return nil, nil
	}

	if m.lastCommit == "" {
		logger.Debug("Baseline for %s at %s", m.repoPath, head)
		m.lastCommit = head
		return nil, nil
	}

	logger.Info("New commit on %s: %s (was %s)", m.repoPath, head, m.lastCommit)

	events, err := m.diffChanges(ctx, m.lastCommit, head)
	if err != nil {
		return nil, err
	}

	m.lastCommit = head
	return events, nil
}

// resolveHead returns the commit the remote branch currently points at.
func (m *Monitor) resolveHead(ctx context.Context) (string, error) {
	out, err := m.run(ctx, "rev-parse", "origin/"+m.branch)
	if err != nil {
		return "", fmt.Errorf("%w: resolve origin/%s: %v", domain.ErrSourceUnavailable, m.branch, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// diffChanges computes the spec-file change events between two commits.
func (m *Monitor) diffChanges(ctx context.Context, oldCommit, newCommit string) ([]domain.ChangeEvent, error) {
	out, err := m.run(ctx, "diff", "--name-status", oldCommit+".."+newCommit)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", oldCommit, newCommit, err)
	}

	message := m.commitMessage(ctx, newCommit)

	var events []domain.ChangeEvent
	for _, entry := range parseNameStatus(string(out)) {
		if !domain.IsSpecFile(entry.path) {
			continue
		}
		events = append(events, m.buildEvent(entry, message))
	}
	return events, nil
}

// buildEvent turns one diff entry into a change event. For
// non-deletions the file is read at the current worktree state and
// hashed; an unreadable file yields an event with no content and an
// empty hash, an unparsable one keeps its hash but drops content.
func (m *Monitor) buildEvent(entry diffEntry, message string) domain.ChangeEvent {
	ev := domain.ChangeEvent{
		SpecID:        domain.DeriveSpecID(entry.path),
		ChangeType:    entry.changeType,
		FilePath:      entry.path,
		Timestamp:     domain.Now(),
		Source:        domain.SourceGit,
		CommitMessage: message,
	}

	if entry.changeType == domain.ChangeDeleted {
		return ev
	}

	raw, err := os.ReadFile(filepath.Join(m.repoPath, entry.path))
	if err != nil {
		logger.Warn("Cannot read %s: %v", entry.path, err)
		return ev
	}
	ev.ContentHash = domain.HashContent(raw)

	content, err := specfile.Parse(entry.path, raw)
	if err != nil {
		logger.Warn("Cannot parse %s: %v", entry.path, err)
		return ev
	}
	ev.Content = content
	return ev
}

// commitMessage fetches the message of a commit; best effort.
func (m *Monitor) commitMessage(ctx context.Context, commit string) string {
	out, err := m.run(ctx, "log", "-1", "--pretty=%B", commit)
	if err != nil {
		logger.Warn("Cannot read commit message for %s: %v", commit, err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

// run invokes git in the repository with a bounded timeout.
func (m *Monitor) run(ctx context.Context, args ...string) ([]byte, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return m.runner.Run(cmdCtx, m.repoPath, args...)
}
