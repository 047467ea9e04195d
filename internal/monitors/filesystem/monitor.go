// Package filesystem watches a directory tree for specification file
// changes using OS-level notifications.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/logger"
	"github.com/tessera-labs/specsync/internal/specfile"
)

// eventBuffer bounds the pending event queue. When a consumer falls
// this far behind, further notifications are dropped with a warning
// rather than blocking the watcher goroutine.
const eventBuffer = 128

// Monitor converts filesystem notifications under a directory root
// into change events for paths passing the spec-file predicate.
//
// No debouncing is performed: a rapid sequence of writes to one file
// yields one event per notification. Consumers wanting coalescing
// must debounce themselves.
type Monitor struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan domain.ChangeEvent

	closeOnce sync.Once
	closeErr  error
}

// New creates a monitor rooted at dir and starts its watch goroutine.
// The root and all directories below it are watched; directories
// created later are picked up as their create notifications arrive.
func New(dir string) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		root:    dir,
		watcher: watcher,
		events:  make(chan domain.ChangeEvent, eventBuffer),
	}

	if err := m.watchTree(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go m.loop()
	return m, nil
}

// Events returns the channel of detected changes. Closed on Close.
func (m *Monitor) Events() <-chan domain.ChangeEvent {
	return m.events
}

// Close stops the underlying watcher and releases its goroutine.
// The events channel is closed once the goroutine drains.
func (m *Monitor) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.watcher.Close()
	})
	return m.closeErr
}

// watchTree registers dir and every directory below it.
func (m *Monitor) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return m.watcher.Add(path)
		}
		return nil
	})
}

// loop consumes watcher notifications until the watcher closes.
func (m *Monitor) loop() {
	defer close(m.events)

	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error under %s: %v", m.root, err)
		}
	}
}

// handle classifies one notification and emits a change event when the
// path is a specification file.
func (m *Monitor) handle(ev fsnotify.Event) {
	// New directories must be added to the watch set before anything
	// else; fsnotify does not watch recursively on its own.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := m.watcher.Add(ev.Name); err != nil {
				logger.Warn("Cannot watch new directory %s: %v", ev.Name, err)
			}
			return
		}
	}

	changeType, ok := classifyOp(ev.Op)
	if !ok || !domain.IsSpecFile(ev.Name) {
		return
	}

	logger.Info("File %s: %s", changeType, ev.Name)

	select {
	case m.events <- m.buildEvent(ev.Name, changeType):
	default:
		logger.Warn("Event buffer full, dropping %s for %s", changeType, ev.Name)
	}
}

// classifyOp maps a notification kind to a change type.
// Chmod-only notifications carry no content change and are ignored.
func classifyOp(op fsnotify.Op) (domain.ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return domain.ChangeCreated, true
	case op.Has(fsnotify.Write):
		return domain.ChangeModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return domain.ChangeDeleted, true
	default:
		return "", false
	}
}

// buildEvent reads and parses the file for non-deletions. An
// unreadable file yields no content and an empty hash; an unparsable
// one keeps its hash but drops content. The event is emitted either
// way.
func (m *Monitor) buildEvent(path string, changeType domain.ChangeType) domain.ChangeEvent {
	ev := domain.ChangeEvent{
		SpecID:     domain.DeriveSpecID(path),
		ChangeType: changeType,
		FilePath:   path,
		Timestamp:  domain.Now(),
		Source:     domain.SourceFileWatcher,
	}

	if changeType == domain.ChangeDeleted {
		return ev
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Cannot read %s: %v", path, err)
		return ev
	}
	ev.ContentHash = domain.HashContent(raw)

	content, err := specfile.Parse(path, raw)
	if err != nil {
		logger.Warn("Cannot parse %s: %v", path, err)
		return ev
	}
	ev.Content = content
	return ev
}
