package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
)

// eventJournal implements driven.EventJournal.
//
// Queryable columns are stored alongside the full JSON payload so
// events can be filtered in SQL and still be reconstructed exactly.
type eventJournal struct {
	store *Store
}

var _ driven.EventJournal = (*eventJournal)(nil)

// Append records one event.
func (j *eventJournal) Append(ctx context.Context, ev domain.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	_, err = j.store.db.ExecContext(ctx, `
		INSERT INTO event_journal
			(spec_id, change_type, file_path, content_hash, source, author, commit_message, timestamp, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.SpecID, string(ev.ChangeType), ev.FilePath, ev.ContentHash,
		string(ev.Source), nullString(ev.Author), nullString(ev.CommitMessage),
		ev.Timestamp, string(payload))
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *eventJournal) Recent(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.store.db.QueryContext(ctx,
		"SELECT payload FROM event_journal ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var events []domain.ChangeEvent //nolint:prealloc // size unknown from query
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		var ev domain.ChangeEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("unmarshalling journal event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return events, nil
}

// nullString converts empty strings to NULL for optional columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
