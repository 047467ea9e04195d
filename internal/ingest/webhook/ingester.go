// Package webhook converts provider push payloads into change events.
//
// Payloads never carry file bodies, so webhook events always have
// absent content and an empty hash; a consumer wanting content must
// fetch it itself. This asymmetry with git-polled events is
// deliberate and part of the delivery contract.
package webhook

import (
	"encoding/json"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
	"github.com/tessera-labs/specsync/internal/logger"
)

// PushPayload is the provider webhook shape consumed by the ingester.
type PushPayload struct {
	Repository *Repository `json:"repository"`
	Commits    []Commit    `json:"commits"`
}

// Repository identifies the repository the push belongs to.
type Repository struct {
	Name string `json:"name"`
}

// Commit is one pushed commit with its touched file lists.
type Commit struct {
	Modified []string `json:"modified"`
	Added    []string `json:"added"`
	Author   Author   `json:"author"`
	Message  string   `json:"message"`
}

// Author is the commit author as carried in the payload.
type Author struct {
	Name string `json:"name"`
}

// Ensure Ingester implements the interface.
var _ driven.WebhookIngester = (*Ingester)(nil)

// Ingester turns raw provider payloads into change events.
type Ingester struct{}

// NewIngester creates a webhook ingester.
func NewIngester() *Ingester {
	return &Ingester{}
}

// Ingest parses a raw payload and emits one modified event per
// specification file in the union of each commit's modified and added
// lists, preserving payload order. The spec ID is asserted by the
// caller; the payload alone cannot be mapped to a local path.
//
// Returns false for payloads that do not match the expected shape:
// invalid JSON, or a missing repository or commits key. A malformed
// payload yields no events.
func (*Ingester) Ingest(raw []byte, specID string) ([]domain.ChangeEvent, bool) {
	var payload PushPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("Webhook payload is not valid JSON: %v", err)
		return nil, false
	}
	if payload.Repository == nil || payload.Commits == nil {
		return nil, false
	}

	logger.Debug("Webhook push for repository %s (%d commits)",
		payload.Repository.Name, len(payload.Commits))

	var events []domain.ChangeEvent
	for _, commit := range payload.Commits {
		touched := make([]string, 0, len(commit.Modified)+len(commit.Added))
		touched = append(touched, commit.Modified...)
		touched = append(touched, commit.Added...)

		for _, filePath := range touched {
			if !domain.IsSpecFile(filePath) {
				continue
			}
			events = append(events, domain.ChangeEvent{
				SpecID:        specID,
				ChangeType:    domain.ChangeModified,
				FilePath:      filePath,
				Timestamp:     domain.Now(),
				Source:        domain.SourceWebhook,
				Author:        commit.Author.Name,
				CommitMessage: commit.Message,
			})
		}
	}
	return events, true
}
