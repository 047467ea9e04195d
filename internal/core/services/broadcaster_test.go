package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/specsync/internal/core/domain"
)

// fakeSubscriber records delivered payloads and can be made to fail.
type fakeSubscriber struct {
	id      string
	sendErr error

	mu       sync.Mutex
	payloads [][]byte
	closed   bool
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

// fakeJournal records appended events.
type fakeJournal struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (j *fakeJournal) Append(_ context.Context, ev domain.ChangeEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.events = append(j.events, ev)
	return nil
}

func (j *fakeJournal) Recent(_ context.Context, _ int) ([]domain.ChangeEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.ChangeEvent(nil), j.events...), nil
}

func testEvent() domain.ChangeEvent {
	return domain.ChangeEvent{
		SpecID:      "payments",
		ChangeType:  domain.ChangeModified,
		FilePath:    "openapi.yaml",
		ContentHash: "deadbeef",
		Timestamp:   domain.Now(),
		Source:      domain.SourceGit,
	}
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)

	// Broadcasting into the void must not panic or block.
	b.Broadcast(context.Background(), testEvent())
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcaster_DeliversToAllListeners(t *testing.T) {
	b := NewBroadcaster(nil)

	var mu sync.Mutex
	var got []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		b.AddListener(func(_ context.Context, ev domain.ChangeEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+ev.SpecID)
			return nil
		})
	}

	b.Broadcast(context.Background(), testEvent())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first:payments", "second:payments", "third:payments"}, got)
}

func TestBroadcaster_ListenerErrorDoesNotStopDelivery(t *testing.T) {
	b := NewBroadcaster(nil)

	var delivered bool
	b.AddListener(func(context.Context, domain.ChangeEvent) error {
		return errors.New("listener broke")
	})
	b.AddListener(func(context.Context, domain.ChangeEvent) error {
		delivered = true
		return nil
	})

	b.Broadcast(context.Background(), testEvent())
	assert.True(t, delivered, "later listeners still receive the event")
}

func TestBroadcaster_ListenerPanicIsContained(t *testing.T) {
	b := NewBroadcaster(nil)

	var delivered bool
	b.AddListener(func(context.Context, domain.ChangeEvent) error {
		panic("listener exploded")
	})
	b.AddListener(func(context.Context, domain.ChangeEvent) error {
		delivered = true
		return nil
	})

	require.NotPanics(t, func() {
		b.Broadcast(context.Background(), testEvent())
	})
	assert.True(t, delivered)
}

func TestBroadcaster_PrunesFailedSubscriberOnly(t *testing.T) {
	b := NewBroadcaster(nil)

	healthy1 := &fakeSubscriber{id: "healthy-1"}
	broken := &fakeSubscriber{id: "broken", sendErr: errors.New("connection reset")}
	healthy2 := &fakeSubscriber{id: "healthy-2"}
	b.AddSubscriber(healthy1)
	b.AddSubscriber(broken)
	b.AddSubscriber(healthy2)

	b.Broadcast(context.Background(), testEvent())

	assert.Equal(t, 2, b.SubscriberCount(), "only the failed subscriber is removed")
	assert.Equal(t, 1, healthy1.received())
	assert.Equal(t, 1, healthy2.received())
	assert.True(t, broken.closed)

	// The pruned subscriber stays gone on the next broadcast.
	b.Broadcast(context.Background(), testEvent())
	assert.Equal(t, 2, healthy1.received())
	assert.Equal(t, 0, broken.received())
}

func TestBroadcaster_WireEnvelope(t *testing.T) {
	b := NewBroadcaster(nil)
	sub := &fakeSubscriber{id: "sub"}
	b.AddSubscriber(sub)

	ev := testEvent()
	ev.Author = "dev"
	ev.CommitMessage = "update spec"
	b.Broadcast(context.Background(), ev)

	require.Equal(t, 1, sub.received())

	var frame struct {
		Type string             `json:"type"`
		Data domain.ChangeEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(sub.payloads[0], &frame))
	assert.Equal(t, "spec_change", frame.Type)
	assert.Equal(t, "payments", frame.Data.SpecID)
	assert.Equal(t, domain.ChangeModified, frame.Data.ChangeType)
	assert.Equal(t, "deadbeef", frame.Data.ContentHash)
	assert.Equal(t, "dev", frame.Data.Author)
	assert.Equal(t, "update spec", frame.Data.CommitMessage)
}

func TestBroadcaster_ReplacesSubscriberWithSameID(t *testing.T) {
	b := NewBroadcaster(nil)

	old := &fakeSubscriber{id: "conn"}
	replacement := &fakeSubscriber{id: "conn"}
	b.AddSubscriber(old)
	b.AddSubscriber(replacement)

	assert.Equal(t, 1, b.SubscriberCount())
	assert.True(t, old.closed, "replaced connection is closed")

	b.Broadcast(context.Background(), testEvent())
	assert.Equal(t, 0, old.received())
	assert.Equal(t, 1, replacement.received())
}

func TestBroadcaster_RemoveSubscriber(t *testing.T) {
	b := NewBroadcaster(nil)
	sub := &fakeSubscriber{id: "sub"}
	b.AddSubscriber(sub)

	b.RemoveSubscriber("sub")
	assert.Equal(t, 0, b.SubscriberCount())
	assert.True(t, sub.closed)

	// Removing an unknown ID is a no-op.
	b.RemoveSubscriber("ghost")
}

func TestBroadcaster_JournalsEveryEvent(t *testing.T) {
	journal := &fakeJournal{}
	b := NewBroadcaster(journal)

	b.Broadcast(context.Background(), testEvent())
	b.Broadcast(context.Background(), testEvent())

	events, err := journal.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestBroadcaster_JournalFailureDoesNotBlockDelivery(t *testing.T) {
	journal := &fakeJournal{err: errors.New("disk full")}
	b := NewBroadcaster(journal)
	sub := &fakeSubscriber{id: "sub"}
	b.AddSubscriber(sub)

	b.Broadcast(context.Background(), testEvent())
	assert.Equal(t, 1, sub.received())
}
