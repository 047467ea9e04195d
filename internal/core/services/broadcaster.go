package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
	"github.com/tessera-labs/specsync/internal/core/ports/driving"
	"github.com/tessera-labs/specsync/internal/logger"
)

// envelope is the wire frame delivered to streaming subscribers.
type envelope struct {
	Type string             `json:"type"`
	Data domain.ChangeEvent `json:"data"`
}

// envelopeType identifies specification change frames on the wire.
const envelopeType = "spec_change"

// Broadcaster fans one change event out to every registered listener
// and every live streaming subscriber.
//
// The subscriber set is the only state mutated from multiple
// goroutines (connects, broadcasts, prunes); all access goes through
// one mutex, which also serialises frame writes so two concurrent
// broadcasts cannot interleave on a single connection.
type Broadcaster struct {
	mu          sync.Mutex
	listeners   []driving.ChangeListener
	subscribers map[string]driven.Subscriber

	// journal is optional; nil disables event recording.
	journal driven.EventJournal
}

// NewBroadcaster creates a broadcaster with no listeners or
// subscribers. The journal may be nil.
func NewBroadcaster(journal driven.EventJournal) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]driven.Subscriber),
		journal:     journal,
	}
}

// AddListener registers a callback invoked with each event.
func (b *Broadcaster) AddListener(fn driving.ChangeListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// AddSubscriber registers a streaming connection. A subscriber whose
// ID collides with an existing one replaces it; the old connection is
// closed.
func (b *Broadcaster) AddSubscriber(sub driven.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subscribers[sub.ID()]; ok {
		_ = old.Close()
	}
	b.subscribers[sub.ID()] = sub
	logger.Info("Subscriber %s connected (%d live)", sub.ID(), len(b.subscribers))
}

// RemoveSubscriber drops a connection from the live set.
// Unknown IDs are ignored.
func (b *Broadcaster) RemoveSubscriber(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		_ = sub.Close()
		logger.Info("Subscriber %s removed (%d live)", id, len(b.subscribers))
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Broadcast delivers one event to all listeners and subscribers.
// Listener failures are logged and skipped; a subscriber whose write
// fails is pruned from the live set. No failure propagates to the
// caller.
func (b *Broadcaster) Broadcast(ctx context.Context, ev domain.ChangeEvent) {
	logger.Info("Broadcasting %s change for spec %s from %s", ev.ChangeType, ev.SpecID, ev.Source)

	if b.journal != nil {
		if err := b.journal.Append(ctx, ev); err != nil {
			log.Printf("broadcaster: journal append failed: %v", err)
		}
	}

	b.mu.Lock()
	listeners := make([]driving.ChangeListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		b.invoke(ctx, fn, ev)
	}

	payload, err := json.Marshal(envelope{Type: envelopeType, Data: ev})
	if err != nil {
		log.Printf("broadcaster: marshal event for spec %s: %v", ev.SpecID, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		if err := sub.Send(ctx, payload); err != nil {
			log.Printf("broadcaster: subscriber %s write failed, pruning: %v", id, err)
			delete(b.subscribers, id)
			_ = sub.Close()
		}
	}
}

// invoke runs one listener, containing any error or panic so the
// remaining listeners still receive the event.
func (b *Broadcaster) invoke(ctx context.Context, fn driving.ChangeListener, ev domain.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("broadcaster: listener panicked for spec %s: %v", ev.SpecID, r)
		}
	}()

	if err := fn(ctx, ev); err != nil {
		log.Printf("broadcaster: listener failed for spec %s: %v", ev.SpecID, err)
	}
}
