package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tessera-labs/specsync/internal/core/ports/driven"
)

// writeWait bounds how long a single frame write may take before the
// connection is treated as dead.
const writeWait = 10 * time.Second

// wsSubscriber adapts a websocket connection to driven.Subscriber.
// The broadcaster serialises Send calls, so the write side needs no
// lock of its own; closeOnce guards the teardown paths (failed write,
// reader exit, broadcaster replacement).
type wsSubscriber struct {
	id        string
	conn      *websocket.Conn
	closeOnce sync.Once
}

var _ driven.Subscriber = (*wsSubscriber)(nil)

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (s *wsSubscriber) ID() string { return s.id }

// Send writes one event frame. Any error means the connection is
// unusable and the caller should drop the subscriber.
func (s *wsSubscriber) Send(ctx context.Context, payload []byte) error {
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// readUntilClosed drains inbound frames until the client disconnects.
// Subscribers are write-only; inbound data is discarded.
func (s *wsSubscriber) readUntilClosed() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			_ = s.Close()
			return
		}
	}
}
