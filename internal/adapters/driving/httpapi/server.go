// Package httpapi exposes the sync engine over HTTP: provider webhooks
// come in, websocket event streams go out.
package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
	"github.com/tessera-labs/specsync/internal/core/ports/driving"
	"github.com/tessera-labs/specsync/internal/logger"
)

const (
	// maxWebhookBody bounds inbound payload size (1 MiB).
	maxWebhookBody = 1 << 20

	// signatureHeader carries the provider's HMAC of the body.
	signatureHeader = "X-Hub-Signature-256"
)

// Config holds server tuning knobs.
type Config struct {
	// WebhooksPerSecond is the sustained inbound webhook rate.
	WebhooksPerSecond float64
	// WebhookBurst is the maximum webhook burst size.
	WebhookBurst int
}

// DefaultConfig is generous enough for CI-driven pushes while keeping
// a runaway provider from flooding the engine.
var DefaultConfig = Config{WebhooksPerSecond: 10, WebhookBurst: 20}

// Server routes webhook deliveries into the orchestrator and upgrades
// websocket clients into event subscribers.
type Server struct {
	orch    driving.SyncOrchestrator
	configs driven.SourceConfigStore
	journal driven.EventJournal
	limiter *rate.Limiter
}

// NewServer creates a server. The journal may be nil, in which case
// GET /events reports an empty history.
func NewServer(orch driving.SyncOrchestrator, configs driven.SourceConfigStore, journal driven.EventJournal, cfg Config) *Server {
	if cfg.WebhooksPerSecond <= 0 {
		cfg.WebhooksPerSecond = DefaultConfig.WebhooksPerSecond
	}
	if cfg.WebhookBurst <= 0 {
		cfg.WebhookBurst = DefaultConfig.WebhookBurst
	}
	return &Server{
		orch:    orch,
		configs: configs,
		journal: journal,
		limiter: rate.NewLimiter(rate.Limit(cfg.WebhooksPerSecond), cfg.WebhookBurst),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/{spec_id}", s.handleWebhook)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	specID := r.PathValue("spec_id")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if err := s.verifySignature(r, specID, body); err != nil {
		logger.Warn("Webhook signature rejected for spec %s: %v", specID, err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if !s.orch.SubmitWebhook(r.Context(), body, specID) {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// verifySignature checks the request HMAC against the source's shared
// secret. Sources without a secret accept unsigned deliveries.
func (s *Server) verifySignature(r *http.Request, specID string, body []byte) error {
	if s.configs == nil {
		return nil
	}
	cfg, err := s.configs.Get(r.Context(), specID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && cfg.WebhookSecret == "") {
		return nil
	}
	if err != nil {
		return err
	}

	got := r.Header.Get(signatureHeader)
	if got == "" {
		return errors.New("missing signature header")
	}

	mac := hmac.New(sha256.New, []byte(cfg.WebhookSecret))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return errors.New("signature mismatch")
	}
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := newWSSubscriber(conn)
	s.orch.AcceptSubscriber(sub)
	logger.Debug("Websocket subscriber %s connected from %s", sub.ID(), r.RemoteAddr)

	// The read loop only watches for the client going away. A closed
	// connection fails the next broadcast write, which prunes the
	// subscriber.
	go sub.readUntilClosed()
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events := []domain.ChangeEvent{}
	if s.journal != nil {
		recent, err := s.journal.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recent != nil {
			events = recent
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"events": events})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("HTTP API listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
