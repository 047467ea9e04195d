package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
	"github.com/tessera-labs/specsync/internal/core/ports/driving"
	"github.com/tessera-labs/specsync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator owns one monitor per registered source, runs the
// polling schedule and is the single entry point used by external
// collaborators. Events from every monitor flow into the broadcaster.
//
// Lifecycle: Stopped (initial) -> Running (Start) -> Stopped (Stop).
// One goroutine per enabled git source polls at that source's
// interval; file sources forward filesystem notifications as they
// arrive; webhook sources produce events only through SubmitWebhook.
type SyncOrchestrator struct {
	configStore driven.SourceConfigStore
	factory     driven.MonitorFactory
	ingester    driven.WebhookIngester
	broadcaster *Broadcaster

	// checkpoints is optional; nil disables durable commit state.
	checkpoints driven.CheckpointStore

	mu           sync.Mutex
	running      bool
	runCtx       context.Context
	stopCh       chan struct{}
	wg           sync.WaitGroup
	sourceStops  map[string]chan struct{}
	fileMonitors map[string]driven.FileMonitor
}

// NewSyncOrchestrator creates an orchestrator. The checkpoint store
// may be nil, in which case git monitors re-baseline on restart.
func NewSyncOrchestrator(
	configStore driven.SourceConfigStore,
	factory driven.MonitorFactory,
	ingester driven.WebhookIngester,
	broadcaster *Broadcaster,
	checkpoints driven.CheckpointStore,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		configStore:  configStore,
		factory:      factory,
		ingester:     ingester,
		broadcaster:  broadcaster,
		checkpoints:  checkpoints,
		sourceStops:  make(map[string]chan struct{}),
		fileMonitors: make(map[string]driven.FileMonitor),
	}
}

// RegisterSource adds or replaces a monitored source. If monitoring is
// running, the source is (re)started immediately.
func (o *SyncOrchestrator) RegisterSource(ctx context.Context, cfg domain.SourceConfig) error {
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("register source %q: %w", cfg.SpecID, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.configStore.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save source %q: %w", cfg.SpecID, err)
	}
	logger.Info("Registered %s source for spec %s", cfg.SourceType, cfg.SpecID)

	if o.running {
		o.stopSourceLocked(cfg.SpecID)
		o.startSourceLocked(cfg)
	}
	return nil
}

// AddChangeListener registers a callback invoked with each event.
func (o *SyncOrchestrator) AddChangeListener(fn driving.ChangeListener) {
	o.broadcaster.AddListener(fn)
}

// AcceptSubscriber registers a streaming connection for delivery.
func (o *SyncOrchestrator) AcceptSubscriber(sub driven.Subscriber) {
	o.broadcaster.AddSubscriber(sub)
}

// Start begins monitoring all enabled sources. Idempotent.
// The context bounds the lifetime of every monitoring goroutine;
// cancelling it has the same effect as Stop.
func (o *SyncOrchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil
	}

	configs, err := o.configStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	o.running = true
	o.runCtx = ctx
	o.stopCh = make(chan struct{})

	logger.Info("Starting real-time monitoring (%d sources)", len(configs))
	for _, cfg := range configs {
		o.startSourceLocked(cfg)
	}
	return nil
}

// Stop halts monitoring. In-flight polls complete before their
// goroutines observe the stop. Idempotent.
func (o *SyncOrchestrator) Stop() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	close(o.stopCh)

	for id := range o.sourceStops {
		o.stopSourceLocked(id)
	}
	o.mu.Unlock()

	o.wg.Wait()
	logger.Info("Real-time monitoring stopped")
	return nil
}

// SubmitWebhook processes an inbound provider payload synchronously.
func (o *SyncOrchestrator) SubmitWebhook(ctx context.Context, payload []byte, specID string) bool {
	events, ok := o.ingester.Ingest(payload, specID)
	if !ok {
		logger.Warn("Malformed webhook payload for spec %s", specID)
		return false
	}
	for _, ev := range events {
		o.broadcaster.Broadcast(ctx, ev)
	}
	return true
}

// Emit broadcasts a caller-built event directly.
func (o *SyncOrchestrator) Emit(ctx context.Context, ev domain.ChangeEvent) {
	if err := ev.Validate(); err != nil {
		log.Printf("orchestrator: dropping invalid manual event for spec %s: %v", ev.SpecID, err)
		return
	}
	o.broadcaster.Broadcast(ctx, ev)
}

// startSourceLocked spins up monitoring for one config.
// Caller holds o.mu and monitoring is running.
func (o *SyncOrchestrator) startSourceLocked(cfg domain.SourceConfig) {
	if !cfg.Enabled {
		return
	}

	switch cfg.SourceType {
	case domain.SourceTypeGit:
		mon := o.factory.NewGitMonitor(cfg)
		o.seedCheckpoint(cfg.SpecID, mon)

		stop := make(chan struct{})
		o.sourceStops[cfg.SpecID] = stop
		o.wg.Add(1)
		go o.pollGit(o.runCtx, cfg, mon, stop, o.stopCh)

	case domain.SourceTypeFile:
		fm, err := o.factory.NewFileMonitor(cfg)
		if err != nil {
			log.Printf("orchestrator: file monitor for spec %s: %v", cfg.SpecID, err)
			return
		}
		stop := make(chan struct{})
		o.sourceStops[cfg.SpecID] = stop
		o.fileMonitors[cfg.SpecID] = fm
		o.wg.Add(1)
		go o.forwardFileEvents(o.runCtx, cfg, fm, stop, o.stopCh)

	case domain.SourceTypeWebhook:
		// Nothing to run: events arrive via SubmitWebhook.
	}
}

// stopSourceLocked tears down monitoring for one spec ID, if any.
// Caller holds o.mu.
func (o *SyncOrchestrator) stopSourceLocked(specID string) {
	if stop, ok := o.sourceStops[specID]; ok {
		close(stop)
		delete(o.sourceStops, specID)
	}
	if fm, ok := o.fileMonitors[specID]; ok {
		if err := fm.Close(); err != nil {
			log.Printf("orchestrator: closing file monitor for spec %s: %v", specID, err)
		}
		delete(o.fileMonitors, specID)
	}
}

// seedCheckpoint restores persisted commit state into a fresh monitor.
func (o *SyncOrchestrator) seedCheckpoint(specID string, mon driven.GitMonitor) {
	if o.checkpoints == nil {
		return
	}
	commit, err := o.checkpoints.GetLastCommit(context.Background(), specID)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("orchestrator: load checkpoint for spec %s: %v", specID, err)
		return
	}
	mon.SetLastCommit(commit)
	logger.Debug("Seeded spec %s at commit %s", specID, commit)
}

// pollGit checks a git source immediately and then on its configured
// interval until stopped. An in-flight check always completes; the
// stop is only observed between checks.
func (o *SyncOrchestrator) pollGit(
	ctx context.Context,
	cfg domain.SourceConfig,
	mon driven.GitMonitor,
	stop, stopAll <-chan struct{},
) {
	defer o.wg.Done()

	ticker := time.NewTicker(cfg.PollingInterval)
	defer ticker.Stop()

	for {
		o.checkGitOnce(ctx, cfg, mon)

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-stopAll:
			return
		case <-ticker.C:
		}
	}
}

// checkGitOnce runs one poll, broadcasts its events in diff order and
// persists the advanced head. Failures are scoped to this source.
func (o *SyncOrchestrator) checkGitOnce(ctx context.Context, cfg domain.SourceConfig, mon driven.GitMonitor) {
	before := mon.LastCommit()

	events, err := mon.Check(ctx)
	if err != nil {
		// ErrSourceUnavailable and diff failures alike: no events,
		// state unchanged, retried next interval.
		log.Printf("orchestrator: git poll for spec %s: %v", cfg.SpecID, err)
		return
	}

	for _, ev := range events {
		if !cfg.AllowsPath(ev.FilePath) {
			continue
		}
		o.broadcaster.Broadcast(ctx, ev)
	}

	if after := mon.LastCommit(); o.checkpoints != nil && after != "" && after != before {
		if err := o.checkpoints.SaveLastCommit(ctx, cfg.SpecID, after); err != nil {
			log.Printf("orchestrator: save checkpoint for spec %s: %v", cfg.SpecID, err)
		}
	}
}

// forwardFileEvents relays filesystem notifications to the broadcaster
// until the monitor closes or monitoring stops.
func (o *SyncOrchestrator) forwardFileEvents(
	ctx context.Context,
	cfg domain.SourceConfig,
	fm driven.FileMonitor,
	stop, stopAll <-chan struct{},
) {
	defer o.wg.Done()

	for {
		select {
		case ev, ok := <-fm.Events():
			if !ok {
				return
			}
			if !cfg.AllowsPath(ev.FilePath) {
				continue
			}
			o.broadcaster.Broadcast(ctx, ev)
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-stopAll:
			return
		}
	}
}
