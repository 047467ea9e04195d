package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configfile "github.com/tessera-labs/specsync/internal/adapters/driven/config/file"
	"github.com/tessera-labs/specsync/internal/adapters/driven/storage/memory"
	"github.com/tessera-labs/specsync/internal/adapters/driven/storage/sqlite"
	"github.com/tessera-labs/specsync/internal/adapters/driving/httpapi"
	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
	"github.com/tessera-labs/specsync/internal/core/services"
	"github.com/tessera-labs/specsync/internal/ingest/webhook"
	"github.com/tessera-labs/specsync/internal/logger"
	"github.com/tessera-labs/specsync/internal/monitors"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start monitoring and serve the HTTP API",
	Long: `Starts monitoring every source in the config file and serves the
HTTP API: provider webhooks on POST /webhook/{spec_id}, the event
stream on GET /ws and recent history on GET /events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
	}

	cfg, err := configfile.Load(path)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logger.SetVerbose(true)
	}

	configStore := memory.NewSourceConfigStore()
	var checkpoints driven.CheckpointStore
	var journal driven.EventJournal

	if cfg.DataDir != "" {
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()
		checkpoints = store.CheckpointStore()
		journal = store.EventJournal()
		logger.Info("Using database %s", store.Path())
	} else {
		checkpoints = memory.NewCheckpointStore()
		logger.Info("No data_dir configured, state will not survive restarts")
	}

	broadcaster := services.NewBroadcaster(journal)
	orch := services.NewSyncOrchestrator(
		configStore,
		monitors.NewFactory(),
		webhook.NewIngester(),
		broadcaster,
		checkpoints,
	)
	orch.AddChangeListener(func(_ context.Context, ev domain.ChangeEvent) error {
		logger.Info("Change detected: spec=%s type=%s path=%s source=%s",
			ev.SpecID, ev.ChangeType, ev.FilePath, ev.Source)
		return nil
	})

	sources, err := cfg.DomainSources()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, src := range sources {
		if err := orch.RegisterSource(ctx, src); err != nil {
			return err
		}
	}

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("starting monitors: %w", err)
	}
	defer func() {
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "stopping monitors: %v\n", err)
		}
	}()

	server := httpapi.NewServer(orch, configStore, journal, httpapi.DefaultConfig)
	return server.ListenAndServe(ctx, cfg.Listen)
}
