package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/config"
	"github.com/goran-ethernal/ProposalIndexor/internal/db"
	"github.com/goran-ethernal/ProposalIndexor/internal/downloader"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
	"github.com/goran-ethernal/ProposalIndexor/internal/migrations"
	"github.com/goran-ethernal/ProposalIndexor/internal/reorg"
	"github.com/goran-ethernal/ProposalIndexor/internal/rpc"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
	"github.com/goran-ethernal/ProposalIndexor/pkg/api"
	pkgconfig "github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
	"github.com/spf13/cobra"
)

func runIndexer(cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Logging == nil {
		cfg.Logging = &pkgconfig.LoggingConfig{}
		cfg.Logging.ApplyDefaults()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	componentLogger := func(component string) *logger.Logger {
		return logger.NewComponentLoggerFromConfig(component, cfg.Logging)
	}
	log := componentLogger(common.ComponentDownloader)
	logger.SetDefaultLogger(log)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, log)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(context.Background()); err != nil {
				log.Warnf("failed to stop metrics server: %v", err)
			}
		}()
	}

	st, err := store.New(ctx, cfg.Store, componentLogger(common.ComponentStore))
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close()

	log.Infof("connecting to %s", cfg.Downloader.RPCURL)
	ethClient, err := rpc.NewClient(ctx, cfg.Downloader.RPCURL, cfg.Downloader.Retry, componentLogger(common.ComponentRPC))
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.Downloader.DB)
	if err != nil {
		return fmt.Errorf("failed to open downloader database: %w", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(log, database); err != nil {
		return fmt.Errorf("failed to run downloader migrations: %w", err)
	}

	maintenance := db.NewMaintenanceCoordinator(
		cfg.Downloader.DB.Path, database, cfg.Store.Maintenance, componentLogger(common.ComponentMaintenance))
	if err := maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start downloader database maintenance: %w", err)
	}
	defer maintenance.Stop() //nolint:errcheck

	syncManager := downloader.NewSyncManager(database, componentLogger(common.ComponentSyncManager), maintenance)
	reorgDetector := reorg.NewReorgDetector(
		database, ethClient, componentLogger(common.ComponentReorgDetector), maintenance)

	dl, err := downloader.New(cfg.Downloader, ethClient, reorgDetector, syncManager, log)
	if err != nil {
		return fmt.Errorf("failed to create downloader: %w", err)
	}
	defer dl.Close()

	if !cfg.Store.Persistent() {
		log.Warnf("%s store does not survive restarts, reindexing from the start block", cfg.Store.Backend)
		dl.ReindexFromStart()
	}

	for _, idxCfg := range cfg.Indexers {
		idx, err := indexer.Create(idxCfg, st, componentLogger(common.ComponentIndexer))
		if err != nil {
			return fmt.Errorf("failed to create indexer %s: %w", idxCfg.Name, err)
		}
		dl.RegisterIndexer(idx)
	}

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, st, dl.Coordinator(), syncManager, componentLogger(common.ComponentAPI))
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				log.Errorf("API server error: %v", err)
			}
		}()
	}

	log.Infof("starting indexing with %d indexer(s)", len(cfg.Indexers))
	if err := dl.Download(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("downloader failed: %w", err)
	}

	log.Info("indexer stopped")
	return nil
}
