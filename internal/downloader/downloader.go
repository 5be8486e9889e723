package downloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/indexer"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/ProposalIndexor/pkg/downloader"
	idx "github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
	"github.com/goran-ethernal/ProposalIndexor/pkg/reorg"
	"github.com/goran-ethernal/ProposalIndexor/pkg/rpc"
)

var _ pkgdownloader.Downloader = (*Downloader)(nil)

// Downloader drives the indexing loop: it fetches verified log chunks,
// hands them to the indexer coordinator, checkpoints progress and turns
// detected reorgs into rollbacks.
type Downloader struct {
	cfg           config.DownloaderConfig
	rpc           rpc.EthClient
	reorgDetector reorg.Detector
	syncManager   pkgdownloader.SyncManager
	coordinator   *indexer.IndexerCoordinator
	log           *logger.Logger
	fetcher       *LogFetcher

	reindex bool
}

// New creates a new Downloader.
func New(
	cfg config.DownloaderConfig,
	rpcClient rpc.EthClient,
	reorgDetector reorg.Detector,
	syncManager pkgdownloader.SyncManager,
	log *logger.Logger,
) (*Downloader, error) {
	if rpcClient == nil {
		return nil, errors.New("RPC client is required")
	}
	if reorgDetector == nil {
		return nil, errors.New("reorg detector is required")
	}
	if syncManager == nil {
		return nil, errors.New("sync manager is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	return &Downloader{
		cfg:           cfg,
		rpc:           rpcClient,
		reorgDetector: reorgDetector,
		syncManager:   syncManager,
		coordinator:   indexer.NewIndexerCoordinator(),
		log:           log,
	}, nil
}

// RegisterIndexer registers an indexer to receive logs.
func (d *Downloader) RegisterIndexer(i idx.Indexer) {
	d.coordinator.RegisterIndexer(i)
	d.log.Infof("indexer registered: name=%s type=%s start_block=%d", i.GetName(), i.GetType(), i.StartBlock())
}

// ReindexFromStart makes Download ignore the saved checkpoint and fetch again
// from the lowest indexer start block. Required when the indexers write to a
// store that does not survive a restart.
func (d *Downloader) ReindexFromStart() {
	d.reindex = true
}

// Coordinator exposes the coordinator the downloader feeds.
func (d *Downloader) Coordinator() *indexer.IndexerCoordinator {
	return d.coordinator
}

// Download runs the indexing loop until ctx is cancelled or an error occurs.
func (d *Downloader) Download(ctx context.Context) error {
	addresses, topics := d.coordinator.Filter()
	if len(addresses) == 0 {
		return errors.New("no indexers registered")
	}

	d.fetcher = NewLogFetcher(LogFetcherConfig{
		ChunkSize:    d.cfg.ChunkSize,
		Finality:     d.cfg.Finality,
		FinalizedLag: d.cfg.FinalizedLag,
		PollInterval: d.cfg.PollInterval.Duration,
		Addresses:    addresses,
		Topics:       topics,
	}, d.rpc, d.reorgDetector, d.log.WithComponent(internalcommon.ComponentLogFetcher))

	next, err := d.resumeBlock(ctx)
	if err != nil {
		return err
	}

	metrics.ComponentHealthSet(internalcommon.ComponentDownloader, true)
	defer metrics.ComponentHealthSet(internalcommon.ComponentDownloader, false)

	d.log.Infof("starting download: next_block=%d addresses=%d topics=%d", next, len(addresses), len(topics))

	for {
		if err := ctx.Err(); err != nil {
			d.log.Info("download cancelled")
			return err
		}

		result, err := d.fetcher.FetchNext(ctx, next)
		if err != nil {
			var reorgErr *reorg.ReorgDetectedError
			if errors.As(err, &reorgErr) {
				if err := d.handleReorg(ctx, reorgErr.FirstReorgBlock); err != nil {
					return fmt.Errorf("failed to handle reorg: %w", err)
				}
				next = reorgErr.FirstReorgBlock
				continue
			}
			return fmt.Errorf("failed to fetch logs from block %d: %w", next, err)
		}

		if len(result.Logs) > 0 {
			if err := d.coordinator.HandleLogs(ctx, result.Logs); err != nil {
				return fmt.Errorf("failed to handle logs of blocks %d-%d: %w", result.FromBlock, result.ToBlock, err)
			}
		}

		if err := d.syncManager.SaveCheckpoint(ctx, result.ToBlock, result.ToBlockHash, d.fetcher.GetMode()); err != nil {
			return err
		}
		next = result.ToBlock + 1
	}
}

// resumeBlock returns the first block to fetch: the block after the
// checkpoint, or the lowest indexer start block on a fresh database.
func (d *Downloader) resumeBlock(ctx context.Context) (uint64, error) {
	state, err := d.syncManager.GetState(ctx)
	if err != nil {
		return 0, err
	}

	start := ^uint64(0)
	for _, b := range d.coordinator.IndexerStartBlocks() {
		start = min(start, b)
	}

	if d.reindex {
		if err := d.reorgDetector.Rewind(ctx, start); err != nil {
			return 0, err
		}
		d.log.Infof("reindexing from start: start_block=%d discarded_checkpoint=%d", start, state.LastIndexedBlock)
		return start, nil
	}

	if state.LastIndexedBlock == 0 && state.LastIndexedBlockHash == (common.Hash{}) {
		d.log.Infof("starting fresh download: start_block=%d", start)
		return start, nil
	}

	d.log.Infof("resuming download: last_indexed_block=%d", state.LastIndexedBlock)
	return state.LastIndexedBlock + 1, nil
}

// handleReorg rolls every indexer back to the block before firstReorgBlock
// and rewinds the checkpoint so the range is fetched again.
func (d *Downloader) handleReorg(ctx context.Context, firstReorgBlock uint64) error {
	d.log.Warnf("handling reorg: first_reorg_block=%d", firstReorgBlock)

	if err := d.coordinator.HandleReorg(ctx, firstReorgBlock); err != nil {
		return err
	}

	if err := d.reorgDetector.Rewind(ctx, firstReorgBlock); err != nil {
		return err
	}

	if firstReorgBlock > 0 {
		if err := d.syncManager.Reset(ctx, firstReorgBlock-1); err != nil {
			return err
		}
	}

	d.fetcher.SetMode(pkgdownloader.ModeBackfill)
	d.log.Infof("reorg handled, resuming from block %d", firstReorgBlock)
	return nil
}

// Close releases the RPC connection and the reorg detector.
func (d *Downloader) Close() error {
	d.log.Info("closing downloader")

	if err := d.reorgDetector.Close(); err != nil {
		d.log.Errorf("failed to close reorg detector: %v", err)
	}
	d.rpc.Close()

	return nil
}
