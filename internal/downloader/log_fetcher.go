package downloader

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	irpc "github.com/goran-ethernal/ProposalIndexor/internal/rpc"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/ProposalIndexor/pkg/downloader"
	"github.com/goran-ethernal/ProposalIndexor/pkg/reorg"
	"github.com/goran-ethernal/ProposalIndexor/pkg/rpc"
)

// LogFetcherConfig contains configuration for the LogFetcher.
type LogFetcherConfig struct {
	// ChunkSize is the number of blocks to fetch per request
	ChunkSize uint64

	// Finality is one of the config.Finality* modes
	Finality string

	// FinalizedLag is blocks behind head to consider final (only for "latest")
	FinalizedLag uint64

	// PollInterval is how long to wait for new blocks once caught up
	PollInterval time.Duration

	Addresses []common.Address

	// Topics are the topic0 values to match, any of them
	Topics []common.Hash
}

// FetchResult is one verified block range with its logs.
type FetchResult struct {
	Logs      []events.Log
	FromBlock uint64
	ToBlock   uint64
	// ToBlockHash is the hash of the header of ToBlock
	ToBlockHash common.Hash
}

// LogFetcher fetches contract logs in chunks, verifies every chunk with the
// reorg detector and stamps each log with its block timestamp.
type LogFetcher struct {
	cfg           LogFetcherConfig
	rpc           rpc.EthClient
	reorgDetector reorg.Detector
	log           *logger.Logger
	mode          pkgdownloader.FetchMode
}

// NewLogFetcher creates a new LogFetcher in backfill mode.
func NewLogFetcher(
	cfg LogFetcherConfig,
	rpcClient rpc.EthClient,
	reorgDetector reorg.Detector,
	log *logger.Logger,
) *LogFetcher {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 1
	}

	return &LogFetcher{
		cfg:           cfg,
		rpc:           rpcClient,
		reorgDetector: reorgDetector,
		log:           log,
		mode:          pkgdownloader.ModeBackfill,
	}
}

// SetMode changes the fetcher's operating mode.
func (lf *LogFetcher) SetMode(mode pkgdownloader.FetchMode) {
	if lf.mode != mode {
		lf.log.Infof("switching fetch mode from %s to %s", lf.mode, mode)
	}
	lf.mode = mode
}

// GetMode returns the current operating mode.
func (lf *LogFetcher) GetMode() pkgdownloader.FetchMode {
	return lf.mode
}

// FetchNext fetches the chunk starting at next. Once next is past the final
// head the fetcher switches to live mode and polls until a new block is final.
func (lf *LogFetcher) FetchNext(ctx context.Context, next uint64) (*FetchResult, error) {
	for {
		head, err := lf.finalHead(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s head: %w", lf.cfg.Finality, err)
		}

		if next <= head {
			return lf.FetchRange(ctx, next, min(next+lf.cfg.ChunkSize-1, head))
		}

		if lf.mode == pkgdownloader.ModeBackfill {
			lf.log.Info("backfill complete, switching to live mode")
			lf.SetMode(pkgdownloader.ModeLive)
		}

		lf.log.Debugf("waiting for new blocks: next=%d head=%d", next, head)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lf.cfg.PollInterval):
		}
	}
}

// FetchRange fetches and verifies [fromBlock, toBlock]. A provider limit on
// the result size may shrink the range; the result carries the range actually
// covered.
func (lf *LogFetcher) FetchRange(ctx context.Context, fromBlock, toBlock uint64) (*FetchResult, error) {
	raw, toBlock, err := lf.fetchLogs(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs: %w", err)
	}

	verified, err := lf.reorgDetector.VerifyAndRecordBlocks(ctx, raw, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}

	headers, err := lf.headersFor(ctx, raw, toBlock, verified)
	if err != nil {
		return nil, err
	}

	logs := make([]events.Log, 0, len(raw))
	for _, l := range raw {
		if l.Removed {
			continue
		}
		logs = append(logs, events.Log{Log: l, BlockTimestamp: headers[l.BlockNumber].Time})
	}

	lf.log.Infof("fetched range from %d to %d with %d logs in %s mode", fromBlock, toBlock, len(logs), lf.mode)

	return &FetchResult{
		Logs:        logs,
		FromBlock:   fromBlock,
		ToBlock:     toBlock,
		ToBlockHash: headers[toBlock].Hash(),
	}, nil
}

// headersFor returns the headers of every block carrying a log plus toBlock,
// reusing the headers the reorg detector already fetched.
func (lf *LogFetcher) headersFor(
	ctx context.Context, logs []types.Log, toBlock uint64, known []*types.Header,
) (map[uint64]*types.Header, error) {
	headers := make(map[uint64]*types.Header, len(known)+1)
	for _, h := range known {
		headers[h.Number.Uint64()] = h
	}

	var missing []uint64
	want := func(n uint64) {
		if _, ok := headers[n]; !ok {
			headers[n] = nil
			missing = append(missing, n)
		}
	}
	for _, l := range logs {
		want(l.BlockNumber)
	}
	want(toBlock)

	if len(missing) == 0 {
		return headers, nil
	}

	fetched, err := lf.rpc.BatchGetBlockHeaders(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block headers: %w", err)
	}
	if len(fetched) != len(missing) {
		return nil, fmt.Errorf("requested %d block headers, got %d", len(missing), len(fetched))
	}
	for i, h := range fetched {
		headers[missing[i]] = h
	}

	return headers, nil
}

// fetchLogs runs eth_getLogs and shrinks the range while the provider
// rejects it for returning too many results.
func (lf *LogFetcher) fetchLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, uint64, error) {
	for {
		logs, err := lf.rpc.GetLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(fromBlock),
			ToBlock:   new(big.Int).SetUint64(toBlock),
			Addresses: lf.cfg.Addresses,
			Topics:    [][]common.Hash{lf.cfg.Topics},
		})
		if err == nil {
			return logs, toBlock, nil
		}

		ok, errData := irpc.IsTooManyResultsError(err)
		if !ok {
			return nil, 0, err
		}

		newTo := fromBlock + (toBlock-fromBlock)/2 //nolint:mnd
		if _, suggestedTo, ok := irpc.ParseSuggestedBlockRange(errData); ok && suggestedTo >= fromBlock && suggestedTo < toBlock {
			newTo = suggestedTo
		}
		if newTo == toBlock {
			return nil, 0, fmt.Errorf("cannot split range further, block %d has too many logs: %w", fromBlock, err)
		}

		lf.log.Infof("too many logs, retrying with block range from %d to %d (was %d to %d)",
			fromBlock, newTo, fromBlock, toBlock)
		toBlock = newTo
	}
}

// finalHead returns the highest block considered final under the configured finality.
func (lf *LogFetcher) finalHead(ctx context.Context) (uint64, error) {
	var (
		header *types.Header
		err    error
	)

	switch lf.cfg.Finality {
	case config.FinalityFinalized:
		header, err = lf.rpc.GetFinalizedBlockHeader(ctx)
	case config.FinalitySafe:
		header, err = lf.rpc.GetSafeBlockHeader(ctx)
	case config.FinalityLatest:
		header, err = lf.rpc.GetLatestBlockHeader(ctx)
		if err == nil {
			latest := header.Number.Uint64()
			if latest < lf.cfg.FinalizedLag {
				return 0, nil
			}
			return latest - lf.cfg.FinalizedLag, nil
		}
	default:
		return 0, fmt.Errorf("invalid finality mode: %s", lf.cfg.Finality)
	}

	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}
