package downloader

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
)

// FetchMode is the operating mode of the log fetcher.
type FetchMode string

const (
	// ModeBackfill fetches historical blocks from start to the finalized head
	ModeBackfill FetchMode = "backfill"

	// ModeLive tails new blocks as they become final
	ModeLive FetchMode = "live"
)

func (m FetchMode) String() string {
	return string(m)
}

// Downloader streams contract logs to registered indexers.
type Downloader interface {
	// RegisterIndexer registers an indexer to receive logs. The indexer's
	// EventsToIndex decides which logs are fetched and forwarded to it.
	RegisterIndexer(indexer indexer.Indexer)

	// Download runs until the context is cancelled or an error occurs.
	Download(ctx context.Context) error

	Close() error
}

// SyncManager persists the download checkpoint.
type SyncManager interface {
	GetState(ctx context.Context) (*SyncState, error)

	// SaveCheckpoint records blockNum as fully delivered to every indexer.
	SaveCheckpoint(ctx context.Context, blockNum uint64, blockHash common.Hash, mode FetchMode) error

	// Reset rewinds the checkpoint to block and switches back to backfill.
	Reset(ctx context.Context, block uint64) error
}

// SyncState is the persisted download checkpoint.
type SyncState struct {
	ID                   int         `meddler:"id,pk" json:"-"`
	LastIndexedBlock     uint64      `meddler:"last_indexed_block" json:"last_indexed_block"`
	LastIndexedBlockHash common.Hash `meddler:"last_indexed_block_hash,hash" json:"last_indexed_block_hash"`
	LastIndexedTimestamp int64       `meddler:"last_indexed_timestamp" json:"last_indexed_timestamp"`
	Mode                 string      `meddler:"mode" json:"mode"`
}

// GetMode returns the Mode as a FetchMode.
func (s *SyncState) GetMode() FetchMode {
	return FetchMode(s.Mode)
}
