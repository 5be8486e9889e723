package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
)

// Indexer defines the interface that all indexers must implement.
// Indexers receive logs from the downloader and handle blockchain reorganizations.
type Indexer interface {
	// GetName returns the configured, unique name of the indexer instance.
	GetName() string

	// GetType returns the contract family the indexer decodes.
	GetType() string

	// EventsToIndex returns a map of contract addresses to their event topic hashes.
	// This is used by the coordinator to determine which logs should be sent to this indexer.
	EventsToIndex() map[common.Address]map[common.Hash]struct{}

	// HandleLogs processes a batch of logs in (block, log index) order.
	HandleLogs(ctx context.Context, logs []events.Log) error

	// HandleReorg removes every record persisted at or after blockNum.
	HandleReorg(ctx context.Context, blockNum uint64) error

	// StartBlock returns the block number from which this indexer wants to start processing logs.
	// The downloader will use the minimum StartBlock across all registered indexers to determine
	// the earliest block to fetch. Each indexer will only receive logs from blocks >= its StartBlock.
	StartBlock() uint64
}
