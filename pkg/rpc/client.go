package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// EthClient is the part of the Ethereum JSON-RPC API used to follow the chain.
// Implementations retry transient failures themselves.
type EthClient interface {
	// GetLogs runs eth_getLogs for query.
	GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error)
	GetLatestBlockHeader(ctx context.Context) (*types.Header, error)
	GetSafeBlockHeader(ctx context.Context) (*types.Header, error)
	GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error)

	// BatchGetBlockHeaders returns one header per requested block, in the
	// order requested.
	BatchGetBlockHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error)

	Close()
}
