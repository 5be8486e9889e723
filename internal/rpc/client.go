package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	pkgrpc "github.com/goran-ethernal/ProposalIndexor/pkg/rpc"
)

var _ pkgrpc.EthClient = (*Client)(nil)

const maxHeaderBatch = 100

var errHeaderNotFound = errors.New("header not found")

// Client wraps the Ethereum RPC client. Every call is retried with backoff
// according to the retry configuration and reported to the RPC metrics.
type Client struct {
	eth   *ethclient.Client
	rpc   *rpc.Client
	retry *config.RetryConfig
	log   *logger.Logger
}

// NewClient dials endpoint. A nil retry configuration disables retries.
func NewClient(ctx context.Context, endpoint string, retry *config.RetryConfig, log *logger.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}

	return NewClientFromRPC(rpcClient, retry, log), nil
}

// NewClientFromRPC wraps an already connected RPC client.
func NewClientFromRPC(rpcClient *rpc.Client, retry *config.RetryConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &Client{
		eth:   ethclient.NewClient(rpcClient),
		rpc:   rpcClient,
		retry: retry,
		log:   log,
	}
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	start := time.Now()
	RPCMethodInc(method)

	err := retryWithBackoff(ctx, c.retry, method, fn)
	RPCMethodDuration(method, time.Since(start))
	if err != nil {
		RPCMethodError(method, errorType(err))
		c.log.Debugw("rpc call failed", "method", method, "error", err)
	}
	return err
}

// GetLogs retrieves logs matching the given filter query.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.call(ctx, "eth_getLogs", func() error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// GetBlockHeader retrieves the header of blockNum.
func (c *Client) GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error) {
	return c.headerByNumber(ctx, new(big.Int).SetUint64(blockNum))
}

// GetLatestBlockHeader retrieves the chain head.
func (c *Client) GetLatestBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, nil)
}

// GetFinalizedBlockHeader retrieves the latest finalized block header.
func (c *Client) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
}

// GetSafeBlockHeader retrieves the latest safe block header.
func (c *Client) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.headerByNumber(ctx, big.NewInt(int64(rpc.SafeBlockNumber)))
}

func (c *Client) headerByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := c.call(ctx, "eth_getBlockByNumber", func() error {
		var err error
		header, err = c.eth.HeaderByNumber(ctx, number)
		if errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("%w: %v", errHeaderNotFound, number)
		}
		return err
	})
	return header, err
}

// BatchGetBlockHeaders retrieves the headers of blockNums in batches of at
// most 100 requests. The result is index-aligned with blockNums.
func (c *Client) BatchGetBlockHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error) {
	headers := make([]*types.Header, 0, len(blockNums))

	for i := 0; i < len(blockNums); i += maxHeaderBatch {
		chunk := blockNums[i:min(i+maxHeaderBatch, len(blockNums))]

		var results []*types.Header
		err := c.call(ctx, "eth_getBlockByNumber_batch", func() error {
			var err error
			results, err = c.batchHeaders(ctx, chunk)
			return err
		})
		if err != nil {
			return nil, err
		}

		headers = append(headers, results...)
	}

	return headers, nil
}

func (c *Client) batchHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error) {
	batch := make([]rpc.BatchElem, len(blockNums))
	results := make([]*types.Header, len(blockNums))

	for i, blockNum := range blockNums {
		batch[i] = rpc.BatchElem{
			Method: "eth_getBlockByNumber",
			Args:   []any{toBlockNumArg(blockNum), false},
			Result: &results[i],
		}
	}

	if err := c.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, err
	}

	for i, elem := range batch {
		if elem.Error != nil {
			return nil, fmt.Errorf("block %d: %w", blockNums[i], elem.Error)
		}
		if results[i] == nil {
			return nil, fmt.Errorf("%w: block %d", errHeaderNotFound, blockNums[i])
		}
	}

	return results, nil
}

func toBlockNumArg(blockNum uint64) string {
	return fmt.Sprintf("0x%x", blockNum)
}
