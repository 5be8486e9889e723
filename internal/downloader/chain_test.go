package downloader

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	pkgrpc "github.com/goran-ethernal/ProposalIndexor/pkg/rpc"
)

var _ pkgrpc.EthClient = (*fakeChain)(nil)

// fakeChain is an in-memory chain serving the EthClient calls. Logs get the
// hash of the block they currently sit in, so forking the chain re-hashes them.
type fakeChain struct {
	mu        sync.Mutex
	headers   []*types.Header
	logs      []types.Log
	finalized uint64

	// maxRange rejects eth_getLogs over wider ranges with a too-many-results error
	maxRange      uint64
	alwaysTooMany bool
	getLogs       int
}

type tooManyResultsError struct{}

func (tooManyResultsError) Error() string  { return "query returned more than 10000 results" }
func (tooManyResultsError) ErrorData() any { return "Query returned more than 10000 results" }

func newFakeChain(blocks int) *fakeChain {
	c := &fakeChain{}
	c.extend(blocks, "")
	return c
}

// extend appends n blocks whose headers carry salt.
func (c *fakeChain) extend(n int, salt string) {
	for range n {
		number := uint64(len(c.headers))
		parent := common.Hash{}
		if number > 0 {
			parent = c.headers[number-1].Hash()
		}
		c.headers = append(c.headers, &types.Header{
			Number:     new(big.Int).SetUint64(number),
			ParentHash: parent,
			Difficulty: big.NewInt(1),
			Time:       1000 + number,
			Extra:      []byte(salt),
		})
	}
}

// fork replaces every block from block on and grows the chain by grow blocks.
func (c *fakeChain) fork(block uint64, grow int, salt string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.headers) - int(block) + grow
	c.headers = c.headers[:block]
	c.extend(n, salt)
}

func (c *fakeChain) addLog(block uint64, addr common.Address, topic common.Hash, index uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = append(c.logs, types.Log{
		Address:     addr,
		Topics:      []common.Hash{topic},
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*100 + uint64(index))),
		Index:       index,
	})
}

func (c *fakeChain) head() uint64 {
	return uint64(len(c.headers) - 1)
}

func (c *fakeChain) Close() {}

func (c *fakeChain) GetLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getLogs++
	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	if c.alwaysTooMany || (c.maxRange > 0 && to-from+1 > c.maxRange) {
		return nil, tooManyResultsError{}
	}

	var out []types.Log
	for _, l := range c.logs {
		if l.BlockNumber < from || l.BlockNumber > to || l.BlockNumber > c.head() {
			continue
		}
		if len(q.Addresses) > 0 && !slices.Contains(q.Addresses, l.Address) {
			continue
		}
		l.BlockHash = c.headers[l.BlockNumber].Hash()
		out = append(out, l)
	}
	return out, nil
}

func (c *fakeChain) GetBlockHeader(_ context.Context, blockNum uint64) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if blockNum > c.head() {
		return nil, fmt.Errorf("block %d not found", blockNum)
	}
	return c.headers[blockNum], nil
}

func (c *fakeChain) GetLatestBlockHeader(ctx context.Context) (*types.Header, error) {
	c.mu.Lock()
	head := c.head()
	c.mu.Unlock()
	return c.GetBlockHeader(ctx, head)
}

func (c *fakeChain) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.GetLatestBlockHeader(ctx)
}

func (c *fakeChain) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	c.mu.Lock()
	finalized := c.finalized
	c.mu.Unlock()
	return c.GetBlockHeader(ctx, finalized)
}

func (c *fakeChain) BatchGetBlockHeaders(_ context.Context, blockNums []uint64) ([]*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*types.Header, len(blockNums))
	for i, n := range blockNums {
		if n > c.head() {
			return nil, fmt.Errorf("block %d not found", n)
		}
		out[i] = c.headers[n]
	}
	return out, nil
}
