package downloader

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/ProposalIndexor/pkg/downloader"
	"github.com/stretchr/testify/require"
)

var (
	testAddr  = common.HexToAddress("0xa16081f360e3847006db660bae1c6d1b2e17ec2a")
	testTopic = common.HexToHash("0x01")
)

// finalDetector treats every block as final.
type finalDetector struct{}

func (finalDetector) VerifyAndRecordBlocks(context.Context, []types.Log, uint64, uint64) ([]*types.Header, error) {
	return nil, nil
}
func (finalDetector) Rewind(context.Context, uint64) error { return nil }
func (finalDetector) Close() error                         { return nil }

func newTestFetcher(chain *fakeChain, finality string, lag uint64) *LogFetcher {
	return NewLogFetcher(LogFetcherConfig{
		ChunkSize:    10,
		Finality:     finality,
		FinalizedLag: lag,
		PollInterval: 5 * time.Millisecond,
		Addresses:    []common.Address{testAddr},
		Topics:       []common.Hash{testTopic},
	}, chain, finalDetector{}, logger.NewNopLogger())
}

func TestLogFetcherFinalHead(t *testing.T) {
	chain := newFakeChain(50)
	chain.finalized = 30
	ctx := context.Background()

	tests := []struct {
		finality string
		lag      uint64
		want     uint64
	}{
		{finality: config.FinalityFinalized, want: 30},
		{finality: config.FinalitySafe, want: 49},
		{finality: config.FinalityLatest, want: 49},
		{finality: config.FinalityLatest, lag: 10, want: 39},
		{finality: config.FinalityLatest, lag: 100, want: 0},
	}

	for _, tt := range tests {
		head, err := newTestFetcher(chain, tt.finality, tt.lag).finalHead(ctx)
		require.NoError(t, err)
		require.Equal(t, tt.want, head, "%s lag %d", tt.finality, tt.lag)
	}

	_, err := newTestFetcher(chain, "pending", 0).finalHead(ctx)
	require.ErrorContains(t, err, "invalid finality mode")
}

func TestLogFetcherStampsTimestamps(t *testing.T) {
	chain := newFakeChain(20)
	chain.addLog(3, testAddr, testTopic, 0)
	chain.addLog(7, testAddr, testTopic, 2)
	chain.addLog(7, common.HexToAddress("0xdead"), testTopic, 3)

	result, err := newTestFetcher(chain, config.FinalityLatest, 0).FetchRange(context.Background(), 0, 9)
	require.NoError(t, err)

	require.Equal(t, uint64(0), result.FromBlock)
	require.Equal(t, uint64(9), result.ToBlock)
	require.Equal(t, chain.headers[9].Hash(), result.ToBlockHash)
	require.Len(t, result.Logs, 2)
	require.Equal(t, uint64(1003), result.Logs[0].BlockTimestamp)
	require.Equal(t, uint64(1007), result.Logs[1].BlockTimestamp)
	require.Equal(t, chain.headers[7].Hash(), result.Logs[1].BlockHash)
}

func TestLogFetcherShrinksRangeOnTooManyResults(t *testing.T) {
	chain := newFakeChain(20)
	chain.maxRange = 3
	chain.addLog(2, testAddr, testTopic, 0)

	result, err := newTestFetcher(chain, config.FinalityLatest, 0).FetchRange(context.Background(), 0, 9)
	require.NoError(t, err)
	require.Equal(t, uint64(2), result.ToBlock)
	require.Len(t, result.Logs, 1)
	require.Equal(t, 3, chain.getLogs)
}

func TestLogFetcherSingleBlockTooLarge(t *testing.T) {
	chain := newFakeChain(5)
	chain.maxRange = 1
	chain.alwaysTooMany = true

	_, err := newTestFetcher(chain, config.FinalityLatest, 0).FetchRange(context.Background(), 2, 3)
	require.ErrorContains(t, err, "cannot split range further, block 2")
	require.Equal(t, 2, chain.getLogs)
}

func TestLogFetcherSwitchesToLive(t *testing.T) {
	chain := newFakeChain(5)
	lf := newTestFetcher(chain, config.FinalityLatest, 0)
	require.Equal(t, pkgdownloader.ModeBackfill, lf.GetMode())

	result, err := lf.FetchNext(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(4), result.ToBlock)
	require.Equal(t, pkgdownloader.ModeBackfill, lf.GetMode())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = lf.FetchNext(ctx, 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, pkgdownloader.ModeLive, lf.GetMode())
}

func TestLogFetcherPicksUpNewBlocks(t *testing.T) {
	chain := newFakeChain(5)
	lf := newTestFetcher(chain, config.FinalityLatest, 0)

	go func() {
		time.Sleep(20 * time.Millisecond)
		chain.mu.Lock()
		chain.extend(3, "")
		chain.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := lf.FetchNext(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(5), result.FromBlock)
	require.Equal(t, uint64(7), result.ToBlock)
}
