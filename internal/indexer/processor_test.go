package indexer

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/decoder"
	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fundingAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	votingAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	addr1       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2       = common.HexToAddress("0x0000000000000000000000000000000000000002")
	mockTxHash  = common.HexToHash("0xa16081f360e3847006db660bae1c6d1b2e17ec2a")
)

func chainAt(block uint64, logIndex uint) events.ChainContext {
	return events.ChainContext{
		BlockNumber:    block,
		BlockTimestamp: 1700000000 + block*12,
		TxHash:         common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(logIndex))),
		LogIndex:       logIndex,
	}
}

func newTestProcessor(t *testing.T, c events.Contract) (*Processor, *store.MemoryStore) {
	t.Helper()

	dec, err := decoder.New(c)
	require.NoError(t, err)
	st := store.NewMemoryStore()
	return NewProcessor(dec, st, logger.NewNopLogger()), st
}

func TestProcessorDelegateSetFixture(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, st := newTestProcessor(t, events.ContractProposalVoting)

	l := events.MustEncodeLog(votingAddr, events.NewDelegateSet(addr1, addr1), events.ChainContext{
		BlockNumber:    1,
		BlockTimestamp: 1,
		TxHash:         mockTxHash,
		LogIndex:       1,
	})

	e, err := p.HandleLog(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, "0x000000000000000000000000a16081f360e3847006db660bae1c6d1b2e17ec2a-1", e.EntityID().String())

	n, err := st.Count(ctx, events.KindDelegateSet)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	id, err := entity.ParseIdentity("0x000000000000000000000000a16081f360e3847006db660bae1c6d1b2e17ec2a-1")
	require.NoError(t, err)

	delegator, err := st.FieldEquals(ctx, events.KindDelegateSet, id, "delegator")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", delegator)

	delegatee, err := st.FieldEquals(ctx, events.KindDelegateSet, id, "delegatee")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", delegatee)
}

func TestProcessorVotingProposalCreated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, st := newTestProcessor(t, events.ContractProposalVoting)
	cc := chainAt(42, 3)

	l := events.MustEncodeLog(votingAddr,
		events.NewVotingProposalCreated(big.NewInt(1), "T", "D", big.NewInt(1000), big.NewInt(5000)), cc)

	_, err := p.HandleLog(ctx, l)
	require.NoError(t, err)

	got, err := st.Get(ctx, events.KindVotingProposalCreated, entity.NewIdentity(cc.TxHash, cc.LogIndex))
	require.NoError(t, err)

	proposal, ok := got.(*entity.VotingProposalCreated)
	require.True(t, ok)
	assert.Equal(t, "1", proposal.ProposalID.String())
	assert.Equal(t, "T", proposal.Title)
	assert.Equal(t, "D", proposal.Description)
	assert.Equal(t, "1000", proposal.Deadline.String())
	assert.Equal(t, "5000", proposal.FundingTarget.String())
	assert.Equal(t, cc.BlockNumber, proposal.BlockNumber)
	assert.Equal(t, cc.BlockTimestamp, proposal.BlockTimestamp)
	assert.Equal(t, cc.TxHash, proposal.TransactionHash)
}

func TestProcessorGTRewardIssuedAmount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, _ := newTestProcessor(t, events.ContractFunding)

	l := events.MustEncodeLog(fundingAddr, events.NewGTRewardIssued(big.NewInt(1), addr2, big.NewInt(100)), chainAt(7, 0))

	e, err := p.HandleLog(ctx, l)
	require.NoError(t, err)

	reward, ok := e.(*entity.GTRewardIssued)
	require.True(t, ok)
	require.NotNil(t, reward.Amount)
	assert.Equal(t, 0, reward.Amount.Cmp(big.NewInt(100)))
	assert.Equal(t, addr2, reward.Contributor)
}

func TestProcessorDecodeErrorWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, st := newTestProcessor(t, events.ContractFunding)

	// a voting event is unknown to a funding processor
	l := events.MustEncodeLog(fundingAddr, events.NewDelegateSet(addr1, addr2), chainAt(1, 0))

	_, err := p.HandleLog(ctx, l)
	require.True(t, decoder.IsDecodeError(err))
	require.ErrorIs(t, err, decoder.ErrUnknownEvent)

	for _, k := range events.AllKinds() {
		n, err := st.Count(ctx, k)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestProcessorStoreErrorIsSurfaced(t *testing.T) {
	t.Parallel()

	p, st := newTestProcessor(t, events.ContractFunding)
	require.NoError(t, st.Close())

	l := events.MustEncodeLog(fundingAddr, events.NewFundingProposalCreated(big.NewInt(3)), chainAt(1, 0))

	_, err := p.HandleLog(context.Background(), l)
	require.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.False(t, decoder.IsDecodeError(err))
}

func TestProcessorRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, st := newTestProcessor(t, events.ContractFunding)

	for block := uint64(1); block <= 10; block++ {
		_, err := p.HandleLog(ctx, events.MustEncodeLog(fundingAddr,
			events.NewWithdrawn(big.NewInt(int64(block)), addr1, big.NewInt(10)), chainAt(block, 0)))
		require.NoError(t, err)
	}

	removed, err := p.Rollback(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, removed)

	n, err := st.Count(ctx, events.KindWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// replaying the rolled back range restores the same records
	for block := uint64(5); block <= 10; block++ {
		_, err := p.HandleLog(ctx, events.MustEncodeLog(fundingAddr,
			events.NewWithdrawn(big.NewInt(int64(block)), addr1, big.NewInt(10)), chainAt(block, 0)))
		require.NoError(t, err)
	}
	n, err = st.Count(ctx, events.KindWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestProcessorRollbackLeavesOtherContracts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemoryStore()

	fundingDec, err := decoder.New(events.ContractFunding)
	require.NoError(t, err)
	votingDec, err := decoder.New(events.ContractProposalVoting)
	require.NoError(t, err)

	funding := NewProcessor(fundingDec, st, logger.NewNopLogger())
	voting := NewProcessor(votingDec, st, logger.NewNopLogger())

	_, err = funding.HandleLog(ctx, events.MustEncodeLog(fundingAddr, events.NewFundingProposalCreated(big.NewInt(1)), chainAt(8, 0)))
	require.NoError(t, err)
	_, err = voting.HandleLog(ctx, events.MustEncodeLog(votingAddr, events.NewVotedOnProposal(big.NewInt(1), addr2), chainAt(8, 1)))
	require.NoError(t, err)

	_, err = funding.Rollback(ctx, 1)
	require.NoError(t, err)

	n, err := st.Count(ctx, events.KindVotedOnProposal)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessorConcurrentStreams(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemoryStore()

	fundingDec, err := decoder.New(events.ContractFunding)
	require.NoError(t, err)
	votingDec, err := decoder.New(events.ContractProposalVoting)
	require.NoError(t, err)

	streams := []struct {
		p    *Processor
		addr common.Address
		ev   func(i int64) events.Event
	}{
		{NewProcessor(fundingDec, st, logger.NewNopLogger()), fundingAddr, func(i int64) events.Event {
			return events.NewGTRewardIssued(big.NewInt(i), addr1, big.NewInt(i*10))
		}},
		{NewProcessor(votingDec, st, logger.NewNopLogger()), votingAddr, func(i int64) events.Event {
			return events.NewVotedOnProposal(big.NewInt(i), addr2)
		}},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2*100)
	for _, s := range streams {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int64(1); i <= 100; i++ {
				if _, err := s.p.HandleLog(ctx, events.MustEncodeLog(s.addr, s.ev(i), chainAt(uint64(i), 0))); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	for _, k := range []events.Kind{events.KindGTRewardIssued, events.KindVotedOnProposal} {
		n, err := st.Count(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, 100, n)
	}
}
