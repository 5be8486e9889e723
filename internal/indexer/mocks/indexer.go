package mocks

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/stretchr/testify/mock"
)

// Indexer is a testify mock of pkg/indexer.Indexer.
type Indexer struct {
	mock.Mock
}

// NewIndexer creates a mock whose expectations are asserted on test cleanup.
func NewIndexer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Indexer {
	m := &Indexer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Indexer) GetName() string {
	return m.Called().String(0)
}

func (m *Indexer) GetType() string {
	return m.Called().String(0)
}

func (m *Indexer) StartBlock() uint64 {
	return m.Called().Get(0).(uint64)
}

func (m *Indexer) EventsToIndex() map[common.Address]map[common.Hash]struct{} {
	ret := m.Called().Get(0)
	if ret == nil {
		return nil
	}
	return ret.(map[common.Address]map[common.Hash]struct{})
}

func (m *Indexer) HandleLogs(ctx context.Context, logs []events.Log) error {
	return m.Called(ctx, logs).Error(0)
}

func (m *Indexer) HandleReorg(ctx context.Context, blockNum uint64) error {
	return m.Called(ctx, blockNum).Error(0)
}
