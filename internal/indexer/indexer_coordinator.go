package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
	"golang.org/x/sync/errgroup"
)

// IndexerCoordinator routes logs to the registered indexers by address and
// topic. Indexers of disjoint contracts run concurrently; a reorg holds the
// coordinator exclusively.
type IndexerCoordinator struct {
	mu sync.RWMutex

	// routes maps address -> topic -> indexers
	routes map[common.Address]map[common.Hash][]indexer.Indexer

	// indexers holds all registered indexers in registration order
	indexers []indexer.Indexer

	// startBlocks maps each indexer to its start block
	startBlocks map[indexer.Indexer]uint64
}

// NewIndexerCoordinator creates a new IndexerCoordinator.
func NewIndexerCoordinator() *IndexerCoordinator {
	return &IndexerCoordinator{
		routes:      make(map[common.Address]map[common.Hash][]indexer.Indexer),
		indexers:    make([]indexer.Indexer, 0),
		startBlocks: make(map[indexer.Indexer]uint64),
	}
}

// RegisterIndexer registers a new indexer.
func (ic *IndexerCoordinator) RegisterIndexer(idx indexer.Indexer) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	ic.startBlocks[idx] = idx.StartBlock()

	for addr, topics := range idx.EventsToIndex() {
		if _, exists := ic.routes[addr]; !exists {
			ic.routes[addr] = make(map[common.Hash][]indexer.Indexer)
		}
		for topic := range topics {
			ic.routes[addr][topic] = append(ic.routes[addr][topic], idx)
		}
	}

	ic.indexers = append(ic.indexers, idx)
}

// Indexers returns the registered indexers in registration order.
func (ic *IndexerCoordinator) Indexers() []indexer.Indexer {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	out := make([]indexer.Indexer, len(ic.indexers))
	copy(out, ic.indexers)
	return out
}

// Filter returns the addresses and topic0 values of every registered indexer,
// for building an eth_getLogs filter.
func (ic *IndexerCoordinator) Filter() ([]common.Address, []common.Hash) {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	addresses := make([]common.Address, 0, len(ic.routes))
	seen := make(map[common.Hash]struct{})
	topics := make([]common.Hash, 0)
	for addr, byTopic := range ic.routes {
		addresses = append(addresses, addr)
		for t := range byTopic {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				topics = append(topics, t)
			}
		}
	}
	return addresses, topics
}

// HandleLogs routes each log to the indexers registered for its address and
// topic0 and waits for all of them. Logs below an indexer's start block are
// dropped.
func (ic *IndexerCoordinator) HandleLogs(ctx context.Context, logs []events.Log) error {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	indexerLogs := make(map[indexer.Indexer][]events.Log)
	for _, l := range logs {
		if len(l.Topics) == 0 {
			continue
		}
		byTopic, ok := ic.routes[l.Address]
		if !ok {
			continue
		}
		for _, idx := range byTopic[l.Topics[0]] {
			if l.BlockNumber < ic.startBlocks[idx] {
				continue
			}
			indexerLogs[idx] = append(indexerLogs[idx], l)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for idx, relevant := range indexerLogs {
		g.Go(func() error {
			if err := idx.HandleLogs(gctx, relevant); err != nil {
				return fmt.Errorf("indexer %s failed to handle logs: %w", idx.GetName(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

// HandleReorg rolls every indexer back to before blockNum. No logs are
// routed while it runs.
func (ic *IndexerCoordinator) HandleReorg(ctx context.Context, blockNum uint64) error {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	for _, idx := range ic.indexers {
		if err := idx.HandleReorg(ctx, blockNum); err != nil {
			return fmt.Errorf("indexer %s failed to handle reorg at block %d: %w", idx.GetName(), blockNum, err)
		}
	}

	return nil
}

// IndexerStartBlocks returns a slice of start blocks for all registered indexers.
func (ic *IndexerCoordinator) IndexerStartBlocks() []uint64 {
	ic.mu.RLock()
	defer ic.mu.RUnlock()

	startBlocks := make([]uint64, 0, len(ic.indexers))
	for _, idx := range ic.indexers {
		startBlocks = append(startBlocks, ic.startBlocks[idx])
	}
	return startBlocks
}
