package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/goran-ethernal/ProposalIndexor/internal/decoder"
	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
)

// Processor turns single logs into stored entities: decode, map, put.
//
// Logs take the shared side of the barrier and rollbacks the exclusive side,
// so no log is processed while a rollback is in flight.
type Processor struct {
	decoder *decoder.Decoder
	store   store.Store
	log     *logger.Logger

	barrier sync.RWMutex
}

// NewProcessor creates a processor writing the kinds known to dec into st.
func NewProcessor(dec *decoder.Decoder, st store.Store, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Processor{
		decoder: dec,
		store:   st,
		log:     log,
	}
}

// HandleLog decodes l, maps it to its entity and upserts it. A
// *decoder.DecodeError is returned for logs that cannot be decoded; nothing is
// written in that case.
func (p *Processor) HandleLog(ctx context.Context, l events.Log) (entity.Entity, error) {
	p.barrier.RLock()
	defer p.barrier.RUnlock()

	decoded, err := p.decoder.Decode(l)
	if err != nil {
		return nil, err
	}

	e := entity.Map(decoded)
	if err := p.store.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to store %s %s: %w", e.Kind(), e.EntityID(), err)
	}

	metrics.EntityStoredInc(e.Kind().String())
	p.log.Debugf("stored %s %s at block %d", e.Kind(), e.EntityID(), e.Block())
	return e, nil
}

// Rollback removes every record of the processor's kinds at or above block.
func (p *Processor) Rollback(ctx context.Context, block uint64) (int, error) {
	p.barrier.Lock()
	defer p.barrier.Unlock()

	removed, err := p.store.Rollback(ctx, block, p.decoder.Kinds()...)
	if err != nil {
		return 0, fmt.Errorf("failed to roll back from block %d: %w", block, err)
	}
	return removed, nil
}

// Decoder returns the decoder used by the processor.
func (p *Processor) Decoder() *decoder.Decoder {
	return p.decoder
}
