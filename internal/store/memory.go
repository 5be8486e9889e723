package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
)

const backendMemory = "memory"

var errClosed = errors.New("store is closed")

type keyspace struct {
	mu      sync.RWMutex
	records map[entity.Identity]entity.Entity
}

// MemoryStore keeps records in process memory. Each kind has its own
// keyspace guarded by its own lock.
type MemoryStore struct {
	spaces map[events.Kind]*keyspace
	closed atomic.Bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{spaces: make(map[events.Kind]*keyspace)}
	for _, k := range events.AllKinds() {
		s.spaces[k] = &keyspace{records: make(map[entity.Identity]entity.Entity)}
	}
	return s
}

func (s *MemoryStore) space(op string, kind events.Kind) (*keyspace, error) {
	if s.closed.Load() {
		metrics.StoreErrorInc(backendMemory, op)
		return nil, &UnavailableError{Op: op, Err: errClosed}
	}
	ks, ok := s.spaces[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	metrics.StoreOpInc(backendMemory, op)
	return ks, nil
}

// Put stores e under its identity, replacing any previous record.
func (s *MemoryStore) Put(ctx context.Context, e entity.Entity) error {
	if err := checkEntity(e); err != nil {
		return err
	}
	ks, err := s.space("put", e.Kind())
	if err != nil {
		return err
	}

	ks.mu.Lock()
	ks.records[e.EntityID()] = e
	ks.mu.Unlock()
	return nil
}

// Get returns the record stored under id.
func (s *MemoryStore) Get(ctx context.Context, kind events.Kind, id entity.Identity) (entity.Entity, error) {
	ks, err := s.space("get", kind)
	if err != nil {
		return nil, err
	}

	ks.mu.RLock()
	e, ok := ks.records[id]
	ks.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return e, nil
}

// Count returns the number of records of kind.
func (s *MemoryStore) Count(ctx context.Context, kind events.Kind) (int, error) {
	ks, err := s.space("count", kind)
	if err != nil {
		return 0, err
	}

	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.records), nil
}

// FieldEquals returns the rendered value of field of the record stored under id.
func (s *MemoryStore) FieldEquals(
	ctx context.Context, kind events.Kind, id entity.Identity, field string,
) (string, error) {
	return fieldEquals(ctx, s, kind, id, field)
}

// Rollback removes records at or above block. All affected keyspaces are
// locked for the whole operation.
func (s *MemoryStore) Rollback(ctx context.Context, block uint64, kinds ...events.Kind) (int, error) {
	start := time.Now()
	targets, err := validKinds(kinds)
	if err != nil {
		return 0, err
	}

	spaces := make([]*keyspace, 0, len(targets))
	for _, k := range targets {
		ks, err := s.space("rollback", k)
		if err != nil {
			return 0, err
		}
		spaces = append(spaces, ks)
	}

	for _, ks := range spaces {
		ks.mu.Lock()
	}
	defer func() {
		for _, ks := range spaces {
			ks.mu.Unlock()
		}
	}()

	removed := 0
	for _, ks := range spaces {
		for id, e := range ks.records {
			if e.Block() >= block {
				delete(ks.records, id)
				removed++
			}
		}
	}

	metrics.StoreOpDuration(backendMemory, "rollback", time.Since(start))
	return removed, nil
}

// Reset removes every record.
func (s *MemoryStore) Reset(ctx context.Context) error {
	for _, k := range events.AllKinds() {
		ks, err := s.space("reset", k)
		if err != nil {
			return err
		}
		ks.mu.Lock()
		clear(ks.records)
		ks.mu.Unlock()
	}
	return nil
}

// Close marks the store closed. Every later call fails with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}
