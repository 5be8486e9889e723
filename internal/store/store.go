package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
)

var (
	// ErrNotFound is returned when no record exists under the requested identity.
	ErrNotFound = errors.New("entity not found")
	// ErrUnknownField is returned when a field name is not part of the kind's record.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownKind is returned for kinds outside the fixed event kind set.
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrStoreUnavailable matches every transient failure of the backing engine.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// UnavailableError wraps an I/O failure of the backing engine.
// It matches ErrStoreUnavailable with errors.Is.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// Store persists entity records, one keyspace per event kind. A record is
// addressed by its identity and there is at most one record per identity.
type Store interface {
	// Put inserts e or replaces the record with the same identity.
	Put(ctx context.Context, e entity.Entity) error
	// Get returns the record of the given kind, or ErrNotFound.
	Get(ctx context.Context, kind events.Kind, id entity.Identity) (entity.Entity, error)
	// Count returns the number of records stored under kind.
	Count(ctx context.Context, kind events.Kind) (int, error)
	// FieldEquals returns the rendered value of one field of a stored record.
	FieldEquals(ctx context.Context, kind events.Kind, id entity.Identity, field string) (string, error)
	// Rollback removes every record with a block number >= block from the
	// given kinds, or from all kinds when none are given. It returns the
	// number of removed records.
	Rollback(ctx context.Context, block uint64, kinds ...events.Kind) (int, error)
	// Reset removes every record of every kind.
	Reset(ctx context.Context) error
	Close() error
}

// New creates the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	log = log.WithComponent(common.ComponentStore)

	switch cfg.Backend {
	case config.StoreBackendMemory:
		return NewMemoryStore(), nil
	case config.StoreBackendSQLite, "":
		return NewSQLiteStore(ctx, cfg.DB, cfg.Maintenance, log)
	case config.StoreBackendPostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres backend selected without postgres configuration")
		}
		return NewPostgresStore(ctx, *cfg.Postgres, log)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

func validKinds(kinds []events.Kind) ([]events.Kind, error) {
	if len(kinds) == 0 {
		return events.AllKinds(), nil
	}

	// canonical order, so multi-kind locking never deadlocks
	want := make(map[events.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
		}
		want[k] = struct{}{}
	}

	out := make([]events.Kind, 0, len(want))
	for _, k := range events.AllKinds() {
		if _, ok := want[k]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func checkKind(kind events.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return nil
}

func checkField(kind events.Kind, field string) error {
	for _, name := range entity.FieldNames(kind) {
		if name == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, kind, field)
}

func checkEntity(e entity.Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrUnknownKind)
	}
	return checkKind(e.Kind())
}

// fieldEquals implements Store.FieldEquals on top of Get.
func fieldEquals(
	ctx context.Context, s Store, kind events.Kind, id entity.Identity, field string,
) (string, error) {
	if err := checkKind(kind); err != nil {
		return "", err
	}
	if err := checkField(kind, field); err != nil {
		return "", err
	}

	e, err := s.Get(ctx, kind, id)
	if err != nil {
		return "", err
	}

	v, _ := entity.Lookup(e, field)
	return v, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
