package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/ProposalIndexor/internal/db"
	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/metrics"
	"github.com/goran-ethernal/ProposalIndexor/internal/store/migrations"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
)

// SQLStore keeps one table per kind in a SQLite or PostgreSQL database.
// Rows are mapped with meddler.
type SQLStore struct {
	db          *sql.DB
	dialect     db.Dialect
	maintenance db.Maintenance
	log         *logger.Logger
}

// NewSQLiteStore opens the SQLite database described by cfg, applies the
// entity schema and starts background maintenance when configured.
func NewSQLiteStore(
	ctx context.Context,
	cfg config.DatabaseConfig,
	maintenanceCfg *config.MaintenanceConfig,
	log *logger.Logger,
) (*SQLStore, error) {
	cfg.ApplyDefaults()

	conn, err := db.NewSQLiteDBFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	maintenance := db.NewMaintenanceCoordinator(cfg.Path, conn, maintenanceCfg, log)

	s, err := NewSQLStore(conn, db.SQLite, maintenance, log)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := maintenance.Start(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start maintenance: %w", err)
	}

	return s, nil
}

// NewPostgresStore connects to PostgreSQL through pgx and applies the entity schema.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, log *logger.Logger) (*SQLStore, error) {
	cfg.ApplyDefaults()

	conn, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, &UnavailableError{Op: "connect", Err: err}
	}

	s, err := NewSQLStore(conn, db.Postgres, &db.NoOpMaintenance{}, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open connection of the given dialect and migrates it.
func NewSQLStore(conn *sql.DB, dialect db.Dialect, maintenance db.Maintenance, log *logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	if err := migrations.RunMigrations(log, conn, dialect); err != nil {
		return nil, fmt.Errorf("failed to migrate %s store: %w", dialect.Name, err)
	}

	return &SQLStore{
		db:          conn,
		dialect:     dialect,
		maintenance: maintenance,
		log:         log,
	}, nil
}

// Put upserts e into its kind's table.
func (s *SQLStore) Put(ctx context.Context, e entity.Entity) error {
	if err := checkEntity(e); err != nil {
		return err
	}
	defer s.track("put", time.Now())
	defer s.maintenance.AcquireOperationLock()()

	query, err := s.upsertQuery(e)
	if err != nil {
		return fmt.Errorf("failed to build upsert for %s: %w", e.Kind(), err)
	}

	values, err := s.dialect.Meddler.Values(e, true)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", e.Kind(), e.EntityID(), err)
	}

	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return s.fail("put", err)
	}
	return nil
}

func (s *SQLStore) upsertQuery(e entity.Entity) (string, error) {
	columns, err := s.dialect.Meddler.Columns(e, true)
	if err != nil {
		return "", err
	}
	placeholders, err := s.dialect.Meddler.PlaceholdersString(e, true)
	if err != nil {
		return "", err
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.quote(c)
	}
	table := s.quote(e.Kind().Table())
	cols := strings.Join(quoted, ", ")

	if s.dialect.Name != db.Postgres.Name {
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", table, cols, placeholders), nil
	}

	updates := make([]string, 0, len(quoted))
	for _, c := range quoted {
		if c == s.quote(entity.FieldID) {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, cols, placeholders, s.quote(entity.FieldID), strings.Join(updates, ", ")), nil
}

// Get loads the record stored under id.
func (s *SQLStore) Get(ctx context.Context, kind events.Kind, id entity.Identity) (entity.Entity, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	defer s.track("get", time.Now())
	defer s.maintenance.AcquireOperationLock()()

	e := entity.New(kind)
	columns, err := s.dialect.Meddler.ColumnsQuoted(e, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", kind, err)
	}

	//nolint:gosec // table and column names come from the fixed kind set
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		columns, s.quote(kind.Table()), s.quote(entity.FieldID), s.dialect.Placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	// ScanRow closes rows
	if err := s.dialect.Meddler.ScanRow(rows, e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return nil, s.fail("get", err)
	}
	return e, nil
}

// Count returns the number of rows in kind's table.
func (s *SQLStore) Count(ctx context.Context, kind events.Kind) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	defer s.track("count", time.Now())
	defer s.maintenance.AcquireOperationLock()()

	var n int
	//nolint:gosec // table name comes from the fixed kind set
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.quote(kind.Table()))
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, s.fail("count", err)
	}
	return n, nil
}

// FieldEquals returns the rendered value of field of the record stored under id.
func (s *SQLStore) FieldEquals(
	ctx context.Context, kind events.Kind, id entity.Identity, field string,
) (string, error) {
	return fieldEquals(ctx, s, kind, id, field)
}

// Rollback deletes rows at or above block from every requested table in a
// single transaction.
func (s *SQLStore) Rollback(ctx context.Context, block uint64, kinds ...events.Kind) (int, error) {
	targets, err := validKinds(kinds)
	if err != nil {
		return 0, err
	}
	defer s.track("rollback", time.Now())
	defer s.maintenance.AcquireOperationLock()()

	removed := 0
	err = s.inTx(ctx, "rollback", func(tx *sql.Tx) error {
		for _, k := range targets {
			//nolint:gosec // table name comes from the fixed kind set
			query := fmt.Sprintf("DELETE FROM %s WHERE block_number >= %s",
				s.quote(k.Table()), s.dialect.Placeholder(1))
			res, err := tx.ExecContext(ctx, query, block)
			if err != nil {
				return fmt.Errorf("failed to delete from %s: %w", k.Table(), err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to count deleted rows of %s: %w", k.Table(), err)
			}
			removed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debugf("rolled back %d records from block %d", removed, block)
	return removed, nil
}

// Reset deletes every row of every kind.
func (s *SQLStore) Reset(ctx context.Context) error {
	defer s.track("reset", time.Now())
	defer s.maintenance.AcquireOperationLock()()

	return s.inTx(ctx, "reset", func(tx *sql.Tx) error {
		for _, k := range events.AllKinds() {
			//nolint:gosec // table name comes from the fixed kind set
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.quote(k.Table()))); err != nil {
				return fmt.Errorf("failed to clear %s: %w", k.Table(), err)
			}
		}
		return nil
	})
}

// Close stops maintenance and closes the connection.
func (s *SQLStore) Close() error {
	if err := s.maintenance.Stop(); err != nil {
		s.log.Warnf("failed to stop maintenance: %v", err)
	}
	return s.db.Close()
}

// DB exposes the underlying connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	if err := fn(tx); err != nil {
		return s.fail(op, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(op, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// fail classifies an engine error. Context errors are returned as they are,
// everything else is reported as unavailability.
func (s *SQLStore) fail(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	metrics.StoreErrorInc(s.dialect.Name, op)
	return &UnavailableError{Op: op, Err: err}
}

func (s *SQLStore) track(op string, start time.Time) {
	metrics.StoreOpInc(s.dialect.Name, op)
	metrics.StoreOpDuration(s.dialect.Name, op, time.Since(start))
}

func (s *SQLStore) quote(name string) string {
	return s.dialect.Meddler.Quote + name + s.dialect.Meddler.Quote
}
