package db

import (
	"context"
	"database/sql"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	icommon "github.com/goran-ethernal/ProposalIndexor/internal/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/russross/meddler"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, journal string) (*sql.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	cfg := config.DatabaseConfig{Path: dbPath, JournalMode: journal}
	cfg.ApplyDefaults()

	db, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, dbPath
}

const testMigration = `
-- +migrate Down
DROP TABLE IF EXISTS /*dbprefix*/rewards;

-- +migrate Up
CREATE TABLE /*dbprefix*/rewards (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	contributor TEXT NOT NULL,
	tx_hash     TEXT NOT NULL,
	amount      TEXT
);
`

type reward struct {
	ID          int64          `meddler:"id,pk"`
	Contributor common.Address `meddler:"contributor,address"`
	TxHash      common.Hash    `meddler:"tx_hash,hash"`
	Amount      *big.Int       `meddler:"amount,bigint"`
}

func TestRunMigrationsAndMeddlers(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t, "WAL")
	require.NoError(t, RunMigrationsDB(logger.NewNopLogger(), db, []Migration{
		{ID: "001_rewards.sql", SQL: testMigration, Prefix: "test_"},
	}))

	// applying twice is a no-op
	require.NoError(t, RunMigrationsDB(logger.NewNopLogger(), db, []Migration{
		{ID: "001_rewards.sql", SQL: testMigration, Prefix: "test_"},
	}))

	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)

	in := &reward{
		Contributor: common.HexToAddress("0xAbCdEf0000000000000000000000000000000001"),
		TxHash:      common.HexToHash("0x1234"),
		Amount:      huge,
	}
	require.NoError(t, meddler.Insert(db, "test_rewards", in))
	require.NotZero(t, in.ID)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT contributor FROM test_rewards WHERE id = ?`, in.ID).Scan(&stored))
	require.Equal(t, "0xabcdef0000000000000000000000000000000001", stored)

	out := &reward{}
	require.NoError(t, meddler.Load(db, "test_rewards", out, in.ID))
	require.Equal(t, in.Contributor, out.Contributor)
	require.Equal(t, in.TxHash, out.TxHash)
	require.Equal(t, huge.String(), out.Amount.String())

	nilAmount := &reward{Contributor: in.Contributor, TxHash: in.TxHash}
	require.NoError(t, meddler.Insert(db, "test_rewards", nilAmount))
	require.NoError(t, meddler.Load(db, "test_rewards", out, nilAmount.ID))
	require.Nil(t, out.Amount)
}

func TestMigrationMissingSeparator(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t, "WAL")
	err := RunMigrationsDB(logger.NewNopLogger(), db, []Migration{
		{ID: "broken.sql", SQL: "CREATE TABLE x (id INTEGER);"},
	})
	require.ErrorContains(t, err, "missing")
}

func TestBigIntMeddlerRejectsGarbage(t *testing.T) {
	t.Parallel()

	var v *big.Int
	err := BigIntMeddler{}.PostRead(&v, &sql.NullString{String: "12abc", Valid: true})
	require.Error(t, err)

	_, err = BigIntMeddler{}.PreWrite("100")
	require.Error(t, err)
}

func TestVacuumModes(t *testing.T) {
	t.Parallel()

	for _, journal := range []string{"WAL", "TRUNCATE"} {
		t.Run(journal, func(t *testing.T) {
			t.Parallel()

			db, dbPath := newTestDB(t, journal)
			_, err := db.Exec(`CREATE TABLE filler (id INTEGER PRIMARY KEY, value TEXT)`)
			require.NoError(t, err)
			for i := 0; i < 500; i++ {
				_, err = db.Exec(`INSERT INTO filler (value) VALUES (?)`, "some filler value that takes space")
				require.NoError(t, err)
			}
			_, err = db.Exec(`DELETE FROM filler`)
			require.NoError(t, err)

			before, err := DBTotalSize(dbPath)
			require.NoError(t, err)
			require.NoError(t, Vacuum(db))
			after, err := DBTotalSize(dbPath)
			require.NoError(t, err)

			require.Positive(t, before)
			require.Positive(t, after)
		})
	}
}

func TestDBTotalSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.db")

	size, err := DBTotalSize(mainPath)
	require.NoError(t, err)
	require.Zero(t, size)

	require.NoError(t, os.WriteFile(mainPath, []byte("main-db"), 0o600))
	require.NoError(t, os.WriteFile(mainPath+"-wal", []byte("wal-content"), 0o600))
	require.NoError(t, os.WriteFile(mainPath+"-shm", []byte("shm"), 0o600))

	size, err = DBTotalSize(mainPath)
	require.NoError(t, err)
	require.Equal(t, int64(len("main-db")+len("wal-content")+len("shm")), size)
}

func TestMaintenanceCoordinator(t *testing.T) {
	t.Parallel()

	db, dbPath := newTestDB(t, "WAL")
	_, err := db.Exec(`CREATE TABLE data (id INTEGER PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)

	m := NewMaintenanceCoordinator(dbPath, db, &config.MaintenanceConfig{
		Enabled:           true,
		CheckInterval:     icommon.NewDuration(time.Hour),
		VacuumOnStartup:   true,
		WALCheckpointMode: "TRUNCATE",
	}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx))
	require.Equal(t, uint64(1), m.GetMetrics().MaintenanceCount)
	require.NoError(t, m.GetMetrics().LastMaintenanceError)

	// maintenance waits for in-flight operations
	unlock := m.AcquireOperationLock()
	done := make(chan error, 1)
	go func() { done <- m.RunMaintenance(ctx) }()

	select {
	case <-done:
		t.Fatal("maintenance ran while an operation held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	require.NoError(t, <-done)
	require.Equal(t, uint64(2), m.GetMetrics().MaintenanceCount)

	require.NoError(t, m.Stop())
}

func TestNoOpMaintenance(t *testing.T) {
	t.Parallel()

	m := NewMaintenanceCoordinator("", nil, nil, logger.NewNopLogger())
	require.IsType(t, &NoOpMaintenance{}, m)
	require.NoError(t, m.Start(context.Background()))
	m.AcquireOperationLock()()
	require.NoError(t, m.RunMaintenance(context.Background()))
	require.NoError(t, m.Stop())
}
