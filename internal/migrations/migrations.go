// Package migrations holds the schema of the downloader database: the sync
// checkpoint and the block hashes used for reorg detection.
package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/ProposalIndexor/internal/db"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
)

//go:embed 001_sync_state.sql
var mig001 string

//go:embed 002_block_hashes.sql
var mig002 string

// All returns the downloader migrations in order.
func All() []db.Migration {
	return []db.Migration{
		{ID: "001_sync_state.sql", SQL: mig001},
		{ID: "002_block_hashes.sql", SQL: mig002},
	}
}

// RunMigrations applies the downloader schema to an SQLite connection.
func RunMigrations(log *logger.Logger, conn *sql.DB) error {
	return db.RunMigrationsDB(log, conn, All())
}
