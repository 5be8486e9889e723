package migrations

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/goran-ethernal/ProposalIndexor/internal/db"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed sqlite_001_entities.sql
var sqlite001 string

//go:embed postgres_001_entities.sql
var postgres001 string

// For returns the entity schema migrations for the given dialect.
func For(dialect db.Dialect) ([]db.Migration, error) {
	switch dialect.Name {
	case db.SQLite.Name:
		return []db.Migration{
			{
				ID:  "001_entities.sql",
				SQL: sqlite001,
			},
		}, nil
	case db.Postgres.Name:
		return []db.Migration{
			{
				ID:  "001_entities.sql",
				SQL: postgres001,
			},
		}, nil
	default:
		return nil, fmt.Errorf("no entity migrations for dialect %q", dialect.Name)
	}
}

// RunMigrations applies all pending entity migrations on conn.
func RunMigrations(log *logger.Logger, conn *sql.DB, dialect db.Dialect) error {
	migs, err := For(dialect)
	if err != nil {
		return err
	}

	return db.RunMigrationsDialect(log, conn, dialect, migs, migrate.Up, db.NoLimitMigrations)
}
