package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	UpDownSeparator   = "-- +migrate Up"
	downMarker        = "-- +migrate Down"
	dbPrefixReplacer  = "/*dbprefix*/"
	NoLimitMigrations = 0 // indicate that there is no limit on the number of migrations to run
)

// Migration is one embedded migration script. SQL holds the Down section
// followed by the Up section, separated by UpDownSeparator.
type Migration struct {
	ID     string
	SQL    string
	Prefix string
}

// RunMigrationsDB applies pending migrations on an SQLite connection.
func RunMigrationsDB(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return RunMigrationsDialect(log, db, SQLite, migrations, migrate.Up, NoLimitMigrations)
}

// RunMigrationsDialect applies migrations in direction dir on a connection of
// the given dialect. maxMigrations limits how many are applied; pass
// NoLimitMigrations to apply all.
func RunMigrationsDialect(
	log *logger.Logger,
	db *sql.DB,
	dialect Dialect,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int,
) error {
	source, err := toMigrationSource(migrations)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(source.Migrations))
	for _, m := range source.Migrations {
		ids = append(ids, m.Id)
	}
	list := strings.Join(ids, ", ")

	log.Debugf("running %s migrations (max %d/%d): %s", dialect.Name, maxMigrations, len(ids), list)

	applied, err := migrate.ExecMax(db, dialect.Name, source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("error executing migrations (max %d/%d) %s: %w", maxMigrations, len(ids), list, err)
	}

	log.Infof("successfully ran %d migrations from: %s", applied, list)
	return nil
}

func toMigrationSource(migrations []Migration) (*migrate.MemoryMigrationSource, error) {
	source := &migrate.MemoryMigrationSource{}

	for _, m := range migrations {
		prefixed := strings.ReplaceAll(m.SQL, dbPrefixReplacer, m.Prefix)
		down, up, found := strings.Cut(prefixed, UpDownSeparator)
		if !found {
			return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, UpDownSeparator)
		}

		if _, after, ok := strings.Cut(down, downMarker); ok {
			down = after
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.Prefix + m.ID,
			Up:   []string{strings.TrimSpace(up)},
			Down: []string{strings.TrimSpace(down)},
		})
	}

	return source, nil
}
