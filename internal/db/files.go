package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DBTotalSize returns the combined size of an SQLite database file and its
// -wal and -shm companions. Missing files count as zero.
func DBTotalSize(dbPath string) (int64, error) {
	var total int64
	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		total += info.Size()
	}
	return total, nil
}

// Vacuum rebuilds the database file, reclaiming pages freed by deletes.
func Vacuum(db *sql.DB) error {
	if _, err := db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	return nil
}
