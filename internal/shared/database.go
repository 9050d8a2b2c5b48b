package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenStateDB opens the SQLite database that holds tokens, key-value state,
// and the scrobble log, applying the pool limits from cfg. A cfg.Path of
// ":memory:" gives a throwaway database; pair it with MaxOpenConns of 1,
// since each in-memory connection is a distinct database.
func OpenStateDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	return db, nil
}
