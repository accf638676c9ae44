package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"tillpoint/internal/platform/config"
)

// Open connects to the sqlite database at the configured path. Foreign keys
// and a busy timeout are enabled on every connection via DSN parameters;
// _busy_timeout keeps concurrent writers (pairing redemptions) from failing
// with SQLITE_BUSY instead of queueing.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
