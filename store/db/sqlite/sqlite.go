// Package sqlite is the SQLite history driver, backed by the cgo-free
// modernc.org/sqlite database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// SQLite driver.
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection. ttl is the per-turn expiry applied on
// write; 0 disables it.
type DB struct {
	db  *sql.DB
	ttl time.Duration
}

// NewDB opens (or creates) the SQLite database at dsn and ensures the
// schema exists.
func NewDB(dsn string, ttl time.Duration) (*DB, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	d := &DB{db: sqldb, ttl: ttl}
	if err := d.migrate(context.Background()); err != nil {
		sqldb.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_turn (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT NOT NULL UNIQUE,
			conversation_id TEXT NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created_ts      BIGINT NOT NULL,
			expires_ts      BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turn_conversation ON conversation_turn(conversation_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return errors.Wrap(err, "migrate conversation_turn")
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
