// Package postgres is the PostgreSQL history driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
)

// DB wraps a PostgreSQL connection. ttl is the per-turn expiry applied
// on write; 0 disables it.
type DB struct {
	db  *sql.DB
	ttl time.Duration
}

// NewDB connects to the PostgreSQL server at dsn and ensures the schema
// exists.
func NewDB(dsn string, ttl time.Duration) (*DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := sqldb.PingContext(context.Background()); err != nil {
		sqldb.Close()
		return nil, errors.Wrap(err, "ping postgres")
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
			seq             BIGSERIAL PRIMARY KEY,
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

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
