// Package mysql is the MySQL history driver.
package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// MySQL driver.
	_ "github.com/go-sql-driver/mysql"
)

// DB wraps a MySQL connection. ttl is the per-turn expiry applied on
// write; 0 disables it.
type DB struct {
	db  *sql.DB
	ttl time.Duration
}

// NewDB connects to the MySQL server at dsn and ensures the schema
// exists.
func NewDB(dsn string, ttl time.Duration) (*DB, error) {
	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if err := sqldb.PingContext(context.Background()); err != nil {
		sqldb.Close()
		return nil, errors.Wrap(err, "ping mysql")
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
			seq             BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			id              VARCHAR(36) NOT NULL UNIQUE,
			conversation_id VARCHAR(256) NOT NULL,
			role            VARCHAR(32) NOT NULL,
			content         TEXT NOT NULL,
			created_ts      BIGINT NOT NULL,
			expires_ts      BIGINT NOT NULL DEFAULT 0,
			INDEX idx_conversation_turn_conversation (conversation_id)
		)`,
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
