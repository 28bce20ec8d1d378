package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dshills/consrope/internal/engine/rope"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database at dbPath with WAL mode enabled and
// creates the schema if needed.
func OpenSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the values table. Idempotent.
func (s *SQLite) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS rope_values (
  key         TEXT PRIMARY KEY,
  value       BLOB NOT NULL,
  length      INTEGER NOT NULL,
  updated_at  TIMESTAMP NOT NULL
);
`

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, key string, value rope.StringLike) error {
	if err := checkKey("put", key); err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return &KeyError{Op: "put", Key: key, Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rope_values (key, value, length, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, length = excluded.length, updated_at = excluded.updated_at`,
		key, data, len(data), time.Now().UTC())
	if err != nil {
		return &KeyError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (*rope.Rope, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM rope_values WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &KeyError{Op: "get", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &KeyError{Op: "get", Key: key, Err: err}
	}
	return decode(data)
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rope_values WHERE key = ?`, key)
	if err != nil {
		return &KeyError{Op: "delete", Key: key, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &KeyError{Op: "delete", Key: key, Err: err}
	}
	if n == 0 {
		return &KeyError{Op: "delete", Key: key, Err: ErrNotFound}
	}
	return nil
}

// Keys implements Store.
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM rope_values ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
