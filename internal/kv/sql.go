package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQL stores every key as a row of the kv_entries table. The same statements
// run on SQLite and Postgres; sqlx rebinds placeholders per driver.
type SQL struct {
	db     *sqlx.DB
	closed atomic.Bool
	now    func() time.Time
}

// OpenSQLite opens (or creates) the SQLite database at path, enables WAL
// mode, and creates the schema.
func OpenSQLite(path string) (*SQL, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return newSQL(db)
}

// OpenPostgres connects to dsn through the pgx stdlib driver and creates the
// schema.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return newSQL(db)
}

func newSQL(db *sqlx.DB) (*SQL, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQL{db: db, now: time.Now}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, types.ErrStoreClosed
	}
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT value FROM kv_entries WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return types.ErrStoreClosed
	}
	q := s.db.Rebind(`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, key, value, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	return s.MultiRemove(ctx, []string{key})
}

// MultiRemove deletes keys in one transaction.
func (s *SQL) MultiRemove(ctx context.Context, keys []string) error {
	if s.closed.Load() {
		return types.ErrStoreClosed
	}
	if len(keys) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM kv_entries WHERE key IN (?)", keys)
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("removing %d keys: %w", len(keys), err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

func (s *SQL) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, types.ErrStoreClosed
	}
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, "SELECT key FROM kv_entries ORDER BY key"); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

func (s *SQL) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

var _ types.KVStore = (*SQL)(nil)
