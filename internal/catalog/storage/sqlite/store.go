// Package sqlite provides a SQLite-backed catalog storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/civikit/catalog/internal/catalog/storage"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite/migrations"
	sqlitemigrate "github.com/civikit/catalog/internal/platform/storage/sqlitemigrate"
)

// Store persists catalog state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite catalog store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	// _txlock=immediate takes the write lock at BEGIN, so create transactions
	// that start with a parent SELECT never fail a lock upgrade mid-way.
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// nextOrdinal bumps the monotonic counter for a scope and returns the new
// ordinal. Counters never decrease, so deleted siblings keep their ordinals
// retired.
func nextOrdinal(ctx context.Context, tx *sql.Tx, scope string) (int64, error) {
	var ordinal int64
	err := tx.QueryRowContext(
		ctx,
		`INSERT INTO identifier_counters (scope, last_ordinal) VALUES (?, 1)
		 ON CONFLICT(scope) DO UPDATE SET last_ordinal = last_ordinal + 1
		 RETURNING last_ordinal`,
		scope,
	).Scan(&ordinal)
	if err != nil {
		return 0, fmt.Errorf("advance identifier counter: %w", err)
	}
	return ordinal, nil
}

// peekOrdinal returns the ordinal the next allocation in a scope would take,
// without consuming it.
func (s *Store) peekOrdinal(ctx context.Context, scope string) (int64, error) {
	var last int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT last_ordinal FROM identifier_counters WHERE scope = ?`,
		scope,
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read identifier counter: %w", err)
	}
	return last + 1, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isIdentifierUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
