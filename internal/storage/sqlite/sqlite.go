// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// DefaultBusyTimeout is how long a connection waits for the database write
// lock before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// Options tunes how the database is opened.
type Options struct {
	// BusyTimeout bounds the wait for the write lock. Zero uses DefaultBusyTimeout.
	BusyTimeout time.Duration
}

// New creates a new SQLiteStore with the given database path and default options.
func New(dbPath string) (*SQLiteStore, error) {
	return Open(dbPath, Options{})
}

// Open creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
//
// Every pooled connection enables foreign keys and WAL, and every transaction
// starts with BEGIN IMMEDIATE so writers serialize on the database lock
// instead of failing at their first write.
func Open(dbPath string, opts Options) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	db, err := sql.Open("sqlite", dsn(dbPath, busy))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, busyTimeout: busy}, nil
}

func dsn(path string, busy time.Duration) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
		"_pragma=journal_mode(WAL)",
		"_txlock=immediate",
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// isBusy reports whether err is SQLite failing to obtain a lock in time.
func isBusy(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	primary := se.Code() & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}

// isConstraint reports whether err is a constraint violation.
func isConstraint(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// classify attaches an error kind to database errors the engine must
// distinguish: lock timeouts and constraint violations.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isBusy(err):
		return errs.E(errs.Timeout, err)
	case isConstraint(err):
		return errs.E(errs.InvalidInput, err)
	}
	return err
}

// placeholders returns "?, ?, ..." with n placeholders for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// anyArgs converts string IDs to query arguments.
func anyArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
