// Package store is the Store (C1): durable state for accounts, messages,
// rules, push filters, settings and poll status, enforcing the
// uniqueness and read/modify/write atomicity invariants the rest of
// the service depends on.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// Store wraps a *sqlx.DB and an in-memory settings cache: readers get
// a consistent snapshot, writers invalidate it synchronously before
// PATCH /settings returns.
type Store struct {
	db *sqlx.DB

	settingsMu sync.RWMutex
	settings   *model.Settings // nil means "not cached"
}

// New opens (creating if needed) the SQLite database at path with
// WAL mode, foreign keys enabled and a busy timeout, and ensures the
// parent directory exists.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate applies the schema. Idempotent: every statement is CREATE ... IF
// NOT EXISTS or INSERT OR IGNORE.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
