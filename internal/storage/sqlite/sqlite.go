// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/roster/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		// Create parent directory if it doesn't exist
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The store has a single owner; one connection also keeps an
	// in-memory database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("SQLite store opened", "path", dbPath)

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Apply writes a change set in a single transaction.
// Families are written before people so foreign keys resolve; deletes run last.
func (s *SQLiteStore) Apply(ctx context.Context, changes *storage.ChangeSet) error {
	if changes.Empty() {
		return nil
	}
	if err := s.apply(ctx, changes); err != nil {
		return &storage.SaveError{Err: err}
	}
	return nil
}

func (s *SQLiteStore) apply(ctx context.Context, changes *storage.ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, family := range changes.UpsertFamilies {
		if err := upsertFamily(ctx, tx, family); err != nil {
			return err
		}
	}

	for _, person := range changes.UpsertPeople {
		if err := upsertPerson(ctx, tx, person); err != nil {
			return err
		}
	}

	for _, id := range changes.DeletePeople {
		if _, err := tx.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete person: %w", err)
		}
	}

	// ON DELETE SET NULL clears people.family_id for remaining members.
	for _, id := range changes.DeleteFamilies {
		if _, err := tx.ExecContext(ctx, "DELETE FROM families WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete family: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// nullString maps optional text to a nullable column value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr maps a nullable column back to optional text.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
