// ABOUTME: SQLite-backed pipeline store
// ABOUTME: Wraps a *sql.DB and implements the board's Catalog interface
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

type Store struct {
	db *sql.DB
}

var _ board.Catalog = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migration bookkeeping.
func (s *Store) DB() *sql.DB {
	return s.db
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", kind, err)
}
