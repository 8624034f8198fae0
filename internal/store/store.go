// Package store persists settings, containers, their products and
// calculation snapshots in SQLite.
package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateProduct = errors.New("duplicate product name")
	ErrInvalidInput     = errors.New("invalid input")
)

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a migrated database.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func New(db *sql.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

func (s *Store) timestamp() string {
	return s.now().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// validID rejects strings that cannot be one of our keys before hitting the
// database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
