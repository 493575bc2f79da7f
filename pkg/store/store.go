// Package store implements the engine's collaborator interfaces on SQLite.
package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/chazu/steelhook/pkg/kernel"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is used for every stored timestamp.
const timeLayout = time.RFC3339Nano

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// Store holds all sub-stores used by the application.
type Store struct {
	DB          *sql.DB
	Arrangement *SQLiteArrangementStore
	Labels      *SQLiteLabelStore
	Types       *SQLiteTypeStore
	Objects     *SQLiteObjectStore
	Tables      *SQLiteTableStore
	Surfaces    *SQLiteSurfaceStore
}

// New creates a Store with all sub-stores initialized. builder turns stored
// surface specs into queryable surfaces.
func New(db *sql.DB, builder kernel.Builder) *Store {
	return &Store{
		DB:          db,
		Arrangement: NewSQLiteArrangementStore(db),
		Labels:      NewSQLiteLabelStore(db),
		Types:       NewSQLiteTypeStore(db),
		Objects:     NewSQLiteObjectStore(db),
		Tables:      NewSQLiteTableStore(db),
		Surfaces:    NewSQLiteSurfaceStore(db, builder),
	}
}
