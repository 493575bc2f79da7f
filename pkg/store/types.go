package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chazu/steelhook/pkg/model"
)

// SQLiteTypeStore implements model.TypeRegistry backed by SQLite.
type SQLiteTypeStore struct {
	db *sql.DB
}

var _ model.TypeRegistry = (*SQLiteTypeStore)(nil)

// NewSQLiteTypeStore creates a new SQLiteTypeStore.
func NewSQLiteTypeStore(db *sql.DB) *SQLiteTypeStore {
	return &SQLiteTypeStore{db: db}
}

// StructureType returns the recorded type of an object.
func (s *SQLiteTypeStore) StructureType(ctx context.Context, name string) (model.StructureType, bool, error) {
	var st model.StructureType
	var generic string
	err := s.db.QueryRowContext(ctx,
		`SELECT generic, code FROM structure_types WHERE object = ?`, name,
	).Scan(&generic, &st.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StructureType{}, false, nil
		}
		return model.StructureType{}, false, fmt.Errorf("get structure type: %w", err)
	}
	st.Generic = model.GenericType(generic)
	return st, true, nil
}

// SetStructureType records the type of an object.
func (s *SQLiteTypeStore) SetStructureType(ctx context.Context, name string, t model.StructureType) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO structure_types (object, generic, code, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(object) DO UPDATE SET generic = excluded.generic, code = excluded.code, updated_at = excluded.updated_at`,
		name, string(t.Generic), t.Code, now(),
	)
	if err != nil {
		return fmt.Errorf("set structure type: %w", err)
	}
	return nil
}
