package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chazu/steelhook/pkg/labels"
)

// SQLiteLabelStore implements labels.Store backed by SQLite.
type SQLiteLabelStore struct {
	db *sql.DB
}

var _ labels.Store = (*SQLiteLabelStore)(nil)

// NewSQLiteLabelStore creates a new SQLiteLabelStore.
func NewSQLiteLabelStore(db *sql.DB) *SQLiteLabelStore {
	return &SQLiteLabelStore{db: db}
}

// Labels returns the labels of object in sorted order.
func (s *SQLiteLabelStore) Labels(ctx context.Context, object string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label FROM object_labels WHERE object = ? ORDER BY label`, object)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SetLabels replaces the label set of object.
func (s *SQLiteLabelStore) SetLabels(ctx context.Context, object string, lbls []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set labels: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM object_labels WHERE object = ?`, object); err != nil {
		return fmt.Errorf("clear labels: %w", err)
	}
	for _, l := range lbls {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO object_labels (object, label) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			object, l,
		); err != nil {
			return fmt.Errorf("insert label: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit labels: %w", err)
	}
	return nil
}
