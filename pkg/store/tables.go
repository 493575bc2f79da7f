package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chazu/steelhook/pkg/zone"
)

// SQLiteTableStore keeps the project's external tables. It implements
// zone.TableSource.
type SQLiteTableStore struct {
	db *sql.DB
}

var _ zone.TableSource = (*SQLiteTableStore)(nil)

// NewSQLiteTableStore creates a new SQLiteTableStore.
func NewSQLiteTableStore(db *sql.DB) *SQLiteTableStore {
	return &SQLiteTableStore{db: db}
}

// PutTable replaces the rows of a table.
func (s *SQLiteTableStore) PutTable(ctx context.Context, name string, rows []zone.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put table: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_tables WHERE table_name = ?`, name); err != nil {
		return fmt.Errorf("clear table %s: %w", name, err)
	}
	for i, row := range rows {
		for col, v := range row {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO project_tables (table_name, row_index, column_name, value) VALUES (?, ?, ?, ?)`,
				name, i, col, v,
			); err != nil {
				return fmt.Errorf("insert %s row %d: %w", name, i+1, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit table %s: %w", name, err)
	}
	return nil
}

// Table returns a table and whether it exists.
func (s *SQLiteTableStore) Table(ctx context.Context, name string) (*zone.Table, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, column_name, value FROM project_tables
		 WHERE table_name = ? ORDER BY row_index, column_name`, name)
	if err != nil {
		return nil, false, fmt.Errorf("query table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	t := &zone.Table{Name: name}
	last := -1
	for rows.Next() {
		var idx int
		var col, v string
		if err := rows.Scan(&idx, &col, &v); err != nil {
			return nil, false, fmt.Errorf("scan table %s: %w", name, err)
		}
		if idx != last {
			t.Rows = append(t.Rows, zone.Row{})
			last = idx
		}
		t.Rows[len(t.Rows)-1][col] = v
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("rows iteration: %w", err)
	}
	if len(t.Rows) == 0 {
		return nil, false, nil
	}
	return t, true, nil
}
