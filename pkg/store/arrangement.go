package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chazu/steelhook/pkg/arrangement"
)

// SQLiteArrangementStore implements arrangement.Persistence backed by SQLite.
type SQLiteArrangementStore struct {
	db *sql.DB
}

var _ arrangement.Persistence = (*SQLiteArrangementStore)(nil)

// NewSQLiteArrangementStore creates a new SQLiteArrangementStore.
func NewSQLiteArrangementStore(db *sql.DB) *SQLiteArrangementStore {
	return &SQLiteArrangementStore{db: db}
}

// EnsureRoot inserts the root node if it is missing.
func (s *SQLiteArrangementStore) EnsureRoot(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO arrangement_nodes (name, parent, created_at) VALUES (?, NULL, ?)
		 ON CONFLICT(name) DO NOTHING`,
		name, now(),
	)
	if err != nil {
		return fmt.Errorf("insert root: %w", err)
	}
	return nil
}

// Lookup returns the parent of a node. The root has parent "".
func (s *SQLiteArrangementStore) Lookup(ctx context.Context, name string) (string, bool, error) {
	var parent sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT parent FROM arrangement_nodes WHERE name = ?`, name,
	).Scan(&parent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup node: %w", err)
	}
	return parent.String, true, nil
}

// Children lists the child names of parent in name order.
func (s *SQLiteArrangementStore) Children(ctx context.Context, parent string) ([]string, error) {
	return s.names(ctx, `SELECT name FROM arrangement_nodes WHERE parent = ? ORDER BY name`, parent)
}

// CreateChild inserts a node. Inserting an existing name fails.
func (s *SQLiteArrangementStore) CreateChild(ctx context.Context, parent, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO arrangement_nodes (name, parent, created_at) VALUES (?, ?, ?)`,
		name, parent, now(),
	)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

// Members lists the objects attached to node in name order.
func (s *SQLiteArrangementStore) Members(ctx context.Context, node string) ([]string, error) {
	return s.names(ctx, `SELECT object FROM arrangement_members WHERE node = ? ORDER BY object`, node)
}

// AttachMember attaches object to node, replacing any earlier attachment.
func (s *SQLiteArrangementStore) AttachMember(ctx context.Context, node, object string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO arrangement_members (object, node, attached_at) VALUES (?, ?, ?)
		 ON CONFLICT(object) DO UPDATE SET node = excluded.node, attached_at = excluded.attached_at`,
		object, node, now(),
	)
	if err != nil {
		return fmt.Errorf("attach member: %w", err)
	}
	return nil
}

// DetachMember removes the attachment of object and returns the node it
// was on, or "".
func (s *SQLiteArrangementStore) DetachMember(ctx context.Context, object string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin detach: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var node string
	err = tx.QueryRowContext(ctx, `SELECT node FROM arrangement_members WHERE object = ?`, object).Scan(&node)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find member: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM arrangement_members WHERE object = ?`, object); err != nil {
		return "", fmt.Errorf("delete member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit detach: %w", err)
	}
	return node, nil
}

// NodeOf returns the node holding object, or "".
func (s *SQLiteArrangementStore) NodeOf(ctx context.Context, object string) (string, error) {
	var node string
	err := s.db.QueryRowContext(ctx, `SELECT node FROM arrangement_members WHERE object = ?`, object).Scan(&node)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("node of member: %w", err)
	}
	return node, nil
}

// CountChildren returns the number of stored children of parent.
func (s *SQLiteArrangementStore) CountChildren(ctx context.Context, parent string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM arrangement_nodes WHERE parent = ?`, parent).Scan(&n); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

func (s *SQLiteArrangementStore) names(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
