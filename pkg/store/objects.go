package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/model"
)

// SQLiteObjectStore keeps surface objects registered by the host. It
// implements model.ObjectLookup.
type SQLiteObjectStore struct {
	db *sql.DB
}

var _ model.ObjectLookup = (*SQLiteObjectStore)(nil)

// NewSQLiteObjectStore creates a new SQLiteObjectStore.
func NewSQLiteObjectStore(db *sql.DB) *SQLiteObjectStore {
	return &SQLiteObjectStore{db: db}
}

// Put registers or replaces an object. A zero CreatedAt is set to now.
func (s *SQLiteObjectStore) Put(ctx context.Context, o *model.SurfaceObject) error {
	if o.Name == "" {
		return errors.New("surface object needs a name")
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	b := o.BoundingBox
	c := o.CenterOfGravity
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO surface_objects
			(name, min_x, min_y, min_z, max_x, max_y, max_z, cog_x, cog_y, cog_z, definition, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			min_x = excluded.min_x, min_y = excluded.min_y, min_z = excluded.min_z,
			max_x = excluded.max_x, max_y = excluded.max_y, max_z = excluded.max_z,
			cog_x = excluded.cog_x, cog_y = excluded.cog_y, cog_z = excluded.cog_z,
			definition = excluded.definition, created_at = excluded.created_at`,
		o.Name, b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z, c.X, c.Y, c.Z,
		o.Definition, o.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("put surface object: %w", err)
	}
	return nil
}

// SurfaceObject returns model.ErrObjectNotFound for unknown names.
func (s *SQLiteObjectStore) SurfaceObject(ctx context.Context, name string) (*model.SurfaceObject, error) {
	var o model.SurfaceObject
	var b geom.Box
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, min_x, min_y, min_z, max_x, max_y, max_z, cog_x, cog_y, cog_z, definition, created_at
		 FROM surface_objects WHERE name = ?`, name,
	).Scan(&o.Name, &b.Min.X, &b.Min.Y, &b.Min.Z, &b.Max.X, &b.Max.Y, &b.Max.Z,
		&o.CenterOfGravity.X, &o.CenterOfGravity.Y, &o.CenterOfGravity.Z, &o.Definition, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q: %w", model.ErrObjectNotFound, name, ErrNotFound)
		}
		return nil, fmt.Errorf("get surface object: %w", err)
	}
	o.BoundingBox = b
	if o.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", name, err)
	}
	return &o, nil
}

// Delete removes an object.
func (s *SQLiteObjectStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surface_objects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete surface object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("surface object %q: %w", name, ErrNotFound)
	}
	return nil
}
