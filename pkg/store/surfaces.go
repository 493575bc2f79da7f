package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/steelhook/pkg/kernel"
)

// SQLiteSurfaceStore keeps reference surface specs and builds them into
// queryable surfaces on first use. It implements kernel.SurfaceLookup.
type SQLiteSurfaceStore struct {
	db      *sql.DB
	builder kernel.Builder

	mu    sync.Mutex
	built map[string]kernel.Surface
}

var _ kernel.SurfaceLookup = (*SQLiteSurfaceStore)(nil)

// NewSQLiteSurfaceStore creates a new SQLiteSurfaceStore.
func NewSQLiteSurfaceStore(db *sql.DB, builder kernel.Builder) *SQLiteSurfaceStore {
	return &SQLiteSurfaceStore{db: db, builder: builder, built: make(map[string]kernel.Surface)}
}

// Put stores or replaces a surface spec.
func (s *SQLiteSurfaceStore) Put(ctx context.Context, spec kernel.SurfaceSpec) error {
	if spec.ID == "" {
		return errors.New("surface spec needs an id")
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encode surface %s: %w", spec.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_surfaces (id, spec) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET spec = excluded.spec`,
		spec.ID, string(data),
	); err != nil {
		return fmt.Errorf("put surface %s: %w", spec.ID, err)
	}

	s.mu.Lock()
	delete(s.built, spec.ID)
	s.mu.Unlock()
	return nil
}

// Spec returns a stored surface spec.
func (s *SQLiteSurfaceStore) Spec(ctx context.Context, id string) (kernel.SurfaceSpec, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT spec FROM reference_surfaces WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return kernel.SurfaceSpec{}, fmt.Errorf("%w: %q: %w", kernel.ErrSurfaceNotFound, id, ErrNotFound)
		}
		return kernel.SurfaceSpec{}, fmt.Errorf("get surface %s: %w", id, err)
	}
	var spec kernel.SurfaceSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return kernel.SurfaceSpec{}, fmt.Errorf("decode surface %s: %w", id, err)
	}
	return spec, nil
}

// Surface returns the built surface for id.
func (s *SQLiteSurfaceStore) Surface(ctx context.Context, id string) (kernel.Surface, error) {
	s.mu.Lock()
	if surf, ok := s.built[id]; ok {
		s.mu.Unlock()
		return surf, nil
	}
	s.mu.Unlock()

	spec, err := s.Spec(ctx, id)
	if err != nil {
		return nil, err
	}
	surf, err := s.builder.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("build surface %s: %w", id, err)
	}

	s.mu.Lock()
	s.built[id] = surf
	s.mu.Unlock()
	return surf, nil
}
