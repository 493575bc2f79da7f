// Package kernel defines the surface kernel interface used by spatial
// resolution. Implementations (sdfx) provide closest-point queries on
// reference surfaces behind this interface, so the resolver never depends
// on a particular geometry library.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/steelhook/pkg/geom"
)

// ErrSurfaceNotFound is returned when a surface id is not known to a lookup.
var ErrSurfaceNotFound = errors.New("surface not found")

// Surface is an opaque handle to a reference surface in the kernel.
type Surface interface {
	// ClosestPoint returns the point on the surface nearest to p.
	ClosestPoint(p geom.Vec3) geom.Vec3

	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() geom.Box
}

// SurfaceLookup resolves reference surfaces by id.
type SurfaceLookup interface {
	Surface(ctx context.Context, id string) (Surface, error)
}

// SurfaceSpec describes a reference surface as the union of axis-aligned
// slabs. A flat deck is a single piece whose Z extent is zero; a stepped
// deck has one piece per level.
type SurfaceSpec struct {
	ID     string     `json:"id" yaml:"id"`
	Pieces []geom.Box `json:"pieces" yaml:"pieces"`
}

// Builder turns a SurfaceSpec into a kernel surface.
type Builder interface {
	Build(spec SurfaceSpec) (Surface, error)
}

// Registry is an in-memory SurfaceLookup. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[string]Surface
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[string]Surface)}
}

// Put registers (or replaces) the surface under id.
func (r *Registry) Put(id string, s Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[id] = s
}

// Surface implements SurfaceLookup.
func (r *Registry) Surface(_ context.Context, id string) (Surface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSurfaceNotFound, id)
	}
	return s, nil
}

// Len returns the number of registered surfaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.surfaces)
}
