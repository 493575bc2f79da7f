// Package sdfx implements the kernel surface interfaces using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Builder = (*SdfxKernel)(nil)
	_ kernel.Surface = (*sdfxSurface)(nil)
)

// ErrNoPieces is returned when a surface spec has nothing to build.
var ErrNoPieces = errors.New("surface spec has no pieces")

// minThickness keeps zero-height decks representable as sdf boxes.
const minThickness = 1e-6

// sdfxSurface is the union of axis-aligned pieces. The sdf solid supplies
// the bounding box; closest points are computed per piece.
type sdfxSurface struct {
	s      sdf.SDF3
	pieces []geom.Box
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSurface) BoundingBox() geom.Box {
	bb := s.s.BoundingBox()
	return geom.Box{Min: fromVec(bb.Min), Max: fromVec(bb.Max)}
}

// ClosestPoint returns the nearest boundary point over all pieces.
func (s *sdfxSurface) ClosestPoint(p geom.Vec3) geom.Vec3 {
	best := closestOnBox(s.pieces[0], p)
	bestDist := geom.Distance(p, best)
	for _, b := range s.pieces[1:] {
		q := closestOnBox(b, p)
		if d := geom.Distance(p, q); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

// closestOnBox returns the point of b's boundary nearest to p. Outside the
// box that is p clamped into it; inside it is p moved onto the nearest face.
func closestOnBox(b geom.Box, p geom.Vec3) geom.Vec3 {
	q := geom.Vec3{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
	if q != p {
		return q
	}
	axis, toMax, gap := geom.AxisX, false, math.Inf(1)
	for _, a := range []geom.Axis{geom.AxisX, geom.AxisY, geom.AxisZ} {
		v := p.Component(a)
		if d := v - b.Min.Component(a); d < gap {
			axis, toMax, gap = a, false, d
		}
		if d := b.Max.Component(a) - v; d < gap {
			axis, toMax, gap = a, true, d
		}
	}
	face := b.Min.Component(axis)
	if toMax {
		face = b.Max.Component(axis)
	}
	switch axis {
	case geom.AxisX:
		q.X = face
	case geom.AxisY:
		q.Y = face
	default:
		q.Z = face
	}
	return q
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// SdfxKernel builds reference surfaces with sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// Build creates a surface from the union of the spec's pieces.
func (k *SdfxKernel) Build(spec kernel.SurfaceSpec) (kernel.Surface, error) {
	if len(spec.Pieces) == 0 {
		return nil, fmt.Errorf("surface %q: %w", spec.ID, ErrNoPieces)
	}
	parts := make([]sdf.SDF3, 0, len(spec.Pieces))
	for i, piece := range spec.Pieces {
		s, err := slab(piece)
		if err != nil {
			return nil, fmt.Errorf("surface %q piece %d: %w", spec.ID, i, err)
		}
		parts = append(parts, s)
	}
	pieces := make([]geom.Box, len(spec.Pieces))
	for i, b := range spec.Pieces {
		pieces[i] = geom.NewBox(b.Min, b.Max)
	}
	if len(parts) == 1 {
		return &sdfxSurface{s: parts[0], pieces: pieces}, nil
	}
	return &sdfxSurface{s: sdf.Union3D(parts...), pieces: pieces}, nil
}

// Deck creates a flat deck surface at height z spanning the given
// longitudinal and transverse limits.
func (k *SdfxKernel) Deck(id string, z, xMin, xMax, yMin, yMax float64) (kernel.Surface, error) {
	return k.Build(kernel.SurfaceSpec{
		ID: id,
		Pieces: []geom.Box{geom.NewBox(
			geom.Vec3{X: xMin, Y: yMin, Z: z},
			geom.Vec3{X: xMax, Y: yMax, Z: z},
		)},
	})
}

// slab creates a box solid occupying b. sdf.Box3D centers the box at the
// origin, so it is translated to the box center.
func slab(b geom.Box) (sdf.SDF3, error) {
	size := b.Size()
	s, err := sdf.Box3D(v3.Vec{
		X: math.Max(size.X, minThickness),
		Y: math.Max(size.Y, minThickness),
		Z: math.Max(size.Z, minThickness),
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	m := sdf.Translate3d(toVec(b.Center()))
	return sdf.Transform3D(s, m), nil
}

func toVec(p geom.Vec3) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func fromVec(v v3.Vec) geom.Vec3 {
	return geom.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}
