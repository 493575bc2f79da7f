package zone

import (
	"context"
	"fmt"
	"sort"

	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/kernel"
)

// LateralTolerance is the absolute tolerance applied to lateral zone limits.
const LateralTolerance = 0.01

// deckCandidates is how many nearest deck zones compete on height.
const deckCandidates = 2

// ResolveLateralZone returns the first zone, in name-descending order, whose
// interval contains p.X within LateralTolerance.
func ResolveLateralZone(p geom.Vec3, zones []LateralZone) (LateralZone, bool) {
	ordered := append([]LateralZone(nil), zones...)
	sortLateral(ordered)
	for _, z := range ordered {
		if z.Range().Contains(p.X, LateralTolerance) {
			return z, true
		}
	}
	return LateralZone{}, false
}

// deckCandidate is a deck zone with its projection of the query point.
type deckCandidate struct {
	zone     DeckZone
	closest  geom.Vec3
	distance float64
}

// ResolveDeckZone projects p onto every deck zone's reference surface, keeps
// the two nearest zones and returns the one whose closest point lies higher.
// Equal distances keep table order; equal heights keep distance order.
func ResolveDeckZone(ctx context.Context, p geom.Vec3, zones []DeckZone, surfaces kernel.SurfaceLookup) (DeckZone, bool, error) {
	if len(zones) == 0 {
		return DeckZone{}, false, nil
	}

	candidates := make([]deckCandidate, 0, len(zones))
	for _, z := range zones {
		s, err := surfaces.Surface(ctx, z.ReferenceSurfaceID)
		if err != nil {
			return DeckZone{}, false, fmt.Errorf("deck zone %s: %w", z.ID, err)
		}
		c := s.ClosestPoint(p)
		candidates = append(candidates, deckCandidate{zone: z, closest: c, distance: geom.Distance(c, p)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > deckCandidates {
		candidates = candidates[:deckCandidates]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].closest.Z > candidates[j].closest.Z
	})
	return candidates[0].zone, true, nil
}

// Resolution is the pair of zones containing a point.
type Resolution struct {
	Lateral LateralZone
	Deck    DeckZone
}

// Resolver resolves points against the zones of a catalog.
type Resolver struct {
	catalog  *Catalog
	surfaces kernel.SurfaceLookup
}

// NewResolver creates a resolver over a catalog and a surface kernel lookup.
func NewResolver(catalog *Catalog, surfaces kernel.SurfaceLookup) *Resolver {
	return &Resolver{catalog: catalog, surfaces: surfaces}
}

// Resolve returns both zones for p. It fails with ErrUnresolvedLateral or
// ErrUnresolvedDeck when either lookup finds nothing.
func (r *Resolver) Resolve(ctx context.Context, p geom.Vec3) (Resolution, error) {
	lateral, err := r.catalog.LateralZones(ctx)
	if err != nil {
		return Resolution{}, err
	}
	lz, ok := ResolveLateralZone(p, lateral)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: x=%g", ErrUnresolvedLateral, p.X)
	}

	decks, err := r.catalog.DeckZones(ctx)
	if err != nil {
		return Resolution{}, err
	}
	dz, ok, err := ResolveDeckZone(ctx, p, decks, r.surfaces)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %v", ErrUnresolvedDeck, p)
	}
	return Resolution{Lateral: lz, Deck: dz}, nil
}
