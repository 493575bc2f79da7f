package zone

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/kernel"
	"github.com/chazu/steelhook/pkg/kernel/sdfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pointSurface projects every query onto one fixed point.
type pointSurface struct{ p geom.Vec3 }

func (s pointSurface) ClosestPoint(geom.Vec3) geom.Vec3 { return s.p }
func (s pointSurface) BoundingBox() geom.Box           { return geom.Box{Min: s.p, Max: s.p} }

func surfaces(points map[string]geom.Vec3) *kernel.Registry {
	r := kernel.NewRegistry()
	for id, p := range points {
		r.Put(id, pointSurface{p})
	}
	return r
}

func TestResolveLateralZone(t *testing.T) {
	zones := []LateralZone{
		{Name: "AFT", IndexLabel: "1", RangeMin: 0, RangeMax: 10},
		{Name: "FWD", IndexLabel: "2", RangeMin: 10, RangeMax: 20},
		{Name: "MID", IndexLabel: "3", RangeMin: 5, RangeMax: 15},
	}

	tests := []struct {
		name string
		x    float64
		want string
		ok   bool
	}{
		{"inside single zone", 2, "AFT", true},
		{"inside upper zone", 18, "FWD", true},
		// MID and AFT both contain 7; names descending puts MID first.
		{"overlap picks descending name", 7, "MID", true},
		// 10 is in AFT, FWD and MID; MID is highest by name.
		{"shared boundary", 10, "MID", true},
		{"within tolerance above", 20.005, "FWD", true},
		{"within tolerance below", -0.009, "AFT", true},
		{"outside tolerance", 20.02, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, ok := ResolveLateralZone(geom.Vec3{X: tt.x}, zones)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, z.Name)
		})
	}
}

func TestResolveLateralZoneDoesNotReorderInput(t *testing.T) {
	zones := []LateralZone{{Name: "A", RangeMax: 1}, {Name: "B", RangeMax: 1}}
	_, _ = ResolveLateralZone(geom.Vec3{}, zones)
	assert.Equal(t, "A", zones[0].Name)
}

func TestResolveDeckZoneTieBreakOnHeight(t *testing.T) {
	ctx := context.Background()
	p := geom.Vec3{X: 0, Y: 0, Z: 0}
	// Both closest points are exactly 5.0 away; heights 2.0 and 4.0.
	lookup := surfaces(map[string]geom.Vec3{
		"LOW":  {X: 0, Y: 4.58257569495584, Z: 2},
		"HIGH": {X: 0, Y: 3, Z: 4},
	})
	zones := []DeckZone{{ID: "02", ReferenceSurfaceID: "LOW"}, {ID: "04", ReferenceSurfaceID: "HIGH"}}

	z, ok, err := ResolveDeckZone(ctx, p, zones, lookup)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "04", z.ID)
}

func TestResolveDeckZoneOnlyTwoNearestCompete(t *testing.T) {
	ctx := context.Background()
	p := geom.Vec3{Z: 5}
	lookup := surfaces(map[string]geom.Vec3{
		"DK4":  {Z: 4},
		"DK7":  {Z: 7},
		"DK20": {Z: 20}, // highest but far away
	})
	zones := []DeckZone{
		{ID: "20", ReferenceSurfaceID: "DK20"},
		{ID: "04", ReferenceSurfaceID: "DK4"},
		{ID: "07", ReferenceSurfaceID: "DK7"},
	}

	z, ok, err := ResolveDeckZone(ctx, p, zones, lookup)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "07", z.ID)
}

func TestResolveDeckZoneStepEdgeDoesNotWin(t *testing.T) {
	ctx := context.Background()
	k := sdfx.New()
	reg := kernel.NewRegistry()
	for id, z := range map[string]float64{"A": 6.4, "B": 6.0} {
		s, err := k.Deck(id, z, 0, 100, -10, 10)
		require.NoError(t, err)
		reg.Put(id, s)
	}
	stepped, err := k.Build(kernel.SurfaceSpec{
		ID: "S",
		Pieces: []geom.Box{
			geom.NewBox(geom.Vec3{X: 0, Y: -10, Z: 5}, geom.Vec3{X: 50, Y: 10, Z: 5}),
			geom.NewBox(geom.Vec3{X: 50, Y: -10, Z: 8}, geom.Vec3{X: 100, Y: 10, Z: 8}),
		},
	})
	require.NoError(t, err)
	reg.Put("S", stepped)

	zones := []DeckZone{
		{ID: "S", ReferenceSurfaceID: "S"},
		{ID: "A", ReferenceSurfaceID: "A"},
		{ID: "B", ReferenceSurfaceID: "B"},
	}
	// A is 0.1 away and B 0.5; both steps of S are 1.5 away.
	z, ok, err := ResolveDeckZone(ctx, geom.Vec3{X: 50, Y: 0, Z: 6.5}, zones, reg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", z.ID)
}

func TestResolveDeckZoneDegenerate(t *testing.T) {
	ctx := context.Background()
	lookup := surfaces(map[string]geom.Vec3{"DK1": {Z: 1}})

	_, ok, err := ResolveDeckZone(ctx, geom.Vec3{}, nil, lookup)
	require.NoError(t, err)
	assert.False(t, ok)

	z, ok, err := ResolveDeckZone(ctx, geom.Vec3{Z: 100}, []DeckZone{{ID: "01", ReferenceSurfaceID: "DK1"}}, lookup)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "01", z.ID)
}

func TestResolveDeckZoneMissingSurface(t *testing.T) {
	_, _, err := ResolveDeckZone(context.Background(), geom.Vec3{}, []DeckZone{{ID: "01", ReferenceSurfaceID: "GONE"}}, kernel.NewRegistry())
	require.Error(t, err)
	assert.True(t, errors.Is(err, kernel.ErrSurfaceNotFound))
}

func newTestCatalog() *MemoryTables {
	m := NewMemoryTables()
	m.Put(LateralTableName, []Row{
		{ColName: "AFT", ColLower: "0", ColUpper: "10", ColIndex: "1"},
		{ColName: "FWD", ColLower: "10", ColUpper: "20", ColIndex: "2"},
	})
	m.Put(DeckTableName, []Row{
		{ColName: "03", ColSurface: "DK3"},
		{ColName: "05", ColSurface: "DK5"},
	})
	return m
}

func TestCatalogLoadsAndOrders(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(newTestCatalog())

	lateral, err := cat.LateralZones(ctx)
	require.NoError(t, err)
	require.Len(t, lateral, 2)
	assert.Equal(t, "FWD", lateral[0].Name)
	assert.Equal(t, "2", lateral[0].IndexLabel)
	assert.Equal(t, 10.0, lateral[0].RangeMin)
	assert.Equal(t, 20.0, lateral[0].RangeMax)

	decks, err := cat.DeckZones(ctx)
	require.NoError(t, err)
	assert.Equal(t, []DeckZone{{ID: "03", ReferenceSurfaceID: "DK3"}, {ID: "05", ReferenceSurfaceID: "DK5"}}, decks)
}

func TestCatalogAbsentTablesAreEmpty(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(NewMemoryTables())

	lateral, err := cat.LateralZones(ctx)
	require.NoError(t, err)
	assert.Empty(t, lateral)

	decks, err := cat.DeckZones(ctx)
	require.NoError(t, err)
	assert.Empty(t, decks)
}

func TestCatalogCachesUntilReload(t *testing.T) {
	ctx := context.Background()
	tables := newTestCatalog()
	cat := NewCatalog(tables)

	_, err := cat.LateralZones(ctx)
	require.NoError(t, err)

	tables.Put(LateralTableName, []Row{{ColName: "ONLY", ColLower: "0", ColUpper: "1", ColIndex: "9"}})
	lateral, _ := cat.LateralZones(ctx)
	assert.Len(t, lateral, 2, "cached tables survive source changes")

	cat.Reload()
	lateral, _ = cat.LateralZones(ctx)
	require.Len(t, lateral, 1)
	assert.Equal(t, "ONLY", lateral[0].Name)
}

func TestCatalogRowErrors(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	tables.Put(LateralTableName, []Row{{ColName: "X", ColLower: "0", ColUpper: "ten", ColIndex: "1"}})
	_, err := NewCatalog(tables).LateralZones(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	tables = NewMemoryTables()
	tables.Put(DeckTableName, []Row{{ColName: "01"}})
	_, err = NewCatalog(tables).DeckZones(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestCatalogFrameCoordinates(t *testing.T) {
	ctx := context.Background()
	tables := NewMemoryTables()
	tables.Put(LateralTableName, []Row{{ColName: "ER", ColLower: "#FR10", ColUpper: "FR20+0.4", ColIndex: "4"}})

	cat := NewCatalog(tables, WithCoordinates(Coordinates{FrameSpacing: 0.8}))
	lateral, err := cat.LateralZones(ctx)
	require.NoError(t, err)
	require.Len(t, lateral, 1)
	assert.InDelta(t, 8.0, lateral[0].RangeMin, 1e-9)
	assert.InDelta(t, 16.4, lateral[0].RangeMax, 1e-9)
}

func TestCoordinatesParse(t *testing.T) {
	c := Coordinates{FrameSpacing: 0.7, FrameOrigin: -1}
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.5", 12.5, false},
		{" -3 ", -3, false},
		{"FR0", -1, false},
		{"fr10", 6, false},
		{"#FR10-0.5", 5.5, false},
		{"FR-2", -2.4, false},
		{"FR-2+0.4", -2, false},
		{"FRX", 0, true},
		{"deck", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := c.Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := Coordinates{}.Parse("FR3")
	assert.True(t, errors.Is(err, ErrFramesDisabled))
}

func TestResolverResolve(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(newTestCatalog())
	lookup := surfaces(map[string]geom.Vec3{
		"DK3": {X: 12.3, Z: 3},
		"DK5": {X: 12.3, Z: 5},
	})
	r := NewResolver(cat, lookup)

	res, err := r.Resolve(ctx, geom.Vec3{X: 12.3, Z: 3.5})
	require.NoError(t, err)
	assert.Equal(t, "FWD", res.Lateral.Name)
	assert.Equal(t, "05", res.Deck.ID)

	_, err = r.Resolve(ctx, geom.Vec3{X: 50})
	assert.True(t, errors.Is(err, ErrUnresolvedLateral))

	empty := NewMemoryTables()
	empty.Put(LateralTableName, []Row{{ColName: "AFT", ColLower: "0", ColUpper: "10", ColIndex: "1"}})
	_, err = NewResolver(NewCatalog(empty), lookup).Resolve(ctx, geom.Vec3{X: 1})
	assert.True(t, errors.Is(err, ErrUnresolvedDeck))
}

func TestLoadProjectYAML(t *testing.T) {
	src := `
tables:
  TAB*MVZ:
    - {NAME: FWD, LLIMIT: "10", ULIMIT: "20", NR: "2"}
  TAB*DECKS:
    - {NAME: "05", SURFACE: DK5}
surfaces:
  - id: DK5
    pieces:
      - {min: {x: 0, y: -10, z: 5}, max: {x: 100, y: 10, z: 5}}
`
	pd, err := LoadProjectYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, pd.Surfaces, 1)
	assert.Equal(t, "DK5", pd.Surfaces[0].ID)
	assert.Equal(t, 5.0, pd.Surfaces[0].Pieces[0].Max.Z)

	tables := NewMemoryTables()
	pd.Apply(tables)
	decks, err := LoadDeckZones(context.Background(), tables)
	require.NoError(t, err)
	assert.Equal(t, []DeckZone{{ID: "05", ReferenceSurfaceID: "DK5"}}, decks)
}

func TestLoadProjectYAMLRejectsAnonymousSurface(t *testing.T) {
	_, err := LoadProjectYAML(strings.NewReader("surfaces:\n  - pieces: []\n"))
	assert.Error(t, err)
}
