package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/steelhook/pkg/arrangement"
	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/kernel"
	"github.com/chazu/steelhook/pkg/kernel/sdfx"
	"github.com/chazu/steelhook/pkg/model"
	"github.com/chazu/steelhook/pkg/store"
	"github.com/chazu/steelhook/pkg/testhelpers"
	"github.com/chazu/steelhook/pkg/zone"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testhelpers.NewMigratedDB(t), sdfx.New())
}

func TestArrangementStorePersistence(t *testing.T) {
	s := setupStore(t).Arrangement
	ctx := context.Background()

	require.NoError(t, s.EnsureRoot(ctx, arrangement.RootName))
	require.NoError(t, s.EnsureRoot(ctx, arrangement.RootName))

	parent, ok, err := s.Lookup(ctx, arrangement.RootName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", parent)

	require.NoError(t, s.CreateChild(ctx, arrangement.RootName, "STR*FWD"))
	require.NoError(t, s.CreateChild(ctx, arrangement.RootName, "STR*AFT"))
	assert.Error(t, s.CreateChild(ctx, arrangement.RootName, "STR*FWD"), "duplicate names are rejected")

	children, err := s.Children(ctx, arrangement.RootName)
	require.NoError(t, err)
	assert.Equal(t, []string{"STR*AFT", "STR*FWD"}, children)

	parent, ok, err = s.Lookup(ctx, "STR*FWD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, arrangement.RootName, parent)

	_, ok, err = s.Lookup(ctx, "STR*NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArrangementStoreMembers(t *testing.T) {
	s := setupStore(t).Arrangement
	ctx := context.Background()
	require.NoError(t, s.EnsureRoot(ctx, arrangement.RootName))
	require.NoError(t, s.CreateChild(ctx, arrangement.RootName, "STR*A"))
	require.NoError(t, s.CreateChild(ctx, arrangement.RootName, "STR*B"))

	require.NoError(t, s.AttachMember(ctx, "STR*A", "P1"))
	require.NoError(t, s.AttachMember(ctx, "STR*B", "P1"))

	a, err := s.Members(ctx, "STR*A")
	require.NoError(t, err)
	assert.Empty(t, a)
	node, err := s.NodeOf(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "STR*B", node)

	prev, err := s.DetachMember(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "STR*B", prev)
	prev, err = s.DetachMember(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "", prev)

	assert.Error(t, s.AttachMember(ctx, "STR*MISSING", "P2"), "foreign key rejects unknown nodes")
}

func TestTreeStoreOverSQLite(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	path := arrangement.Path{arrangement.RootName, "STR*FWD", "STR*DECK_2_05", "STR*0-LBH_1_2_05"}

	tree, err := arrangement.NewTreeStore(ctx, s.Arrangement)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tree.GetOrCreatePath(ctx, path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, parent := range path[:3] {
		n, err := s.Arrangement.CountChildren(ctx, parent)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "children of %s", parent)
	}

	leaf, err := tree.GetOrCreatePath(ctx, path)
	require.NoError(t, err)
	require.NoError(t, tree.AttachMember(ctx, leaf, "P1"))

	reopened, err := arrangement.NewTreeStore(ctx, s.Arrangement)
	require.NoError(t, err)
	found, ok, err := reopened.Find(ctx, path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"P1"}, found.Members())
}

func TestLabelStore(t *testing.T) {
	s := setupStore(t).Labels
	ctx := context.Background()

	got, err := s.Labels(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetLabels(ctx, "P1", []string{"FWD", "DECK_05", "FWD"}))
	got, err = s.Labels(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"DECK_05", "FWD"}, got)

	require.NoError(t, s.SetLabels(ctx, "P1", []string{"LBH"}))
	got, err = s.Labels(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"LBH"}, got)
}

func TestTypeStore(t *testing.T) {
	s := setupStore(t).Types
	ctx := context.Background()

	_, ok, err := s.StructureType(ctx, "B")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetStructureType(ctx, "B", model.TypeForCode(model.CodeTBH)))
	require.NoError(t, s.SetStructureType(ctx, "B", model.TypeForCode(model.CodePillar)))
	st, ok, err := s.StructureType(ctx, "B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.TypeForCode(model.CodePillar), st)
}

func TestObjectStore(t *testing.T) {
	s := setupStore(t).Objects
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	o := &model.SurfaceObject{
		Name:            "P1",
		BoundingBox:     geom.NewBox(geom.Vec3{X: 10}, geom.Vec3{X: 15, Y: 0.02, Z: 4}),
		CenterOfGravity: geom.Vec3{X: 12.3, Y: 0.01, Z: 2},
		Definition:      "REF B",
		CreatedAt:       created,
	}
	require.NoError(t, s.Put(ctx, o))

	got, err := s.SurfaceObject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, o.BoundingBox, got.BoundingBox)
	assert.Equal(t, o.CenterOfGravity, got.CenterOfGravity)
	assert.Equal(t, "REF B", got.Definition)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = s.SurfaceObject(ctx, "NOPE")
	assert.ErrorIs(t, err, model.ErrObjectNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "P1"))
	assert.ErrorIs(t, s.Delete(ctx, "P1"), store.ErrNotFound)
	assert.Error(t, s.Put(ctx, &model.SurfaceObject{}))
}

func TestObjectStoreDefaultsCreatedAt(t *testing.T) {
	s := setupStore(t).Objects
	ctx := context.Background()
	o := &model.SurfaceObject{Name: "P1"}
	require.NoError(t, s.Put(ctx, o))
	assert.False(t, o.CreatedAt.IsZero())
}

func TestTableStore(t *testing.T) {
	s := setupStore(t).Tables
	ctx := context.Background()

	_, ok, err := s.Table(ctx, zone.LateralTableName)
	require.NoError(t, err)
	assert.False(t, ok, "absent table")

	rows := []zone.Row{
		{zone.ColName: "AFT", zone.ColLower: "0", zone.ColUpper: "10", zone.ColIndex: "1"},
		{zone.ColName: "FWD", zone.ColLower: "10", zone.ColUpper: "20", zone.ColIndex: "2"},
	}
	require.NoError(t, s.PutTable(ctx, zone.LateralTableName, rows))

	tbl, ok, err := s.Table(ctx, zone.LateralTableName)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, tbl.Rows)

	zones, err := zone.LoadLateralZones(ctx, s, zone.Coordinates{})
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "FWD", zones[0].Name)
}

func TestSurfaceStore(t *testing.T) {
	s := setupStore(t).Surfaces
	ctx := context.Background()

	spec := kernel.SurfaceSpec{ID: "DK5", Pieces: []geom.Box{
		geom.NewBox(geom.Vec3{X: 0, Y: -10, Z: 5}, geom.Vec3{X: 100, Y: 10, Z: 5}),
	}}
	require.NoError(t, s.Put(ctx, spec))

	surf, err := s.Surface(ctx, "DK5")
	require.NoError(t, err)
	cp := surf.ClosestPoint(geom.Vec3{X: 50, Z: 8})
	assert.InDelta(t, 5.0, cp.Z, 1e-3)

	again, err := s.Surface(ctx, "DK5")
	require.NoError(t, err)
	assert.Same(t, surf, again)

	_, err = s.Surface(ctx, "NOPE")
	assert.True(t, errors.Is(err, kernel.ErrSurfaceNotFound))
}

func TestImportProject(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	pd, err := zone.LoadProjectYAML(strings.NewReader(`
tables:
  TAB*MVZ:
    - {NAME: FWD, LLIMIT: "10", ULIMIT: "20", NR: "2"}
  TAB*DECKS:
    - {NAME: "03", SURFACE: DK3}
    - {NAME: "05", SURFACE: DK5}
surfaces:
  - id: DK3
    pieces:
      - {min: {x: 0, y: -10, z: 3}, max: {x: 100, y: 10, z: 3}}
  - id: DK5
    pieces:
      - {min: {x: 0, y: -10, z: 5}, max: {x: 100, y: 10, z: 5}}
`))
	require.NoError(t, err)
	require.NoError(t, s.ImportProject(ctx, pd))

	r := zone.NewResolver(zone.NewCatalog(s.Tables), s.Surfaces)
	res, err := r.Resolve(ctx, geom.Vec3{X: 12.3, Z: 4.5})
	require.NoError(t, err)
	assert.Equal(t, "FWD", res.Lateral.Name)
	assert.Equal(t, "05", res.Deck.ID)
}
