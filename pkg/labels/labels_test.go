package labels

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/steelhook/pkg/classify"
	"github.com/chazu/steelhook/pkg/model"
	"github.com/chazu/steelhook/pkg/zone"
)

var (
	fwd = zone.Resolution{
		Lateral: zone.LateralZone{Name: "FWD", IndexLabel: "2", RangeMin: 10, RangeMax: 20},
		Deck:    zone.DeckZone{ID: "05", ReferenceSurfaceID: "DECK05"},
	}
	lbh = classify.Classification{Type: model.TypeForCode(model.CodeLBH)}
)

func TestAssignLabels_UnionWithExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetLabels(ctx, "P1", []string{"PAINTED", "FWD"}))

	got, err := NewAssigner(store).AssignLabels(ctx, "P1", fwd, lbh)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PAINTED", "FWD", "DECK_05", "LBH"}, got)

	stored, err := store.Labels(ctx, "P1")
	require.NoError(t, err)
	assert.ElementsMatch(t, got, stored)
}

func TestAssignLabels_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewAssigner(store)

	once, err := a.AssignLabels(ctx, "P1", fwd, lbh)
	require.NoError(t, err)
	twice, err := a.AssignLabels(ctx, "P1", fwd, lbh)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Len(t, twice, 3)
}

func TestAssignLabels_NeverRemoves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewAssigner(store)

	_, err := a.AssignLabels(ctx, "P1", fwd, lbh)
	require.NoError(t, err)

	aft := fwd
	aft.Lateral.Name = "AFT"
	pillar := classify.Classification{Type: model.StructureType{Generic: model.GenericTBH, Code: model.CodePillar}}
	got, err := a.AssignLabels(ctx, "P1", aft, pillar)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"FWD", "AFT", "DECK_05", "LBH", "TBH"}, got)
}

type brokenStore struct{ *MemoryStore }

func (b *brokenStore) SetLabels(context.Context, string, []string) error {
	return errors.New("read-only")
}

func TestAssignLabels_WriteError(t *testing.T) {
	store := &brokenStore{MemoryStore: NewMemoryStore()}
	_, err := NewAssigner(store).AssignLabels(context.Background(), "P1", fwd, lbh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write labels of P1")
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		add      []string
		want     []string
	}{
		{"empty", nil, nil, []string{}},
		{"dedup", []string{"A", "A"}, []string{"A"}, []string{"A"}},
		{"drops blanks", []string{""}, []string{"B", ""}, []string{"B"}},
		{"sorted", []string{"C"}, []string{"A", "B"}, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.existing, tt.add))
		})
	}
}
