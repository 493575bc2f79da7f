package model

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/steelhook/pkg/geom"
)

func TestTypeForCode(t *testing.T) {
	tests := []struct {
		code string
		want GenericType
	}{
		{CodeTBH, GenericTBH},
		{CodeLBH, GenericLBH},
		{CodeDeck, GenericDeck},
		{CodePillar, ""},
		{"9-CUSTOM", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			st := TypeForCode(tt.code)
			if st.Generic != tt.want {
				t.Errorf("TypeForCode(%q).Generic = %q, want %q", tt.code, st.Generic, tt.want)
			}
			if st.Code != tt.code {
				t.Errorf("code = %q, want %q", st.Code, tt.code)
			}
		})
	}
}

func TestMemoryObjects(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryObjects()
	m.Put(SurfaceObject{Name: "BH1", BoundingBox: geom.NewBox(geom.Vec3{}, geom.Vec3{X: 1, Y: 2, Z: 3})})

	got, err := m.SurfaceObject(ctx, "BH1")
	if err != nil {
		t.Fatalf("SurfaceObject: %v", err)
	}
	got.Name = "mutated"
	again, _ := m.SurfaceObject(ctx, "BH1")
	if again.Name != "BH1" {
		t.Error("returned object should be a copy")
	}

	if _, err := m.SurfaceObject(ctx, "missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}

	if _, ok, _ := m.StructureType(ctx, "BH1"); ok {
		t.Error("expected no type before assignment")
	}
	if err := m.SetStructureType(ctx, "BH1", TypeForCode(CodeTBH)); err != nil {
		t.Fatal(err)
	}
	st, ok, _ := m.StructureType(ctx, "BH1")
	if !ok || st.Generic != GenericTBH {
		t.Errorf("StructureType = %+v, %v", st, ok)
	}
}
