// Package model defines the domain types shared across the steel
// arrangement engine and the interfaces of its external collaborators.
package model

import (
	"context"
	"errors"
	"time"

	"github.com/chazu/steelhook/pkg/geom"
)

// ErrObjectNotFound is returned by ObjectLookup implementations when no
// object carries the requested name.
var ErrObjectNotFound = errors.New("surface object not found")

// SurfaceObject is a named geometric entity owned by the host geometry
// store. The engine only reads it.
type SurfaceObject struct {
	Name            string    `json:"name"`
	BoundingBox     geom.Box  `json:"bounding_box"`
	CenterOfGravity geom.Vec3 `json:"center_of_gravity"`
	Definition      string    `json:"definition,omitempty"` // construction expression, may be "REF <name>"
	CreatedAt       time.Time `json:"created_at"`
}

// GenericType is the coarse structural type derived from orientation.
type GenericType string

const (
	GenericTBH  GenericType = "TBH" // transverse bulkhead
	GenericLBH  GenericType = "LBH" // longitudinal bulkhead
	GenericDeck GenericType = "DK"  // deck-like
)

// Specific type codes used in leaf arrangement names.
const (
	CodeTBH    = "1-TBH_1"
	CodeLBH    = "0-LBH_1"
	CodePillar = "2-PILLAR"
	CodeDeck   = "3-DECK_1"
)

// StructureType pairs the generic type with the code used in leaf names.
type StructureType struct {
	Generic GenericType `json:"generic"`
	Code    string      `json:"code"`
}

// IsZero reports whether no type has been assigned.
func (t StructureType) IsZero() bool {
	return t.Code == ""
}

// TypeForCode returns the structure type for a specific type code. CodePillar
// and unknown codes keep the code and leave the generic type empty; the
// generic type of those objects comes from their geometry.
func TypeForCode(code string) StructureType {
	switch code {
	case CodeTBH:
		return StructureType{Generic: GenericTBH, Code: code}
	case CodeLBH:
		return StructureType{Generic: GenericLBH, Code: code}
	case CodeDeck:
		return StructureType{Generic: GenericDeck, Code: code}
	default:
		return StructureType{Code: code}
	}
}

// ObjectLookup returns surface objects by name.
type ObjectLookup interface {
	// SurfaceObject returns ErrObjectNotFound when the name is unknown.
	SurfaceObject(ctx context.Context, name string) (*SurfaceObject, error)
}

// TypeRegistry records the structure type assigned to each object.
type TypeRegistry interface {
	// StructureType returns the assigned type and whether one exists.
	StructureType(ctx context.Context, name string) (StructureType, bool, error)
	SetStructureType(ctx context.Context, name string, t StructureType) error
}
