// Package geom defines the small set of geometric value types shared by
// the classification engine: points, axis-aligned boxes and axes.
package geom

import (
	"fmt"
	"math"
)

// Axis identifies one of the three ship coordinate axes.
// X runs longitudinally, Y transversely, Z vertically.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Vec3 is a 3-D point or vector in ship coordinates.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x" yaml:"x"`
	Y float64 `json:"y" msgpack:"y" yaml:"y"`
	Z float64 `json:"z" msgpack:"z" yaml:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Component returns the coordinate of v along a.
func (v Vec3) Component(a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Length()
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3 `json:"min" msgpack:"min" yaml:"min"`
	Max Vec3 `json:"max" msgpack:"max" yaml:"max"`
}

// NewBox builds a box from two opposite corners in any order.
func NewBox(a, b Vec3) Box {
	return Box{
		Min: Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)},
		Max: Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)},
	}
}

// Size returns the extent of the box along each axis.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// MinExtentAxis returns the axis along which the box is thinnest.
// On exact equality the earlier axis in X, Y, Z order wins.
func (b Box) MinExtentAxis() Axis {
	size := b.Size()
	best := AxisX
	for _, a := range []Axis{AxisY, AxisZ} {
		if size.Component(a) < size.Component(best) {
			best = a
		}
	}
	return best
}

// Range is a closed interval along one axis.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether x lies in [Min-tol, Max+tol].
func (r Range) Contains(x, tol float64) bool {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return x >= lo-tol && x <= hi+tol
}
