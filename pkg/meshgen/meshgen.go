// Package meshgen generates procedural meshes used as simplifier inputs.
package meshgen

import (
	"errors"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Generator parameter errors.
var (
	ErrInvalidRadius   = errors.New("radius must be positive")
	ErrInvalidSize     = errors.New("plane size must be positive")
	ErrInvalidSegments = errors.New("segment counts must be positive")
	ErrTooManyLevels   = errors.New("too many subdivision levels")
)

// Mesh is an indexed triangle mesh with per-vertex attributes.
type Mesh struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       [][2]float32
	Indices   []uint32
	Bounds    Bounds
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// ComputeBounds returns the bounding box of positions.
func ComputeBounds(positions []math.Vec3) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// Size returns the extent of the box.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the center of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Mid(b.Max)
}
