// Package simplify reduces triangle meshes with quadric error metric edge collapses.
//
// The simplifier keeps vertices, triangles and adjacency in flat arrays
// addressed by index. Triangles are soft-deleted during a pass and only
// removed by the final compaction, so indices stay stable until then.
package simplify

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Input validation errors.
var (
	ErrEmptyMesh  = errors.New("mesh has no triangles")
	ErrIndexCount = errors.New("index count is not a multiple of 3")
	ErrIndexRange = errors.New("vertex index out of range")
)

// MeshData is an indexed triangle list.
type MeshData struct {
	Positions []math.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of triangles in the index list.
func (m MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks that the index list describes whole triangles that
// only reference existing positions.
func (m MeshData) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: got %d", ErrIndexCount, len(m.Indices))
	}
	if len(m.Positions) == 0 || len(m.Indices) == 0 {
		return ErrEmptyMesh
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: indices[%d] = %d with %d positions", ErrIndexRange, i, idx, len(m.Positions))
		}
	}
	return nil
}

type triangle struct {
	v       [3]uint32
	err     [4]float64 // per-edge error, [3] caches the minimum
	deleted bool
	dirty   bool
	normal  math.Vec3 // unit normal at construction time
}

func (t *triangle) degenerate() bool {
	return t.v[0] == t.v[1] || t.v[1] == t.v[2] || t.v[2] == t.v[0]
}

type vertex struct {
	p        math.Vec3
	refStart uint32
	refCount uint32
	q        Quadric
	border   bool
}

// ref ties a triangle to the corner slot a vertex occupies in it.
type ref struct {
	tri  uint32
	slot uint32
}
