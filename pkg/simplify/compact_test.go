package simplify

import (
	"slices"
	"testing"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

func TestCompactKeepsOrder(t *testing.T) {
	in := MeshData{
		Positions: []math.Vec3{
			{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2},
		},
		Indices: []uint32{
			0, 1, 2,
			1, 3, 2,
			1, 5, 3,
			3, 5, 4,
		},
	}
	s, err := New(in)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Drop the first triangle and turn the third into a sliver; vertex 0
	// loses its last reference.
	s.triangles[0].deleted = true
	s.triangles[2].v = [3]uint32{1, 5, 5}
	s.compactMesh()
	out := s.meshData()
	checkMesh(t, out)

	wantPos := in.Positions[1:]
	if !slices.Equal(out.Positions, wantPos) {
		t.Errorf("positions = %v, want %v", out.Positions, wantPos)
	}
	wantIdx := []uint32{0, 2, 1, 2, 4, 3}
	if !slices.Equal(out.Indices, wantIdx) {
		t.Errorf("indices = %v, want %v", out.Indices, wantIdx)
	}
}
