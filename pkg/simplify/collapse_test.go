package simplify

import (
	"testing"

	"github.com/Faultbox/midgard-lod/pkg/math"
	"github.com/Faultbox/midgard-lod/pkg/meshgen"
)

// fan is a square of four triangles around a center vertex at the origin,
// all facing +Z.
func fan(t *testing.T) *Simplifier {
	t.Helper()
	s, err := New(MeshData{
		Positions: []math.Vec3{
			{}, {X: 1}, {Y: 1}, {X: -1}, {Y: -1},
		},
		Indices: []uint32{
			0, 1, 2,
			0, 2, 3,
			0, 3, 4,
			0, 4, 1,
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestFlippedAcceptsSmallMove(t *testing.T) {
	s := fan(t)
	deleted := make([]bool, s.vertices[0].refCount)

	if s.flipped(math.Vec3{X: 0.1}, 0, 1, deleted) {
		t.Fatal("small move toward the kept vertex reported as flipped")
	}

	want := []bool{true, false, false, true}
	for k := range want {
		if deleted[k] != want[k] {
			t.Errorf("deleted[%d] = %v, want %v", k, deleted[k], want[k])
		}
	}
}

func TestFlippedRejectsInversion(t *testing.T) {
	s := fan(t)
	deleted := make([]bool, s.vertices[0].refCount)

	// Pulling the center past the opposite rim turns the far triangles over.
	if !s.flipped(math.Vec3{X: -3}, 0, 1, deleted) {
		t.Error("inverting move was not rejected")
	}
}

func TestFlippedRejectsSliver(t *testing.T) {
	s := fan(t)
	deleted := make([]bool, s.vertices[0].refCount)

	// (1,2) lies on the line through vertices 2 and 3, so triangle 0-2-3
	// would become a zero-area sliver.
	if !s.flipped(math.Vec3{X: 1, Y: 2}, 0, 1, deleted) {
		t.Error("sliver-producing move was not rejected")
	}
}

func TestFlippedRejectsZeroAreaNeighbour(t *testing.T) {
	// The fan plus a zero-area triangle through the center along Z.
	s, err := New(MeshData{
		Positions: []math.Vec3{
			{}, {X: 1}, {Y: 1}, {X: -1}, {Y: -1}, {Z: 1}, {Z: -1},
		},
		Indices: []uint32{
			0, 1, 2,
			0, 2, 3,
			0, 3, 4,
			0, 4, 1,
			0, 5, 6,
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if n := s.triangles[4].normal; n != (math.Vec3{}) {
		t.Fatalf("zero-area triangle normal = %v, want zero", n)
	}

	// The same move passes on the plain fan. A zero normal can never agree
	// with the moved triangle, so the center stays pinned.
	deleted := make([]bool, s.vertices[0].refCount)
	if !s.flipped(math.Vec3{X: 0.1}, 0, 1, deleted) {
		t.Error("move next to a zero-area triangle was accepted")
	}
}

func TestEdgeErrorBorderUsesEndpoints(t *testing.T) {
	s := fan(t)

	// Vertices 1 and 2 are both on the rim.
	if !s.vertices[1].border || !s.vertices[2].border {
		t.Fatal("rim vertices should be border")
	}
	_, p := s.edgeError(1, 2)
	if p != s.vertices[1].p && p != s.vertices[2].p {
		t.Errorf("border collapse target %v is not an endpoint", p)
	}
}

func TestEdgeErrorBorderTiePrefersSecond(t *testing.T) {
	s, err := New(quad())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// The quad is flat, so both corners cost nothing.
	e, p := s.edgeError(0, 1)
	if e != 0 {
		t.Fatalf("flat border edge error = %v, want 0", e)
	}
	if p != s.vertices[1].p {
		t.Errorf("tie resolved to %v, want second endpoint %v", p, s.vertices[1].p)
	}
}

func TestEdgeErrorFlatInteriorUsesMidpoint(t *testing.T) {
	m, err := meshgen.Plane(4, 4, 4, 4)
	if err != nil {
		t.Fatalf("Plane failed: %v", err)
	}
	s, err := New(MeshData{Positions: m.Positions, Indices: m.Indices})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Vertices 6 and 7 sit on the second row, away from the rim.
	v6, v7 := s.vertices[6], s.vertices[7]
	if v6.border || v7.border {
		t.Fatal("vertices 6 and 7 should be interior")
	}
	if _, ok := v6.q.Add(v7.q).Optimal(); ok {
		t.Fatal("flat quadric should be singular")
	}

	e, p := s.edgeError(6, 7)
	if e != 0 {
		t.Errorf("flat edge error = %v, want 0", e)
	}
	want := math.Vec3{X: -0.5, Z: -1}
	if p != want || p != v6.p.Mid(v7.p) {
		t.Errorf("collapse target = %v, want midpoint %v", p, want)
	}
}

func TestEdgeErrorInteriorUsesOptimum(t *testing.T) {
	s, err := New(tetrahedron())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	e, p := s.edgeError(0, 1)
	q := s.vertices[0].q.Add(s.vertices[1].q)
	for _, c := range []math.Vec3{s.vertices[0].p, s.vertices[1].p, s.vertices[0].p.Mid(s.vertices[1].p)} {
		if q.Evaluate(c) < e-1e-9 {
			t.Errorf("candidate %v beats the optimum %v: %v < %v", c, p, q.Evaluate(c), e)
		}
	}
	if e <= 0 {
		t.Errorf("expected positive error on a tetrahedron edge, got %v", e)
	}
}

func TestLinkRejectsPinch(t *testing.T) {
	s, err := New(tetrahedron())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Collapse one edge by hand: the result is a two-sided sheet.
	out := s.SimplifyToError(1e10, 1)
	checkMesh(t, out)
	if out.TriangleCount() != 2 {
		t.Fatalf("expected a 2-triangle sheet, got %d triangles", out.TriangleCount())
	}

	// Any further collapse would pinch the sheet into a lone edge.
	s2, err := New(out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s2.deleted0 = resize(s2.deleted0, int(s2.vertices[0].refCount))
	s2.deleted1 = resize(s2.deleted1, int(s2.vertices[1].refCount))
	s2.flipped(s2.vertices[0].p, 0, 1, s2.deleted0)
	s2.flipped(s2.vertices[0].p, 1, 0, s2.deleted1)
	if s2.linkOK(0, 1) {
		t.Error("collapse of a two-triangle sheet edge was allowed")
	}
}

func TestLinkAllowsInteriorEdge(t *testing.T) {
	s, err := New(MeshData{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}, {X: -1}, {Y: -1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4, 0, 4, 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s.deleted0 = resize(s.deleted0, int(s.vertices[0].refCount))
	s.deleted1 = resize(s.deleted1, int(s.vertices[1].refCount))
	p := s.vertices[1].p
	if s.flipped(p, 0, 1, s.deleted0) || s.flipped(p, 1, 0, s.deleted1) {
		t.Fatal("collapse onto a rim vertex should not flip")
	}
	if !s.linkOK(0, 1) {
		t.Error("manifold collapse was rejected")
	}
}
