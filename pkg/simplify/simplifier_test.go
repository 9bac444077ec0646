package simplify

import (
	"errors"
	gomath "math"
	"sync"
	"testing"

	"github.com/Faultbox/midgard-lod/pkg/math"
	"github.com/Faultbox/midgard-lod/pkg/meshgen"
)

func quad() MeshData {
	return MeshData{
		Positions: []math.Vec3{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}

func tetrahedron() MeshData {
	return MeshData{
		Positions: []math.Vec3{
			{}, {X: 1}, {Y: 1}, {Z: 1},
		},
		Indices: []uint32{
			0, 2, 1,
			0, 1, 3,
			0, 3, 2,
			1, 2, 3,
		},
	}
}

// bowl builds an open height field z = depth*(x²+y²) over [-1,1]² with
// n×n cells, wound so every face points toward +Z.
func bowl(n int, depth float32) MeshData {
	var data MeshData
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			x := -1 + 2*float32(i)/float32(n)
			y := -1 + 2*float32(j)/float32(n)
			data.Positions = append(data.Positions, math.Vec3{X: x, Y: y, Z: depth * (x*x + y*y)})
		}
	}
	row := uint32(n + 1)
	for j := uint32(0); j < uint32(n); j++ {
		for i := uint32(0); i < uint32(n); i++ {
			a := j*row + i
			b := a + 1
			c := a + row + 1
			d := a + row
			data.Indices = append(data.Indices, a, b, c, a, c, d)
		}
	}
	return data
}

func sphere(t *testing.T, level int) MeshData {
	t.Helper()
	m, err := meshgen.Icosphere(1, level)
	if err != nil {
		t.Fatalf("Icosphere failed: %v", err)
	}
	return MeshData{Positions: m.Positions, Indices: m.Indices}
}

func faceNormal(data MeshData, tri int) math.Vec3 {
	a := data.Positions[data.Indices[tri*3]]
	b := data.Positions[data.Indices[tri*3+1]]
	c := data.Positions[data.Indices[tri*3+2]]
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func edgeUse(indices []uint32) map[[2]uint32]int {
	edges := make(map[[2]uint32]int)
	for i := 0; i < len(indices); i += 3 {
		for j := 0; j < 3; j++ {
			a, b := indices[i+j], indices[i+(j+1)%3]
			edges[[2]uint32{min(a, b), max(a, b)}]++
		}
	}
	return edges
}

// checkMesh verifies the structural guarantees of every simplifier output.
func checkMesh(t *testing.T, data MeshData) {
	t.Helper()
	if len(data.Indices)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of 3", len(data.Indices))
	}
	for i, idx := range data.Indices {
		if int(idx) >= len(data.Positions) {
			t.Fatalf("indices[%d] = %d out of range (%d positions)", i, idx, len(data.Positions))
		}
	}
	for i := 0; i < len(data.Indices); i += 3 {
		a, b, c := data.Indices[i], data.Indices[i+1], data.Indices[i+2]
		if a == b || b == c || c == a {
			t.Fatalf("triangle %d is degenerate: %d %d %d", i/3, a, b, c)
		}
	}
	used := make([]bool, len(data.Positions))
	for _, idx := range data.Indices {
		used[idx] = true
	}
	for i, u := range used {
		if !u {
			t.Fatalf("vertex %d is not referenced", i)
		}
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		data MeshData
		want error
	}{
		{"empty", MeshData{}, ErrEmptyMesh},
		{"no triangles", MeshData{Positions: []math.Vec3{{}}}, ErrEmptyMesh},
		{"partial triangle", MeshData{Positions: []math.Vec3{{}, {}}, Indices: []uint32{0, 1}}, ErrIndexCount},
		{"out of range", MeshData{Positions: []math.Vec3{{}, {X: 1}, {Y: 1}}, Indices: []uint32{0, 1, 3}}, ErrIndexRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBorderDetection(t *testing.T) {
	tests := []struct {
		name string
		data MeshData
		want int
	}{
		{"quad", quad(), 4},
		{"tetrahedron", tetrahedron(), 0},
		{"bowl", bowl(4, 0.2), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.data)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if got := s.BorderVertexCount(); got != tt.want {
				t.Errorf("BorderVertexCount() = %d, want %d", got, tt.want)
			}
		})
	}

	s, err := New(sphere(t, 1))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := s.BorderVertexCount(); got != 0 {
		t.Errorf("closed sphere has %d border vertices, want 0", got)
	}
}

func TestFlatQuadKeepsCorners(t *testing.T) {
	in := quad()
	s, err := New(in)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := s.SimplifyToError(1e10, 100)
	checkMesh(t, out)

	if out.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", out.TriangleCount())
	}
	for _, p := range out.Positions {
		found := false
		for _, c := range in.Positions {
			if p == c {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("position %v is not an original corner", p)
		}
	}
}

func TestBorderVerticesStayOnBorderPositions(t *testing.T) {
	in := bowl(10, 0.3)
	s, err := New(in)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	borders := make(map[math.Vec3]bool)
	for i := range s.vertices {
		if s.vertices[i].border {
			borders[s.vertices[i].p] = true
		}
	}

	out := s.SimplifyToCount(30, DefaultAggressiveness, DefaultMaxIterations)
	checkMesh(t, out)

	for i := range s.vertices {
		v := &s.vertices[i]
		if v.border && !borders[v.p] {
			t.Errorf("border vertex %d moved to %v", i, v.p)
		}
	}
}

func TestZeroThresholdKeepsMesh(t *testing.T) {
	in := tetrahedron()
	s, err := New(in)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := s.SimplifyToError(0, 100)
	checkMesh(t, out)

	if out.TriangleCount() != 4 {
		t.Errorf("expected 4 triangles, got %d", out.TriangleCount())
	}
	if len(out.Positions) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(out.Positions))
	}
	for i, p := range out.Positions {
		if p != in.Positions[i] {
			t.Errorf("vertex %d moved from %v to %v", i, in.Positions[i], p)
		}
	}
	if st := s.Stats(); st.Iterations != 1 || st.Deleted != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestClosedSphereToTarget(t *testing.T) {
	in := sphere(t, 1)
	if in.TriangleCount() != 80 {
		t.Fatalf("expected 80 input triangles, got %d", in.TriangleCount())
	}

	s, err := New(in)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := s.SimplifyToCount(20, DefaultAggressiveness, 1000)
	checkMesh(t, out)

	if n := out.TriangleCount(); n >= 80 || n > 40 {
		t.Errorf("expected the sphere to approach 20 triangles, got %d", n)
	}
	for edge, n := range edgeUse(out.Indices) {
		if n != 2 {
			t.Errorf("edge %v used by %d triangles, want 2", edge, n)
		}
	}
}

func TestMonotonicReduction(t *testing.T) {
	plane, err := meshgen.Plane(2, 2, 8, 8)
	if err != nil {
		t.Fatalf("Plane failed: %v", err)
	}

	tests := []struct {
		name   string
		data   MeshData
		target int
	}{
		{"sphere keep most", sphere(t, 2), 300},
		{"sphere half", sphere(t, 2), 160},
		{"sphere aggressive", sphere(t, 2), 50},
		{"plane", MeshData{Positions: plane.Positions, Indices: plane.Indices}, 32},
		{"bowl", bowl(8, 0.25), 40},
		{"target above input", tetrahedron(), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.data)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			out := s.SimplifyToCount(tt.target, DefaultAggressiveness, DefaultMaxIterations)
			checkMesh(t, out)

			if out.TriangleCount() > tt.data.TriangleCount() {
				t.Errorf("output has %d triangles, input had %d", out.TriangleCount(), tt.data.TriangleCount())
			}
			st := s.Stats()
			if st.InputTriangles != tt.data.TriangleCount() || st.OutputTriangles != out.TriangleCount() {
				t.Errorf("stats %+v do not match input %d / output %d", st, tt.data.TriangleCount(), out.TriangleCount())
			}
		})
	}
}

func TestTargetAboveInputRunsNoPass(t *testing.T) {
	s, err := New(tetrahedron())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := s.SimplifyToCount(4, DefaultAggressiveness, DefaultMaxIterations)
	if out.TriangleCount() != 4 || s.Stats().Iterations != 0 {
		t.Errorf("expected untouched mesh, got %d triangles after %d iterations",
			out.TriangleCount(), s.Stats().Iterations)
	}
}

func TestRepeatedSimplify(t *testing.T) {
	s, err := New(sphere(t, 2))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first := s.SimplifyToCount(200, DefaultAggressiveness, DefaultMaxIterations)
	checkMesh(t, first)
	second := s.SimplifyToCount(100, DefaultAggressiveness, DefaultMaxIterations)
	checkMesh(t, second)

	if second.TriangleCount() > first.TriangleCount() {
		t.Errorf("second pass grew the mesh: %d > %d", second.TriangleCount(), first.TriangleCount())
	}
}

func TestBowlNormalsDoNotInvert(t *testing.T) {
	in := bowl(12, 0.15)

	maxTilt := 0.0
	for i := 0; i < in.TriangleCount(); i++ {
		n := faceNormal(in, i)
		maxTilt = gomath.Max(maxTilt, gomath.Acos(float64(n.Z)))
	}

	s, err := New(in)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := s.SimplifyToCount(40, DefaultAggressiveness, DefaultMaxIterations)
	checkMesh(t, out)

	// Each face stays within acos(0.05) of its original normal.
	limit := maxTilt + gomath.Acos(normalLimit) + 1*gomath.Pi/180
	for i := 0; i < out.TriangleCount(); i++ {
		n := faceNormal(out, i)
		if angle := gomath.Acos(gomath.Max(-1, gomath.Min(1, float64(n.Z)))); angle > limit {
			t.Errorf("triangle %d normal %v tilted %.1f degrees, limit %.1f",
				i, n, angle*180/gomath.Pi, limit*180/gomath.Pi)
		}
	}
}

func TestSimplifyToErrorStopsAtFixedPoint(t *testing.T) {
	s, err := New(sphere(t, 2))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := s.SimplifyToError(1e-3, DefaultMaxIterations)
	checkMesh(t, out)

	st := s.Stats()
	if st.Iterations >= DefaultMaxIterations {
		t.Errorf("expected convergence before the iteration budget, ran %d passes", st.Iterations)
	}
	if out.TriangleCount() >= 320 {
		t.Errorf("expected some collapses, got %d triangles", out.TriangleCount())
	}
}

func TestConcurrentInstances(t *testing.T) {
	in := sphere(t, 2)
	want, err := SimplifyCount(in, 100)
	if err != nil {
		t.Fatalf("SimplifyCount failed: %v", err)
	}

	const workers = 8
	results := make([]MeshData, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			out, err := SimplifyCount(in, 100)
			if err != nil {
				t.Errorf("worker %d: %v", w, err)
				return
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	for w, got := range results {
		if len(got.Indices) != len(want.Indices) || len(got.Positions) != len(want.Positions) {
			t.Errorf("worker %d: got %d/%d, want %d/%d", w,
				len(got.Positions), len(got.Indices), len(want.Positions), len(want.Indices))
			continue
		}
		for i := range got.Indices {
			if got.Indices[i] != want.Indices[i] {
				t.Errorf("worker %d: index %d differs", w, i)
				break
			}
		}
	}
}

func TestSimplifyDoesNotModifyInput(t *testing.T) {
	in := sphere(t, 1)
	positions := append([]math.Vec3(nil), in.Positions...)
	indices := append([]uint32(nil), in.Indices...)

	if _, err := SimplifyError(in, 1); err != nil {
		t.Fatalf("SimplifyError failed: %v", err)
	}
	for i := range positions {
		if in.Positions[i] != positions[i] {
			t.Fatalf("input position %d modified", i)
		}
	}
	for i := range indices {
		if in.Indices[i] != indices[i] {
			t.Fatalf("input index %d modified", i)
		}
	}
}
