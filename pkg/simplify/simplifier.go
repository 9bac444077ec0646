package simplify

import (
	gomath "math"

	"go.uber.org/zap"
)

// Defaults used by SimplifyCount and SimplifyError.
const (
	DefaultAggressiveness = 7.0
	DefaultMaxIterations  = 1000
)

// Stats describes the outcome of the last Simplify call.
type Stats struct {
	Iterations      int
	InputTriangles  int
	OutputTriangles int
	InputVertices   int
	OutputVertices  int
	Deleted         int
}

// Option configures a Simplifier.
type Option func(*Simplifier)

// WithLogger routes per-pass debug output to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simplifier) {
		if l != nil {
			s.log = l
		}
	}
}

// Simplifier owns the working buffers of one simplification. It is not
// safe for concurrent use, but independent instances share no state.
type Simplifier struct {
	triangles []triangle
	vertices  []vertex
	refs      []ref

	log   *zap.Logger
	stats Stats

	// scratch buffers reused across collapses
	deleted0 []bool
	deleted1 []bool
	ids      []uint32
	counts   []int
	shared   []uint32
}

// New builds a Simplifier for data. Vertex quadrics, border flags and
// initial edge errors are computed here.
func New(data MeshData, opts ...Option) (*Simplifier, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	s := &Simplifier{log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	s.vertices = make([]vertex, len(data.Positions))
	for i, p := range data.Positions {
		s.vertices[i].p = p
	}

	s.triangles = make([]triangle, data.TriangleCount())
	for i := range s.triangles {
		t := &s.triangles[i]
		for j := 0; j < 3; j++ {
			t.v[j] = data.Indices[i*3+j]
		}
		p0 := s.vertices[t.v[0]].p
		p1 := s.vertices[t.v[1]].p
		p2 := s.vertices[t.v[2]].p

		// Unnormalized normal weights each plane by the face area.
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		t.normal = n.Normalize()

		nx, ny, nz := n.Float64()
		px, py, pz := p0.Float64()
		plane := QuadricFromPlane(nx, ny, nz, -(nx*px + ny*py + nz*pz))
		for _, id := range t.v {
			s.vertices[id].q = s.vertices[id].q.Add(plane)
		}
	}

	s.updateMesh()
	s.detectBorders()

	for i := range s.triangles {
		s.updateErrors(&s.triangles[i])
	}

	return s, nil
}

// SimplifyCount simplifies data toward target triangles with default settings.
func SimplifyCount(data MeshData, target int, opts ...Option) (MeshData, error) {
	s, err := New(data, opts...)
	if err != nil {
		return MeshData{}, err
	}
	return s.SimplifyToCount(target, DefaultAggressiveness, DefaultMaxIterations), nil
}

// SimplifyError collapses every edge cheaper than threshold with default settings.
func SimplifyError(data MeshData, threshold float64, opts ...Option) (MeshData, error) {
	s, err := New(data, opts...)
	if err != nil {
		return MeshData{}, err
	}
	return s.SimplifyToError(threshold, DefaultMaxIterations), nil
}

// SimplifyToCount collapses edges until at most target triangles remain or
// maxIterations passes have run. The acceptance threshold of pass i is
// 1e-9 * (i+3)^aggressiveness. The result is best effort.
func (s *Simplifier) SimplifyToCount(target int, aggressiveness float64, maxIterations int) MeshData {
	s.begin()

	total := len(s.triangles)
	deleted := 0
	iteration := 0
	for ; iteration < maxIterations; iteration++ {
		if total-deleted <= target {
			break
		}
		threshold := 0.000000001 * gomath.Pow(float64(iteration+3), aggressiveness)
		n := s.collapseEdges(threshold)
		deleted += n

		s.log.Debug("collapse pass",
			zap.Int("iteration", iteration),
			zap.Float64("threshold", threshold),
			zap.Int("deleted", n),
			zap.Int("remaining", total-deleted))
	}

	return s.finish(iteration, deleted)
}

// SimplifyToError runs passes with a fixed threshold until a pass deletes
// nothing or maxIterations passes have run.
func (s *Simplifier) SimplifyToError(threshold float64, maxIterations int) MeshData {
	s.begin()

	deleted := 0
	iteration := 0
	for iteration < maxIterations {
		n := s.collapseEdges(threshold)
		iteration++
		deleted += n

		s.log.Debug("collapse pass",
			zap.Int("iteration", iteration-1),
			zap.Float64("threshold", threshold),
			zap.Int("deleted", n))

		if n == 0 {
			break
		}
	}

	return s.finish(iteration, deleted)
}

// Stats returns statistics of the last Simplify call.
func (s *Simplifier) Stats() Stats {
	return s.stats
}

// BorderVertexCount returns how many vertices were classified as border.
func (s *Simplifier) BorderVertexCount() int {
	n := 0
	for i := range s.vertices {
		if s.vertices[i].border {
			n++
		}
	}
	return n
}

// TriangleCount returns the number of live triangles.
func (s *Simplifier) TriangleCount() int {
	n := 0
	for i := range s.triangles {
		if !s.triangles[i].deleted {
			n++
		}
	}
	return n
}

func (s *Simplifier) begin() {
	for i := range s.triangles {
		s.triangles[i].deleted = false
	}
	s.stats = Stats{
		InputTriangles: len(s.triangles),
		InputVertices:  len(s.vertices),
	}
}

func (s *Simplifier) finish(iterations, deleted int) MeshData {
	s.compactMesh()

	s.stats.Iterations = iterations
	s.stats.Deleted = deleted
	s.stats.OutputTriangles = len(s.triangles)
	s.stats.OutputVertices = len(s.vertices)

	s.log.Debug("simplified",
		zap.Int("iterations", iterations),
		zap.Int("triangles_in", s.stats.InputTriangles),
		zap.Int("triangles_out", s.stats.OutputTriangles),
		zap.Int("vertices_out", s.stats.OutputVertices))

	return s.meshData()
}
