package simplify

import "github.com/Faultbox/midgard-lod/pkg/math"

// compactMesh removes deleted and degenerate triangles and unreferenced
// vertices, renumbering the surviving vertices densely. Relative order of
// triangles and vertices is preserved.
func (s *Simplifier) compactMesh() {
	used := make([]bool, len(s.vertices))

	dst := 0
	for i := range s.triangles {
		t := &s.triangles[i]
		if t.deleted || t.degenerate() {
			continue
		}
		s.triangles[dst] = *t
		dst++
		for _, id := range t.v {
			used[id] = true
		}
	}
	s.triangles = s.triangles[:dst]

	remap := make([]uint32, len(s.vertices))
	dst = 0
	for i := range s.vertices {
		if !used[i] {
			continue
		}
		remap[i] = uint32(dst)
		s.vertices[dst] = s.vertices[i]
		dst++
	}
	s.vertices = s.vertices[:dst]

	for i := range s.triangles {
		t := &s.triangles[i]
		for j, id := range t.v {
			t.v[j] = remap[id]
		}
	}

	// References point at pre-compaction slots; the next pass rebuilds them.
	s.refs = s.refs[:0]
}

// meshData copies the compacted mesh out.
func (s *Simplifier) meshData() MeshData {
	data := MeshData{
		Positions: make([]math.Vec3, len(s.vertices)),
		Indices:   make([]uint32, 0, len(s.triangles)*3),
	}
	for i := range s.vertices {
		data.Positions[i] = s.vertices[i].p
	}
	for i := range s.triangles {
		data.Indices = append(data.Indices, s.triangles[i].v[:]...)
	}
	return data
}
