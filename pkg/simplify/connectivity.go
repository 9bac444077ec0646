package simplify

import "slices"

// updateMesh drops deleted triangles and rebuilds the per-vertex triangle
// references from scratch.
func (s *Simplifier) updateMesh() {
	dst := 0
	for i := range s.triangles {
		if !s.triangles[i].deleted {
			s.triangles[dst] = s.triangles[i]
			dst++
		}
	}
	s.triangles = s.triangles[:dst]

	for i := range s.vertices {
		s.vertices[i].refStart = 0
		s.vertices[i].refCount = 0
	}
	for i := range s.triangles {
		for _, id := range s.triangles[i].v {
			s.vertices[id].refCount++
		}
	}

	var start uint32
	for i := range s.vertices {
		v := &s.vertices[i]
		v.refStart = start
		start += v.refCount
		v.refCount = 0
	}

	s.refs = slices.Grow(s.refs[:0], len(s.triangles)*3)[:len(s.triangles)*3]
	for i := range s.triangles {
		for j, id := range s.triangles[i].v {
			v := &s.vertices[id]
			s.refs[v.refStart+v.refCount] = ref{tri: uint32(i), slot: uint32(j)}
			v.refCount++
		}
	}
}

// vertexRefs returns the triangle references of vertex i.
func (s *Simplifier) vertexRefs(i uint32) []ref {
	v := &s.vertices[i]
	return s.refs[v.refStart : v.refStart+v.refCount]
}

// detectBorders flags every vertex on an edge used by a single triangle.
// It runs once on the input topology.
func (s *Simplifier) detectBorders() {
	for i := range s.vertices {
		s.vertices[i].border = false
	}

	for i := range s.vertices {
		ids, counts := s.ids[:0], s.counts[:0]
		for _, r := range s.vertexRefs(uint32(i)) {
			for _, id := range s.triangles[r.tri].v {
				if k := slices.Index(ids, id); k >= 0 {
					counts[k]++
					continue
				}
				ids = append(ids, id)
				counts = append(counts, 1)
			}
		}
		for k, c := range counts {
			if c == 1 {
				s.vertices[ids[k]].border = true
			}
		}
		s.ids, s.counts = ids, counts
	}
}
