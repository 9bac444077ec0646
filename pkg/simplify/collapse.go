package simplify

import (
	gomath "math"
	"slices"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Flip guard tolerances.
const (
	parallelLimit = 0.999 // |cos| between the new edges of a surviving triangle
	normalLimit   = 0.05  // minimum agreement with the original face normal
)

// collapseEdges runs one pass over all triangles, collapsing every edge
// whose error is within threshold, and returns the number of triangles
// deleted.
func (s *Simplifier) collapseEdges(threshold float64) int {
	deleted := 0

	s.updateMesh()
	for i := range s.triangles {
		s.triangles[i].dirty = false
	}

	for ti := range s.triangles {
		t := &s.triangles[ti]
		if t.err[3] > threshold || t.deleted || t.dirty {
			continue
		}

		for j := 0; j < 3; j++ {
			if t.err[j] > threshold {
				continue
			}

			i0 := t.v[j]
			i1 := t.v[(j+1)%3]
			v0 := &s.vertices[i0]
			v1 := &s.vertices[i1]

			if v0.border != v1.border {
				continue
			}

			_, p := s.edgeError(i0, i1)

			s.deleted0 = resize(s.deleted0, int(v0.refCount))
			s.deleted1 = resize(s.deleted1, int(v1.refCount))
			if s.flipped(p, i0, i1, s.deleted0) || s.flipped(p, i1, i0, s.deleted1) {
				continue
			}
			if !s.linkOK(i0, i1) {
				continue
			}

			v0.p = p
			v0.q = v0.q.Add(v1.q)

			start := uint32(len(s.refs))
			deleted += s.updateTriangles(i0, i0, s.deleted0)
			deleted += s.updateTriangles(i0, i1, s.deleted1)

			// v0 and v1 were both appended at the tail; reuse v0's old
			// range when the union still fits.
			count := uint32(len(s.refs)) - start
			if count <= v0.refCount {
				copy(s.refs[v0.refStart:], s.refs[start:start+count])
			} else {
				v0.refStart = start
			}
			v0.refCount = count
			break
		}
	}

	return deleted
}

// edgeError returns the error of collapsing edge (i0, i1) and the position
// the merged vertex would take.
func (s *Simplifier) edgeError(i0, i1 uint32) (float64, math.Vec3) {
	v0 := &s.vertices[i0]
	v1 := &s.vertices[i1]
	q := v0.q.Add(v1.q)
	border := v0.border && v1.border

	if !border {
		if p, ok := q.Optimal(); ok {
			return q.Evaluate(p), p
		}
	}

	// Singular or border: pick the cheapest literal candidate. Later
	// candidates win ties, so flat regions collapse to the midpoint.
	best, err := v0.p, q.Evaluate(v0.p)
	if e := q.Evaluate(v1.p); e <= err {
		best, err = v1.p, e
	}
	if !border {
		mid := v0.p.Mid(v1.p)
		if e := q.Evaluate(mid); e <= err {
			best, err = mid, e
		}
	}
	return err, best
}

// updateErrors refreshes the cached edge errors of t.
func (s *Simplifier) updateErrors(t *triangle) {
	for j := 0; j < 3; j++ {
		t.err[j], _ = s.edgeError(t.v[j], t.v[(j+1)%3])
	}
	t.err[3] = gomath.Min(t.err[0], gomath.Min(t.err[1], t.err[2]))
}

// flipped reports whether moving vertex i0 to p would invert or degenerate
// one of its triangles. Triangles that also contain i1 collapse to nothing
// and are flagged in deleted instead.
func (s *Simplifier) flipped(p math.Vec3, i0, i1 uint32, deleted []bool) bool {
	for k, r := range s.vertexRefs(i0) {
		t := &s.triangles[r.tri]
		if t.deleted {
			continue
		}

		id1 := t.v[(r.slot+1)%3]
		id2 := t.v[(r.slot+2)%3]
		if id1 == i1 || id2 == i1 {
			deleted[k] = true
			continue
		}

		d1 := s.vertices[id1].p.Sub(p).Normalize()
		d2 := s.vertices[id2].p.Sub(p).Normalize()
		if gomath.Abs(float64(d1.Dot(d2))) > parallelLimit {
			return true
		}

		n := d1.Cross(d2)
		deleted[k] = false
		if n.Dot(t.normal) < normalLimit {
			return true
		}
	}
	return false
}

// linkOK reports whether collapsing (i0, i1) keeps the surface manifold.
// The endpoints may only share the neighbours opposite the edge, and the
// merged vertex has to keep at least one triangle. Requires the deleted
// flags filled in by flipped.
func (s *Simplifier) linkOK(i0, i1 uint32) bool {
	edgeTris := 0
	survivors := 0

	ids := s.ids[:0]
	for k, r := range s.vertexRefs(i0) {
		t := &s.triangles[r.tri]
		if t.deleted {
			continue
		}
		if s.deleted0[k] {
			edgeTris++
		} else {
			survivors++
		}
		for _, id := range t.v {
			if id != i0 && id != i1 && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}

	shared := s.shared[:0]
	for k, r := range s.vertexRefs(i1) {
		t := &s.triangles[r.tri]
		if t.deleted {
			continue
		}
		if !s.deleted1[k] {
			survivors++
		}
		for _, id := range t.v {
			if id == i0 || id == i1 || slices.Contains(shared, id) {
				continue
			}
			if slices.Contains(ids, id) {
				shared = append(shared, id)
			}
		}
	}
	s.ids, s.shared = ids, shared

	return survivors > 0 && len(shared) <= edgeTris
}

// updateTriangles rewires the triangles of vertex vi to i0 after a collapse,
// deleting the ones flagged in deleted, and appends the surviving references
// to the tail of refs. It returns the number of triangles deleted.
func (s *Simplifier) updateTriangles(i0, vi uint32, deleted []bool) int {
	n := 0
	v := s.vertices[vi]
	for k := uint32(0); k < v.refCount; k++ {
		r := s.refs[v.refStart+k]
		t := &s.triangles[r.tri]
		if t.deleted {
			continue
		}
		if deleted[k] {
			t.deleted = true
			n++
			continue
		}
		t.v[r.slot] = i0
		t.dirty = true
		s.updateErrors(t)
		s.refs = append(s.refs, r)
	}
	return n
}

func resize(b []bool, n int) []bool {
	if cap(b) < n {
		return make([]bool, n)
	}
	return b[:n]
}
