package meshgen

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// maxSubdivisions keeps the vertex count well inside uint32 indices.
const maxSubdivisions = 8

var icosahedronIndices = []uint32{
	0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
	1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
	3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
	4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
}

// Icosphere builds a sphere by subdividing an icosahedron. Every level
// splits each triangle into four. Split vertices are shared between
// neighbouring triangles, so the result is a closed surface with
// 20*4^subdivisions triangles.
func Icosphere(radius float32, subdivisions int) (*Mesh, error) {
	if radius <= 0 {
		return nil, ErrInvalidRadius
	}
	if subdivisions < 0 || subdivisions > maxSubdivisions {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyLevels, subdivisions, maxSubdivisions)
	}

	t := float32((1.0 + gomath.Sqrt(5.0)) / 2.0)
	corners := []math.Vec3{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	positions := make([]math.Vec3, 0, 10*(1<<(2*subdivisions))+2)
	for _, c := range corners {
		positions = append(positions, c.Normalize().Scale(radius))
	}
	indices := append([]uint32(nil), icosahedronIndices...)

	for range subdivisions {
		split := make(map[[2]uint32]uint32, len(indices))
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{min(a, b), max(a, b)}
			if idx, ok := split[key]; ok {
				return idx
			}
			p := positions[a].Add(positions[b]).Normalize().Scale(radius)
			positions = append(positions, p)
			idx := uint32(len(positions) - 1)
			split[key] = idx
			return idx
		}

		next := make([]uint32, 0, len(indices)*4)
		for j := 0; j < len(indices); j += 3 {
			i0, i1, i2 := indices[j], indices[j+1], indices[j+2]
			a := midpoint(i0, i1)
			b := midpoint(i1, i2)
			c := midpoint(i2, i0)
			next = append(next,
				i0, a, c,
				i1, b, a,
				i2, c, b,
				a, b, c,
			)
		}
		indices = next
	}

	normals := make([]math.Vec3, len(positions))
	uvs := make([][2]float32, len(positions))
	for i, p := range positions {
		n := p.Normalize()
		normals[i] = n
		uvs[i] = sphereUV(n)
	}

	return &Mesh{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   indices,
		Bounds:    ComputeBounds(positions),
	}, nil
}

// sphereUV maps a unit direction to equirectangular texture coordinates.
func sphereUV(n math.Vec3) [2]float32 {
	u := 0.5 + gomath.Atan2(float64(n.Z), float64(n.X))/(2*gomath.Pi)
	v := 0.5 + gomath.Asin(float64(n.Y))/gomath.Pi
	return [2]float32{float32(u), float32(v)}
}
