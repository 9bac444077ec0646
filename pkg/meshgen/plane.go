package meshgen

import (
	"fmt"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Plane builds a flat grid on the XZ plane centered at the origin, facing +Y.
func Plane(width, height float32, widthSegments, heightSegments int) (*Mesh, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidSize, width, height)
	}
	if widthSegments <= 0 || heightSegments <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSegments, widthSegments, heightSegments)
	}

	sx := widthSegments + 1
	sy := heightSegments + 1
	count := sx * sy

	positions := make([]math.Vec3, 0, count)
	normals := make([]math.Vec3, 0, count)
	uvs := make([][2]float32, 0, count)
	for y := range sy {
		v := float32(y) / float32(sy-1)
		pz := (v - 0.5) * height
		for x := range sx {
			u := float32(x) / float32(sx-1)
			px := (u - 0.5) * width
			positions = append(positions, math.Vec3{X: px, Z: pz})
			normals = append(normals, math.Vec3{Y: 1})
			uvs = append(uvs, [2]float32{u, v})
		}
	}

	indices := make([]uint32, 0, widthSegments*heightSegments*6)
	for y := range heightSegments {
		offset := uint32(y * sx)
		for x := range widthSegments {
			i := offset + uint32(x)
			row := uint32(sx)
			indices = append(indices,
				i, i+row, i+row+1,
				i+row+1, i+1, i,
			)
		}
	}

	return &Mesh{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   indices,
		Bounds:    ComputeBounds(positions),
	}, nil
}
