package simplify

import "github.com/Faultbox/midgard-lod/pkg/math"

// Quadric is a symmetric 4x4 error matrix stored as its upper triangle:
//
//	[q0 q1 q2 q3]
//	[   q4 q5 q6]
//	[      q7 q8]
//	[         q9]
type Quadric [10]float64

// QuadricFromPlane returns the outer product of the plane ax+by+cz+d=0 with itself.
func QuadricFromPlane(a, b, c, d float64) Quadric {
	return Quadric{
		a * a, a * b, a * c, a * d,
		b * b, b * c, b * d,
		c * c, c * d,
		d * d,
	}
}

// Add returns the component-wise sum q + o.
func (q Quadric) Add(o Quadric) Quadric {
	for i := range q {
		q[i] += o[i]
	}
	return q
}

// Evaluate returns pᵗQp for the homogeneous point (p, 1).
func (q Quadric) Evaluate(p math.Vec3) float64 {
	x, y, z := p.Float64()
	return q[0]*x*x + 2*q[1]*x*y + 2*q[2]*x*z + 2*q[3]*x +
		q[4]*y*y + 2*q[5]*y*z + 2*q[6]*y +
		q[7]*z*z + 2*q[8]*z + q[9]
}

// Det returns the determinant of the 3x3 matrix whose entries are the
// packed coefficients at the given indices, listed row by row.
func (q Quadric) Det(a11, a12, a13, a21, a22, a23, a31, a32, a33 int) float64 {
	return q[a11]*q[a22]*q[a33] + q[a13]*q[a21]*q[a32] + q[a12]*q[a23]*q[a31] -
		q[a13]*q[a22]*q[a31] - q[a11]*q[a23]*q[a32] - q[a12]*q[a21]*q[a33]
}

// Optimal solves for the point minimizing the quadric error.
// It returns false when the upper-left 3x3 block is singular.
func (q Quadric) Optimal() (math.Vec3, bool) {
	det := q.Det(0, 1, 2, 1, 4, 5, 2, 5, 7)
	if det == 0 {
		return math.Vec3{}, false
	}
	inv := 1.0 / det
	return math.Vec3{
		X: float32(-inv * q.Det(1, 2, 3, 4, 5, 6, 5, 7, 8)),
		Y: float32(inv * q.Det(0, 2, 3, 1, 5, 6, 2, 7, 8)),
		Z: float32(-inv * q.Det(0, 1, 3, 1, 4, 6, 2, 5, 8)),
	}, true
}
