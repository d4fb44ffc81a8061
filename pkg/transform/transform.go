// Package transform implements the TRS/matrix/quaternion math shared by the
// glTF decoder's scene-graph import and mesh-baking stages: matrix-to-TRS
// decomposition via polar decomposition, quaternion-to-Euler conversion
// with branch continuity, and the normal-matrix renormalization bookkeeping
// the baker depends on.
package transform

import "math"

// Vec3 is a 3-component vector (or point), used for translation, scale, and
// Euler-angle triples.
type Vec3 [3]float32

// Quat is a quaternion in (x, y, z, w) order, matching glTF's convention.
type Quat [4]float32

// Mat4 is a column-major 4x4 matrix, matching glTF's storage convention:
// m[0:4) is the first column.
type Mat4 [16]float32

// Mat3 is a column-major 3x3 matrix, used for normal-matrix computation.
type Mat3 [9]float32

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Compose builds a column-major TRS matrix from translation, an XYZ Euler
// rotation in degrees, and scale.
func Compose(translation Vec3, eulerDegrees Vec3, scale Vec3) Mat4 {
	r := matFromEulerXYZ(eulerDegrees)
	var m Mat4
	for col := 0; col < 3; col++ {
		s := scale[col]
		m[col*4+0] = r[col*3+0] * s
		m[col*4+1] = r[col*3+1] * s
		m[col*4+2] = r[col*3+2] * s
		m[col*4+3] = 0
	}
	m[12] = translation[0]
	m[13] = translation[1]
	m[14] = translation[2]
	m[15] = 1
	return m
}

// Multiply returns a * b (column-major, matching glTF's "apply b's
// transform, then a's" composition order).
func Multiply(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Mat3FromMat4 extracts the upper-left 3x3 (the linear part) of m.
func Mat3FromMat4(m Mat4) Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// MulPoint applies m to v as a point (w=1), returning the translated result.
func MulPoint(m Mat4, v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2] + m[12],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2] + m[13],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2] + m[14],
	}
}

// MulDirection applies m to v as a direction (w=0, no translation); used for
// tangents and bitangents.
func MulDirection(m Mat4, v Vec3) Vec3 {
	return mul3(Mat3FromMat4(m), v)
}

func mul3(m Mat3, v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[3]*v[1] + m[6]*v[2],
		m[1]*v[0] + m[4]*v[1] + m[7]*v[2],
		m[2]*v[0] + m[5]*v[1] + m[8]*v[2],
	}
}

// NormalMatrix computes transpose(inverse(m)) for the 3x3 linear part of m,
// the matrix that correctly transforms normals under non-uniform scale.
func NormalMatrix(m Mat4) Mat3 {
	return transpose3(invert3(Mat3FromMat4(m)))
}

func transpose3(m Mat3) Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func invert3(m Mat3) Mat3 {
	a, b, c := m[0], m[3], m[6]
	d, e, f := m[1], m[4], m[7]
	g, h, i := m[2], m[5], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	invDet := 1 / det

	return Mat3{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}
}

// ApplyNormal transforms v by the normal matrix m and renormalizes the
// result, returning the renormalized normal together with the scale factor
// applied (1/|m*v|). That same factor must be reapplied to every
// morph-target normal at the same vertex so blended normals do not drift in
// direction.
func ApplyNormal(m Mat3, v Vec3) (normal Vec3, scale float32) {
	raw := mul3(m, v)
	length := float32(math.Sqrt(float64(raw[0]*raw[0] + raw[1]*raw[1] + raw[2]*raw[2])))
	if length == 0 {
		return raw, 1
	}
	scale = 1 / length
	return Vec3{raw[0] * scale, raw[1] * scale, raw[2] * scale}, scale
}

// ScaleNormal applies a previously computed renormalization scale factor to
// a morph-target normal transformed by the same normal matrix, without
// recomputing the factor.
func ScaleNormal(m Mat3, v Vec3, scale float32) Vec3 {
	raw := mul3(m, v)
	return Vec3{raw[0] * scale, raw[1] * scale, raw[2] * scale}
}

// Decompose extracts translation, an XYZ Euler rotation (degrees), and scale
// from m via polar decomposition: scale is read off as the length of each
// column of the linear part, and the rotation quaternion is derived from
// what remains once those lengths are divided out. previous, if non-nil, is
// used to select a continuous Euler branch rather than the principal one;
// pass nil for the first node in a walk.
func Decompose(m Mat4, previous *Vec3) (translation Vec3, eulerDegrees Vec3, scale Vec3) {
	translation = Vec3{m[12], m[13], m[14]}

	col0 := Vec3{m[0], m[1], m[2]}
	col1 := Vec3{m[4], m[5], m[6]}
	col2 := Vec3{m[8], m[9], m[10]}

	sx := length(col0)
	sy := length(col1)
	sz := length(col2)

	// Detect a negative determinant (a reflection) and fold its sign into
	// one axis so the remaining rotation matrix is proper (det == +1).
	det := m[0]*(m[5]*m[10]-m[6]*m[9]) - m[4]*(m[1]*m[10]-m[2]*m[9]) + m[8]*(m[1]*m[6]-m[2]*m[5])
	if det < 0 {
		sx = -sx
	}

	scale = Vec3{sx, sy, sz}

	r := Mat3{}
	if sx != 0 {
		r[0], r[1], r[2] = col0[0]/sx, col0[1]/sx, col0[2]/sx
	}
	if sy != 0 {
		r[3], r[4], r[5] = col1[0]/sy, col1[1]/sy, col1[2]/sy
	}
	if sz != 0 {
		r[6], r[7], r[8] = col2[0]/sz, col2[1]/sz, col2[2]/sz
	}

	q := quatFromMat3(r)
	var prev Vec3
	if previous != nil {
		prev = *previous
	}
	eulerDegrees = EulerXYZFromQuaternion(q, prev)

	return
}

func length(v Vec3) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

func quatFromMat3(m Mat3) Quat {
	trace := m[0] + m[4] + m[8]
	if trace > 0 {
		s := float32(math.Sqrt(float64(trace+1))) * 2
		return Quat{
			(m[5] - m[7]) / s,
			(m[6] - m[2]) / s,
			(m[1] - m[3]) / s,
			s / 4,
		}
	}
	if m[0] > m[4] && m[0] > m[8] {
		s := float32(math.Sqrt(float64(1+m[0]-m[4]-m[8]))) * 2
		return Quat{s / 4, (m[3] + m[1]) / s, (m[6] + m[2]) / s, (m[5] - m[7]) / s}
	}
	if m[4] > m[8] {
		s := float32(math.Sqrt(float64(1+m[4]-m[0]-m[8]))) * 2
		return Quat{(m[3] + m[1]) / s, s / 4, (m[7] + m[5]) / s, (m[6] - m[2]) / s}
	}
	s := float32(math.Sqrt(float64(1+m[8]-m[0]-m[4]))) * 2
	return Quat{(m[6] + m[2]) / s, (m[7] + m[5]) / s, s / 4, (m[1] - m[3]) / s}
}

func matFromEulerXYZ(degrees Vec3) Mat3 {
	rx := degrees[0] * math.Pi / 180
	ry := degrees[1] * math.Pi / 180
	rz := degrees[2] * math.Pi / 180

	sx, cx := math.Sincos(float64(rx))
	sy, cy := math.Sincos(float64(ry))
	sz, cz := math.Sincos(float64(rz))

	// Intrinsic XYZ: R = Rx * Ry * Rz.
	return Mat3{
		float32(cy * cz), float32(cy * sz), float32(-sy),
		float32(sx*sy*cz - cx*sz), float32(sx*sy*sz + cx*cz), float32(sx * cy),
		float32(cx*sy*cz + sx*sz), float32(cx*sy*sz - sx*cz), float32(cx * cy),
	}
}

// EulerXYZFromQuaternion converts q to XYZ intrinsic Euler angles in
// degrees, choosing the branch nearest previous instead of always returning
// the principal branch. Quaternion
// double-cover (q and -q represent the same rotation) and gimbal
// configurations both admit multiple equally valid Euler representations;
// without this, consecutive nodes whose rotations are nearly identical can
// decode to wildly different-looking Euler triples.
func EulerXYZFromQuaternion(q Quat, previous Vec3) Vec3 {
	x, y, z, w := q[0], q[1], q[2], q[3]

	// The formulas below are quadratic in q, so q and -q yield the same
	// angles; sinY is clamped so rounding cannot push it outside asin's domain.
	sinY := 2 * (w*y - z*x)
	if sinY > 1 {
		sinY = 1
	} else if sinY < -1 {
		sinY = -1
	}

	eulerX := math.Atan2(float64(2*(w*x+y*z)), float64(1-2*(x*x+y*y)))
	eulerY := math.Asin(float64(sinY))
	eulerZ := math.Atan2(float64(2*(w*z+x*y)), float64(1-2*(y*y+z*z)))

	degrees := Vec3{
		float32(eulerX * 180 / math.Pi),
		float32(eulerY * 180 / math.Pi),
		float32(eulerZ * 180 / math.Pi),
	}

	return unwrap(degrees, previous)
}

// unwrap adjusts each axis of degrees by a multiple of 360 to minimize its
// distance from the corresponding axis of previous.
func unwrap(degrees, previous Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		d := degrees[i]
		delta := d - previous[i]
		shifted := delta - 360*float32(math.Round(float64(delta)/360))
		out[i] = previous[i] + shifted
	}
	return out
}
