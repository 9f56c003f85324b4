package core

import "math"

// Matrix4 is a row-major 4x4 matrix
type Matrix4 [4][4]float64

// IdentityMatrix returns the 4x4 identity matrix
func IdentityMatrix() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns the matrix product m * other
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var result Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[i][k] * other[k][j]
			}
			result[i][j] = sum
		}
	}
	return result
}

// Transpose returns the transposed matrix
func (m Matrix4) Transpose() Matrix4 {
	var result Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			result[i][j] = m[j][i]
		}
	}
	return result
}

// Inverse returns the inverse of the matrix using Gauss-Jordan elimination.
// The second return value is false if the matrix is singular.
func (m Matrix4) Inverse() (Matrix4, bool) {
	a := m
	inv := IdentityMatrix()

	for col := 0; col < 4; col++ {
		// Find the pivot row
		pivot := col
		for row := col + 1; row < 4; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return IdentityMatrix(), false
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		// Normalize the pivot row
		scale := 1.0 / a[col][col]
		for j := 0; j < 4; j++ {
			a[col][j] *= scale
			inv[col][j] *= scale
		}

		// Eliminate the column from the other rows
		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			factor := a[row][col]
			for j := 0; j < 4; j++ {
				a[row][j] -= factor * a[col][j]
				inv[row][j] -= factor * inv[col][j]
			}
		}
	}

	return inv, true
}

// Transform is an affine transform with its inverse cached so that rays and
// normals can be mapped both ways without repeated inversions.
type Transform struct {
	matrix  Matrix4
	inverse Matrix4
}

// NewTransform creates a transform from a matrix, computing its inverse.
// Returns nil if the matrix is singular.
func NewTransform(m Matrix4) *Transform {
	inv, ok := m.Inverse()
	if !ok {
		return nil
	}
	return &Transform{matrix: m, inverse: inv}
}

// IdentityTransform returns the identity transform
func IdentityTransform() *Transform {
	return &Transform{matrix: IdentityMatrix(), inverse: IdentityMatrix()}
}

// Translate returns a translation transform
func Translate(offset Vec3) *Transform {
	m := IdentityMatrix()
	m[0][3] = offset.X
	m[1][3] = offset.Y
	m[2][3] = offset.Z
	inv := IdentityMatrix()
	inv[0][3] = -offset.X
	inv[1][3] = -offset.Y
	inv[2][3] = -offset.Z
	return &Transform{matrix: m, inverse: inv}
}

// Scale returns a non-uniform scaling transform
func Scale(factors Vec3) *Transform {
	m := IdentityMatrix()
	m[0][0] = factors.X
	m[1][1] = factors.Y
	m[2][2] = factors.Z
	inv := IdentityMatrix()
	inv[0][0] = 1 / factors.X
	inv[1][1] = 1 / factors.Y
	inv[2][2] = 1 / factors.Z
	return &Transform{matrix: m, inverse: inv}
}

// RotateY returns a rotation about the y axis by angle radians
func RotateY(angle float64) *Transform {
	s, c := math.Sin(angle), math.Cos(angle)
	m := IdentityMatrix()
	m[0][0] = c
	m[0][2] = s
	m[2][0] = -s
	m[2][2] = c
	return &Transform{matrix: m, inverse: m.Transpose()}
}

// RotateX returns a rotation about the x axis by angle radians
func RotateX(angle float64) *Transform {
	s, c := math.Sin(angle), math.Cos(angle)
	m := IdentityMatrix()
	m[1][1] = c
	m[1][2] = -s
	m[2][1] = s
	m[2][2] = c
	return &Transform{matrix: m, inverse: m.Transpose()}
}

// RotateZ returns a rotation about the z axis by angle radians
func RotateZ(angle float64) *Transform {
	s, c := math.Sin(angle), math.Cos(angle)
	m := IdentityMatrix()
	m[0][0] = c
	m[0][1] = -s
	m[1][0] = s
	m[1][1] = c
	return &Transform{matrix: m, inverse: m.Transpose()}
}

// LookAt returns a camera-to-world transform for a camera at origin looking
// toward target, with the given up vector. The camera convention looks down
// the local +z axis.
func LookAt(origin, target, up Vec3) *Transform {
	forward := target.Subtract(origin).Normalize()
	right := up.Cross(forward).Normalize()
	trueUp := forward.Cross(right)

	m := Matrix4{
		{right.X, trueUp.X, forward.X, origin.X},
		{right.Y, trueUp.Y, forward.Y, origin.Y},
		{right.Z, trueUp.Z, forward.Z, origin.Z},
		{0, 0, 0, 1},
	}
	t := NewTransform(m)
	if t == nil {
		return IdentityTransform()
	}
	return t
}

// Compose returns the transform that applies other first, then t
func (t *Transform) Compose(other *Transform) *Transform {
	return &Transform{
		matrix:  t.matrix.Mul(other.matrix),
		inverse: other.inverse.Mul(t.inverse),
	}
}

// Apply transforms a point (translation applies)
func (t *Transform) Apply(p Vec3) Vec3 {
	return applyPoint(t.matrix, p)
}

// ApplyVector transforms a direction (translation does not apply)
func (t *Transform) ApplyVector(v Vec3) Vec3 {
	return applyVector(t.matrix, v)
}

// ApplyNormal transforms a surface normal using the inverse transpose.
// The result is not normalized.
func (t *Transform) ApplyNormal(n Vec3) Vec3 {
	inv := t.inverse
	return NewVec3(
		inv[0][0]*n.X+inv[1][0]*n.Y+inv[2][0]*n.Z,
		inv[0][1]*n.X+inv[1][1]*n.Y+inv[2][1]*n.Z,
		inv[0][2]*n.X+inv[1][2]*n.Y+inv[2][2]*n.Z,
	)
}

// ApplyRay transforms a ray. The direction is not renormalized so that t
// values can be mapped consistently by the caller.
func (t *Transform) ApplyRay(r Ray) Ray {
	return Ray{Origin: t.Apply(r.Origin), Direction: t.ApplyVector(r.Direction)}
}

// InverseApply transforms a point from world space back to local space
func (t *Transform) InverseApply(p Vec3) Vec3 {
	return applyPoint(t.inverse, p)
}

// InverseApplyVector transforms a direction from world to local space
func (t *Transform) InverseApplyVector(v Vec3) Vec3 {
	return applyVector(t.inverse, v)
}

// InverseApplyRay transforms a ray from world to local space without
// renormalizing the direction
func (t *Transform) InverseApplyRay(r Ray) Ray {
	return Ray{Origin: t.InverseApply(r.Origin), Direction: t.InverseApplyVector(r.Direction)}
}

func applyPoint(m Matrix4, p Vec3) Vec3 {
	return NewVec3(
		m[0][0]*p.X+m[0][1]*p.Y+m[0][2]*p.Z+m[0][3],
		m[1][0]*p.X+m[1][1]*p.Y+m[1][2]*p.Z+m[1][3],
		m[2][0]*p.X+m[2][1]*p.Y+m[2][2]*p.Z+m[2][3],
	)
}

func applyVector(m Matrix4, v Vec3) Vec3 {
	return NewVec3(
		m[0][0]*v.X+m[0][1]*v.Y+m[0][2]*v.Z,
		m[1][0]*v.X+m[1][1]*v.Y+m[1][2]*v.Z,
		m[2][0]*v.X+m[2][1]*v.Y+m[2][2]*v.Z,
	)
}
