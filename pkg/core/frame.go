package core

import "math"

// Frame is a right-handed orthonormal basis around a surface normal.
// BSDFs work in the local space of a Frame, where the normal is +z.
type Frame struct {
	Tangent   Vec3
	Bitangent Vec3
	Normal    Vec3
}

// NewFrame builds an orthonormal basis from a unit normal. The tangent is a
// deterministic function of the normal so shading is reproducible when no
// mesh tangent is available.
func NewFrame(normal Vec3) Frame {
	// Pick a world axis that is not parallel to the normal
	var other Vec3
	if math.Abs(normal.X) > 0.1 {
		other = NewVec3(0, 1, 0)
	} else {
		other = NewVec3(1, 0, 0)
	}

	tangent := other.Cross(normal).Normalize()
	bitangent := normal.Cross(tangent)

	return Frame{Tangent: tangent, Bitangent: bitangent, Normal: normal}
}

// NewFrameWithTangent builds a frame from a unit normal and a candidate
// tangent. The tangent is re-orthogonalized against the normal; if it is
// degenerate the deterministic basis is used instead.
func NewFrameWithTangent(normal, tangent Vec3) Frame {
	// Gram-Schmidt: remove the normal component from the tangent
	t := tangent.Subtract(normal.Multiply(normal.Dot(tangent)))
	if t.LengthSquared() < 1e-12 {
		return NewFrame(normal)
	}
	t = t.Normalize()
	return Frame{Tangent: t, Bitangent: normal.Cross(t), Normal: normal}
}

// ToLocal converts a world-space direction into this frame
func (f Frame) ToLocal(v Vec3) Vec3 {
	return NewVec3(v.Dot(f.Tangent), v.Dot(f.Bitangent), v.Dot(f.Normal))
}

// ToWorld converts a direction in this frame back to world space
func (f Frame) ToWorld(v Vec3) Vec3 {
	return f.Tangent.Multiply(v.X).
		Add(f.Bitangent.Multiply(v.Y)).
		Add(f.Normal.Multiply(v.Z))
}

// CosTheta returns the cosine of the angle between a local direction and
// the frame normal
func CosTheta(v Vec3) float64 { return v.Z }

// AbsCosTheta returns |cos θ| for a local direction
func AbsCosTheta(v Vec3) float64 { return math.Abs(v.Z) }

// SameHemisphere reports whether two local directions lie on the same side
// of the surface
func SameHemisphere(a, b Vec3) bool { return a.Z*b.Z > 0 }
