package geometry

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Sphere is the unit sphere centered at the origin. Placement happens via
// the instance transform.
type Sphere struct{}

// NewSphere creates a unit sphere
func NewSphere() *Sphere {
	return &Sphere{}
}

// populate fills in the surface attributes for a point on the sphere
func (s *Sphere) populate(its *core.Intersection, position core.Vec3) {
	its.Position = position
	normal := position.Normalize()

	// Spherical uv mapping
	theta := math.Atan2(normal.Z, normal.X)
	phi := math.Acos(max(-1, min(1, normal.Y)))
	its.UV = core.NewVec2(1.0-(theta+math.Pi)/(2*math.Pi), phi/math.Pi)

	its.GeometryNormal = normal
	its.ShadingNormal = normal

	// Tangent follows increasing theta; degenerate at the poles
	tangent := core.NewVec3(-normal.Z, 0, normal.X)
	if tangent.LengthSquared() > 1e-16 {
		its.Tangent = tangent.Normalize()
	} else {
		its.Tangent = core.NewVec3(1, 0, 0)
	}

	its.PDF = 1.0
}

// Intersect solves |o + t*d|^2 = 1 for a normalized direction and accepts
// the closest root in [Epsilon, its.T]
func (s *Sphere) Intersect(ray core.Ray, its *core.Intersection, sampler core.Sampler) bool {
	// quadratic coefficient a is 1 for a normalized direction
	b := 2 * ray.Origin.Dot(ray.Direction)
	c := ray.Origin.LengthSquared() - 1

	disc := b*b - 4*c
	if disc < 0 {
		return false
	}

	sqrtDisc := math.Sqrt(disc)
	t1 := (-b - sqrtDisc) * 0.5
	t2 := (-b + sqrtDisc) * 0.5

	t := t1
	if t < core.Epsilon || t > its.T {
		t = t2
		if t < core.Epsilon || t > its.T {
			return false
		}
	}

	its.T = t
	s.populate(its, ray.At(t))
	return true
}

// Transmittance returns 0 when the sphere blocks the ray within tMax
func (s *Sphere) Transmittance(ray core.Ray, tMax float64, sampler core.Sampler) float64 {
	its := core.NewIntersection()
	its.T = tMax
	if s.Intersect(ray, &its, sampler) {
		return 0
	}
	return 1
}

// BoundingBox returns the unit cube bounds
func (s *Sphere) BoundingBox() core.AABB {
	return core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
}

// Centroid returns the origin
func (s *Sphere) Centroid() core.Vec3 {
	return core.Vec3{}
}

// SampleArea samples a point uniformly on the sphere surface
func (s *Sphere) SampleArea(sampler core.Sampler) core.AreaSample {
	position := core.SquareToUniformSphere(sampler.Get2D())
	its := core.NewIntersection()
	s.populate(&its, position)

	return core.AreaSample{
		Position: its.Position,
		Normal:   its.ShadingNormal,
		Tangent:  its.Tangent,
		UV:       its.UV,
		PDF:      1.0 / (4 * math.Pi), // unit sphere area is 4π
	}
}
