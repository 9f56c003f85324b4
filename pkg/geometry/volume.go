package geometry

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Volume is a homogeneous participating medium with extinction equal to its
// density, optionally bounded by another shape. Scattering events are
// sampled by free-flight distance; shadow rays attenuate by Beer-Lambert.
type Volume struct {
	Density  float64
	Boundary core.Shape // nil means the medium fills all of space
}

// NewVolume creates a homogeneous volume
func NewVolume(density float64, boundary core.Shape) *Volume {
	return &Volume{Density: density, Boundary: boundary}
}

// interval finds the [tEntry, tExit] range where the ray is inside the
// medium. Returns false when the ray misses the boundary entirely.
func (v *Volume) interval(ray core.Ray, sampler core.Sampler) (tEntry, tExit float64, ok bool) {
	if v.Boundary == nil {
		return 0, core.Infinity, true
	}

	boundaryIts := core.NewIntersection()
	if !v.Boundary.Intersect(ray, &boundaryIts, sampler) {
		return 0, 0, false
	}

	if boundaryIts.GeometryNormal.Dot(ray.Direction) < 0 {
		// Outside, entering the volume; trace again from just past the
		// entry point to find the exit
		tEntry = boundaryIts.T

		insideRay := core.NewRay(ray.At(tEntry+core.Epsilon), ray.Direction)
		exitIts := core.NewIntersection()
		if v.Boundary.Intersect(insideRay, &exitIts, sampler) {
			tExit = tEntry + core.Epsilon + exitIts.T
		} else {
			tExit = core.Infinity
		}
	} else {
		// Already inside; the first hit is the exit
		tEntry = 0
		tExit = boundaryIts.T
	}

	return tEntry, tExit, true
}

// Intersect samples a scattering event inside the medium. The event is
// rejected when it falls outside the boundary interval or behind an
// existing closer hit.
func (v *Volume) Intersect(ray core.Ray, its *core.Intersection, sampler core.Sampler) bool {
	tEntry, tExit, ok := v.interval(ray, sampler)
	if !ok {
		return false
	}

	// Free-flight sampling: s = -ln(1-u)/sigma, clamping u below 1
	u := min(sampler.Get1D(), 1-core.Epsilon)
	distance := math.Max(-math.Log(1-u)/v.Density, core.Epsilon)

	tHit := tEntry + distance
	if tHit >= tExit || tHit >= its.T {
		return false
	}

	its.T = tHit
	its.Position = ray.At(tHit)

	// A medium event has no geometric orientation; face the ray
	normal := ray.Direction.Negate()
	its.GeometryNormal = normal
	its.ShadingNormal = normal
	its.Tangent = core.NewFrame(normal).Tangent
	its.UV = core.Vec2{}
	its.PDF = 1.0

	return true
}

// Transmittance applies Beer-Lambert over the overlap of [0, tMax] with the
// boundary interval
func (v *Volume) Transmittance(ray core.Ray, tMax float64, sampler core.Sampler) float64 {
	tEntry, tExit, ok := v.interval(ray, sampler)
	if !ok {
		return 1.0
	}

	t0 := math.Max(tEntry, 0)
	t1 := math.Min(tExit, tMax)
	if t0 >= t1 {
		return 1.0
	}

	return math.Exp(-v.Density * (t1 - t0))
}

// BoundingBox returns the boundary bounds, or all of space when unbounded
func (v *Volume) BoundingBox() core.AABB {
	if v.Boundary == nil {
		return core.FullAABB()
	}
	return v.Boundary.BoundingBox()
}

// Centroid returns the boundary centroid, or the origin when unbounded
func (v *Volume) Centroid() core.Vec3 {
	if v.Boundary == nil {
		return core.Vec3{}
	}
	return v.Boundary.Centroid()
}
