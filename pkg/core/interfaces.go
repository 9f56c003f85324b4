package core

import "math"

// Epsilon is the minimum intersection distance. Hits closer than this are
// rejected to avoid self-intersections.
const Epsilon = 1e-4

// Infinity is the initial intersection distance of a miss
var Infinity = math.Inf(1)

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Texture maps a 2D surface coordinate to a color or a scalar
type Texture interface {
	Evaluate(uv Vec2) Color
	Scalar(uv Vec2) float64
}

// Shape is a primitive surface or participating medium in its local space.
// Intersect updates its only when a valid hit no farther than the current
// one (t >= Epsilon, t <= its.T) is found. Transmittance returns the
// fraction of light reaching distance tMax along the ray, in [0, 1].
type Shape interface {
	Intersect(ray Ray, its *Intersection, sampler Sampler) bool
	Transmittance(ray Ray, tMax float64, sampler Sampler) float64
	BoundingBox() AABB
	Centroid() Vec3
}

// AreaSampler is implemented by shapes that support uniform area sampling,
// which area lights need for next-event estimation.
type AreaSampler interface {
	SampleArea(sampler Sampler) AreaSample
}

// AreaSample is a uniformly sampled point on a shape's surface
type AreaSample struct {
	Position Vec3
	Normal   Vec3
	Tangent  Vec3
	UV       Vec2
	PDF      float64 // probability per unit area
}

// Bsdf describes scattering at a surface. Directions are in the local
// shading frame (+z is the shading normal). Evaluate returns f(wo,wi)*|cos θi|;
// Sample returns a direction with weight f*|cos θi|/pdf.
type Bsdf interface {
	Evaluate(uv Vec2, wo, wi Vec3) BsdfEval
	Sample(uv Vec2, wo Vec3, sampler Sampler) BsdfSample
}

// BsdfEval is the result of evaluating a BSDF for a direction pair
type BsdfEval struct {
	Value Color
}

// InvalidBsdfEval marks a direction pair with no contribution
func InvalidBsdfEval() BsdfEval { return BsdfEval{} }

// IsInvalid reports whether this evaluation carries no energy
func (e BsdfEval) IsInvalid() bool { return e.Value.IsZero() }

// BsdfSample is a sampled scattering direction in the local frame
type BsdfSample struct {
	Wi     Vec3
	Weight Color
}

// InvalidBsdfSample marks a failed sample; the integrator skips it
func InvalidBsdfSample() BsdfSample { return BsdfSample{} }

// IsInvalid reports whether this sample carries no energy
func (s BsdfSample) IsInvalid() bool { return s.Weight.IsZero() }

// Emission describes radiance emitted from a surface point. wo is the
// outgoing direction in the local shading frame.
type Emission interface {
	Evaluate(uv Vec2, wo Vec3) Color
}

// Light can be sampled for direct illumination from a shading point
type Light interface {
	SampleDirect(from Vec3, sampler Sampler) DirectLightSample
}

// BackgroundLight is a light covering the whole sphere of directions, used
// when a ray escapes the scene
type BackgroundLight interface {
	Light
	Evaluate(direction Vec3) Color
}

// DirectLightSample is a sampled connection to a light. Wi is a unit world
// direction, Weight aggregates Li*cosine/pdf, and Distance is +Inf for
// lights at infinity.
type DirectLightSample struct {
	Wi       Vec3
	Weight   Color
	Distance float64
}

// InvalidDirectLightSample marks a failed light sample
func InvalidDirectLightSample() DirectLightSample { return DirectLightSample{} }

// IsInvalid reports whether this sample carries no energy
func (s DirectLightSample) IsInvalid() bool { return s.Weight.IsZero() }

// LightSample is a light chosen for next-event estimation along with its
// selection probability
type LightSample struct {
	Light       Light
	Probability float64
}

// CameraSample is a primary ray with its weight
type CameraSample struct {
	Ray    Ray
	Weight Color
}

// Camera maps a normalized image coordinate to a world-space primary ray
type Camera interface {
	Sample(normalized Vec2, sampler Sampler) CameraSample
	Resolution() (width, height int)
}

// Integrator estimates the radiance arriving along one primary ray
type Integrator interface {
	Li(ray Ray, sampler Sampler) Color
}
