package core

// IntersectionStats carries debug counters collected during traversal.
// Only the aov integrator reads them.
type IntersectionStats struct {
	BVHNodesVisited int
}

// Intersection describes a ray-surface interaction. A miss is a first-class
// value: T is +Inf and Instance is nil. Wo is the unit world direction
// pointing back toward the ray origin.
type Intersection struct {
	T              float64
	Position       Vec3
	UV             Vec2
	GeometryNormal Vec3
	ShadingNormal  Vec3
	Tangent        Vec3
	Wo             Vec3
	Instance       *Instance
	PDF            float64
	Stats          IntersectionStats
}

// NewIntersection returns a fresh miss with an unbounded distance
func NewIntersection() Intersection {
	return Intersection{T: Infinity}
}

// Hit reports whether this intersection records an actual surface event
func (its *Intersection) Hit() bool {
	return its.Instance != nil
}

// ShadingFrame returns the local shading basis at the hit point
func (its *Intersection) ShadingFrame() Frame {
	return NewFrameWithTangent(its.ShadingNormal, its.Tangent)
}

// EvaluateBsdf evaluates the hit instance's BSDF for a world-space incoming
// direction, converting to the local shading frame
func (its *Intersection) EvaluateBsdf(wiWorld Vec3) BsdfEval {
	if !its.Hit() || its.Instance.Bsdf == nil {
		return InvalidBsdfEval()
	}
	frame := its.ShadingFrame()
	wo := frame.ToLocal(its.Wo)
	wi := frame.ToLocal(wiWorld)
	return its.Instance.Bsdf.Evaluate(its.UV, wo, wi)
}

// SampleBsdf samples the hit instance's BSDF and returns the sampled
// direction converted back to world space
func (its *Intersection) SampleBsdf(sampler Sampler) BsdfSample {
	if !its.Hit() || its.Instance.Bsdf == nil {
		return InvalidBsdfSample()
	}
	frame := its.ShadingFrame()
	wo := frame.ToLocal(its.Wo)
	sample := its.Instance.Bsdf.Sample(its.UV, wo, sampler)
	if sample.IsInvalid() {
		return sample
	}
	sample.Wi = frame.ToWorld(sample.Wi).Normalize()
	return sample
}

// EvaluateEmission returns the radiance emitted from the hit point toward
// the ray origin, or zero when the instance does not emit
func (its *Intersection) EvaluateEmission() Color {
	if !its.Hit() || its.Instance.Emission == nil {
		return Color{}
	}
	frame := its.ShadingFrame()
	return its.Instance.Emission.Evaluate(its.UV, frame.ToLocal(its.Wo))
}
