package core

import (
	"fmt"
	"math"
)

// alphaMaskRetryLimit bounds the stochastic-transparency retry loop so a
// ray grazing coplanar transparent geometry cannot traverse forever.
const alphaMaskRetryLimit = 256

// Instance places a shape in the world, optionally transformed, with
// optional scattering, emission, and an optional alpha mask for stochastic
// transparency. All referenced resources are shared and immutable.
type Instance struct {
	Shape     Shape
	Bsdf      Bsdf
	Emission  Emission
	Alpha     Texture
	Transform *Transform
}

// validateIntersection guards the kernel invariants: a non-finite or
// too-close t means the shape is producing self-intersections, and a wrong
// image is worse than a crash.
func validateIntersection(its *Intersection, shape Shape) {
	if math.IsNaN(its.T) || math.IsInf(its.T, 0) {
		panic(fmt.Sprintf("shape %T produced a non-finite intersection distance", shape))
	}
	if its.T < Epsilon {
		panic(fmt.Sprintf("shape %T produced t=%g below Epsilon=%g, susceptible to self-intersections", shape, its.T, Epsilon))
	}
}

// Intersect traces a world-space ray against this instance. On success its
// is updated with world-space results; on any failure path its is restored
// to its exact pre-call state.
func (inst *Instance) Intersect(worldRay Ray, its *Intersection, sampler Sampler) bool {
	saved := *its

	localRay := worldRay
	if inst.Transform != nil {
		localRay = inst.Transform.InverseApplyRay(worldRay)
		length := localRay.Direction.Length()
		if length == 0 {
			return false
		}
		localRay.Direction = localRay.Direction.Multiply(1 / length)
		if its.Hit() {
			// Bound the shape query by the current closest hit, expressed
			// in local units
			localHit := inst.Transform.InverseApply(its.Position)
			its.T = localHit.Subtract(localRay.Origin).Length()
		}
	}

	localBound := its.T
	ray := localRay
	offset := 0.0
	found := false

	for attempt := 0; attempt < alphaMaskRetryLimit; attempt++ {
		trial := *its
		trial.T = localBound - offset
		if trial.T < Epsilon {
			break
		}

		if !inst.Shape.Intersect(ray, &trial, sampler) {
			break
		}
		validateIntersection(&trial, inst.Shape)

		if inst.Alpha != nil {
			alpha := clamp01(inst.Alpha.Scalar(trial.UV))
			if sampler.Get1D() > alpha {
				// Transparent: step past this hit and retry
				step := trial.T + Epsilon
				ray.Origin = ray.At(step)
				offset += step
				continue
			}
		}

		trial.T += offset
		trial.Instance = inst
		*its = trial
		found = true
		break
	}

	if !found {
		*its = saved
		return false
	}

	if inst.Transform != nil {
		its.GeometryNormal = inst.Transform.ApplyNormal(its.GeometryNormal).Normalize()
		its.ShadingNormal = inst.Transform.ApplyNormal(its.ShadingNormal).Normalize()
		its.Tangent = inst.Transform.ApplyVector(its.Tangent).Normalize()
		its.Position = inst.Transform.Apply(its.Position)
		its.T = its.Position.Subtract(worldRay.Origin).Length()
		if saved.Hit() && its.T > saved.T {
			*its = saved
			return false
		}
	}

	return true
}

// Transmittance returns the fraction of light passing through this instance
// along [Epsilon, tMax] of a world-space ray. An alpha mask forces a full
// stochastic intersection because individual hits may be transparent.
func (inst *Instance) Transmittance(worldRay Ray, tMax float64, sampler Sampler) float64 {
	if inst.Alpha != nil {
		its := NewIntersection()
		if inst.Intersect(worldRay, &its, sampler) && its.T < tMax {
			return 0
		}
		return 1
	}

	if inst.Transform == nil {
		return inst.Shape.Transmittance(worldRay, tMax, sampler)
	}

	localRay := inst.Transform.InverseApplyRay(worldRay)
	length := localRay.Direction.Length()
	if length == 0 {
		return 0
	}
	localRay.Direction = localRay.Direction.Multiply(1 / length)
	return inst.Shape.Transmittance(localRay, tMax*length, sampler)
}

// BoundingBox returns the world-space bounds of the instance
func (inst *Instance) BoundingBox() AABB {
	bounds := inst.Shape.BoundingBox()
	if inst.Transform == nil {
		return bounds
	}
	if bounds.IsUnbounded() {
		return FullAABB()
	}

	// Transform all eight corners and take their bounds
	result := AABB{Min: NewVec3(Infinity, Infinity, Infinity), Max: NewVec3(-Infinity, -Infinity, -Infinity)}
	for corner := 0; corner < 8; corner++ {
		p := bounds.Min
		if corner&1 != 0 {
			p.X = bounds.Max.X
		}
		if corner&2 != 0 {
			p.Y = bounds.Max.Y
		}
		if corner&4 != 0 {
			p.Z = bounds.Max.Z
		}
		result = result.Extend(inst.Transform.Apply(p))
	}
	return result
}

// Centroid returns the world-space centroid of the instance
func (inst *Instance) Centroid() Vec3 {
	c := inst.Shape.Centroid()
	if inst.Transform == nil {
		return c
	}
	return inst.Transform.Apply(c)
}

// SampleArea samples a point uniformly on the instance surface in world
// space. Returns false when the underlying shape does not support area
// sampling.
func (inst *Instance) SampleArea(sampler Sampler) (AreaSample, bool) {
	shape, ok := inst.Shape.(AreaSampler)
	if !ok {
		return AreaSample{}, false
	}
	sample := shape.SampleArea(sampler)
	if inst.Transform != nil {
		sample.Normal = inst.Transform.ApplyNormal(sample.Normal).Normalize()
		sample.Tangent = inst.Transform.ApplyVector(sample.Tangent).Normalize()
		sample.Position = inst.Transform.Apply(sample.Position)
	}
	return sample, true
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
