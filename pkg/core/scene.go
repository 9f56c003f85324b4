package core

// Scene owns the instances, lights, camera, and acceleration structure.
// After construction the whole graph is read-only and safe to share across
// render workers.
type Scene struct {
	Instances  []*Instance
	Lights     []Light         // finite lights sampled by next-event estimation
	Background BackgroundLight // optional, evaluated when rays escape
	Camera     Camera

	bvh *BVH
}

// NewScene assembles a scene and builds its acceleration structure
func NewScene(camera Camera, instances []*Instance, lights []Light, background BackgroundLight) *Scene {
	return &Scene{
		Instances:  instances,
		Lights:     lights,
		Background: background,
		Camera:     camera,
		bvh:        NewBVH(instances),
	}
}

// Intersect traces a ray against the scene and returns the closest hit.
// A miss is a first-class value; EvaluateEmission on it yields the
// background radiance for the ray direction.
func (s *Scene) Intersect(ray Ray, sampler Sampler) Intersection {
	its := NewIntersection()
	its.Wo = ray.Direction.Normalize().Negate()
	s.bvh.Intersect(ray, &its, sampler)
	return its
}

// Transmittance returns the fraction of light reaching distance tMax along
// the ray, composing surface occlusion, alpha masks, and volumetric
// attenuation in one call
func (s *Scene) Transmittance(ray Ray, tMax float64, sampler Sampler) float64 {
	return s.bvh.Transmittance(ray, tMax, sampler)
}

// HasLights reports whether any finite light can be sampled
func (s *Scene) HasLights() bool {
	return len(s.Lights) > 0
}

// SampleLight selects one finite light uniformly. The zero LightSample is
// returned when the scene has none.
func (s *Scene) SampleLight(sampler Sampler) LightSample {
	n := len(s.Lights)
	if n == 0 {
		return LightSample{}
	}
	index := int(sampler.Get1D() * float64(n))
	if index >= n {
		index = n - 1
	}
	return LightSample{Light: s.Lights[index], Probability: 1.0 / float64(n)}
}

// EvaluateBackground returns the background radiance for a world direction
func (s *Scene) EvaluateBackground(direction Vec3) Color {
	if s.Background == nil {
		return Color{}
	}
	return s.Background.Evaluate(direction)
}

// EvaluateEmission returns the radiance emitted toward the ray origin: the
// instance emission on a hit, the background radiance on a miss
func (s *Scene) EvaluateEmission(its *Intersection) Color {
	if !its.Hit() {
		return s.EvaluateBackground(its.Wo.Negate())
	}
	return its.EvaluateEmission()
}
