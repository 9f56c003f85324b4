package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// PathTracer is an iterative path tracer with optional next-event
// estimation. Throughput accumulates BSDF sample weights; paths terminate
// at maxDepth, on escape, or when a sample is invalid.
type PathTracer struct {
	scene    *core.Scene
	maxDepth int
	useNee   bool
}

// NewPathTracer creates a path tracer. nee only takes effect when the
// scene has at least one finite light to sample.
func NewPathTracer(scene *core.Scene, maxDepth int, nee bool) *PathTracer {
	return &PathTracer{
		scene:    scene,
		maxDepth: maxDepth,
		useNee:   nee && scene.HasLights(),
	}
}

// Li estimates the radiance arriving along a primary ray
func (pt *PathTracer) Li(primaryRay core.Ray, sampler core.Sampler) core.Color {
	radiance := core.Color{}
	throughput := core.Gray(1)
	ray := primaryRay

	for bounce := 0; ; bounce++ {
		its := pt.scene.Intersect(ray, sampler)

		if !its.Hit() {
			background := pt.scene.EvaluateEmission(&its)
			radiance = radiance.Add(throughput.MultiplyVec(background))
			break
		}

		if emission := its.EvaluateEmission(); !emission.IsZero() {
			radiance = radiance.Add(throughput.MultiplyVec(emission))
		}

		if bounce >= pt.maxDepth-1 {
			break
		}

		if pt.useNee {
			lightSample := pt.scene.SampleLight(sampler)
			if lightSample.Light != nil {
				direct := lightSample.Light.SampleDirect(its.Position, sampler)
				if !direct.IsInvalid() {
					// Transmittance composes surface occlusion, alpha masks,
					// and volumetric attenuation in one query
					shadowRay := core.NewRay(its.Position, direct.Wi)
					transmittance := pt.scene.Transmittance(shadowRay, direct.Distance, sampler)
					if transmittance > 0 {
						bsdf := its.EvaluateBsdf(direct.Wi)
						if !bsdf.IsInvalid() {
							contribution := throughput.
								MultiplyVec(bsdf.Value).
								MultiplyVec(direct.Weight).
								Multiply(transmittance / lightSample.Probability)
							radiance = radiance.Add(contribution)
						}
					}
				}
			}
		}

		bsdfSample := its.SampleBsdf(sampler)
		if bsdfSample.IsInvalid() {
			break
		}

		throughput = throughput.MultiplyVec(bsdfSample.Weight)
		ray = core.NewRay(its.Position, bsdfSample.Wi)
	}

	return radiance
}
