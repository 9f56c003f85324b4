package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Direct estimates one bounce of light transport: emitters seen directly,
// one next-event light sample, and one BSDF bounce toward emitters and the
// background
type Direct struct {
	scene *core.Scene
}

// NewDirect creates a direct-illumination integrator for the scene
func NewDirect(scene *core.Scene) *Direct {
	return &Direct{scene: scene}
}

// Li estimates the radiance arriving along a primary ray
func (d *Direct) Li(ray core.Ray, sampler core.Sampler) core.Color {
	its := d.scene.Intersect(ray, sampler)
	if !its.Hit() {
		return d.scene.EvaluateEmission(&its)
	}

	// Emitters contribute when hit directly
	result := its.EvaluateEmission()

	// Next-event estimation: connect to one sampled light
	if d.scene.HasLights() {
		lightSample := d.scene.SampleLight(sampler)
		direct := lightSample.Light.SampleDirect(its.Position, sampler)
		if !direct.IsInvalid() {
			shadowRay := core.NewRay(its.Position, direct.Wi)
			transmittance := d.scene.Transmittance(shadowRay, direct.Distance, sampler)
			if transmittance > 0 {
				bsdf := its.EvaluateBsdf(direct.Wi)
				if !bsdf.IsInvalid() {
					contribution := bsdf.Value.
						MultiplyVec(direct.Weight).
						Multiply(transmittance / lightSample.Probability)
					result = result.Add(contribution)
				}
			}
		}
	}

	// One BSDF bounce picks up emitters and the background
	bounce := its.SampleBsdf(sampler)
	if !bounce.IsInvalid() {
		bounceRay := core.NewRay(its.Position, bounce.Wi)
		bounceIts := d.scene.Intersect(bounceRay, sampler)
		emission := d.scene.EvaluateEmission(&bounceIts)
		result = result.Add(bounce.Weight.MultiplyVec(emission))
	}

	return result
}
