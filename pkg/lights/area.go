package lights

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// shadowShorten pulls the shadow-ray endpoint slightly off the light
// surface so the light itself is not counted as an occluder
const shadowShorten = 1e-4

// AreaLight makes an emissive instance samplable for next-event
// estimation. The instance's shape must support area sampling.
type AreaLight struct {
	Instance *core.Instance
}

// NewAreaLight creates an area light bound to an emissive instance
func NewAreaLight(instance *core.Instance) *AreaLight {
	return &AreaLight{Instance: instance}
}

// SampleDirect samples a point on the light surface and converts the area
// pdf to a solid-angle pdf at the shading point
func (al *AreaLight) SampleDirect(from core.Vec3, sampler core.Sampler) core.DirectLightSample {
	sample, ok := al.Instance.SampleArea(sampler)
	if !ok || sample.PDF <= 0 {
		return core.InvalidDirectLightSample()
	}

	toLight := sample.Position.Subtract(from)
	distanceSquared := toLight.LengthSquared()
	if distanceSquared == 0 {
		return core.InvalidDirectLightSample()
	}
	distance := toLight.Length()
	wi := toLight.Multiply(1 / distance)

	// Foreshortening on the light; back side emits nothing
	cosLight := sample.Normal.Dot(wi.Negate())
	if cosLight <= 0 {
		return core.InvalidDirectLightSample()
	}

	if al.Instance.Emission == nil {
		return core.InvalidDirectLightSample()
	}
	frame := core.NewFrameWithTangent(sample.Normal, sample.Tangent)
	emission := al.Instance.Emission.Evaluate(sample.UV, frame.ToLocal(wi.Negate()))
	if emission.IsZero() {
		return core.InvalidDirectLightSample()
	}

	// Solid-angle pdf is pdfArea * distance² / cosθ on the light
	weight := emission.Multiply(cosLight / (sample.PDF * distanceSquared))

	return core.DirectLightSample{
		Wi:       wi,
		Weight:   weight,
		Distance: distance * (1 - shadowShorten),
	}
}
