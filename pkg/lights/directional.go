package lights

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// DirectionalLight illuminates the scene from a fixed direction with
// constant intensity, as if infinitely far away
type DirectionalLight struct {
	Direction core.Vec3 // direction toward the light, unit length
	Intensity core.Color
}

// NewDirectionalLight creates a directional light. direction points toward
// the light.
func NewDirectionalLight(direction core.Vec3, intensity core.Color) *DirectionalLight {
	return &DirectionalLight{Direction: direction.Normalize(), Intensity: intensity}
}

// SampleDirect returns the fixed incoming direction with no falloff
func (dl *DirectionalLight) SampleDirect(from core.Vec3, sampler core.Sampler) core.DirectLightSample {
	return core.DirectLightSample{
		Wi:       dl.Direction,
		Weight:   dl.Intensity,
		Distance: core.Infinity,
	}
}
