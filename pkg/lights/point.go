package lights

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// PointLight is an isotropic emitter at a single position, described by its
// total power
type PointLight struct {
	Position core.Vec3
	Power    core.Color

	powerOverFourPi core.Color
}

// NewPointLight creates a point light from its position and power
func NewPointLight(position core.Vec3, power core.Color) *PointLight {
	return &PointLight{
		Position:        position,
		Power:           power,
		powerOverFourPi: power.Multiply(1 / (4 * math.Pi)),
	}
}

// SampleDirect returns the deterministic connection to the light with
// inverse-square falloff
func (pl *PointLight) SampleDirect(from core.Vec3, sampler core.Sampler) core.DirectLightSample {
	toLight := pl.Position.Subtract(from)
	distance := toLight.Length()
	if distance == 0 {
		return core.InvalidDirectLightSample()
	}

	return core.DirectLightSample{
		Wi:       toLight.Multiply(1 / distance),
		Weight:   pl.powerOverFourPi.Multiply(1 / (distance * distance)),
		Distance: distance,
	}
}
