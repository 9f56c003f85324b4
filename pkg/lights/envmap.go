package lights

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// EnvironmentMap is a background light: an equirectangular radiance map
// over the full sphere of directions, evaluated when rays escape the scene
type EnvironmentMap struct {
	Texture   core.Texture
	Transform *core.Transform // optional local-to-world orientation; its inverse maps lookups
}

// NewEnvironmentMap creates an environment light from a texture and an
// optional transform
func NewEnvironmentMap(texture core.Texture, transform *core.Transform) *EnvironmentMap {
	return &EnvironmentMap{Texture: texture, Transform: transform}
}

// Evaluate maps a world direction to equirectangular uv and samples the
// texture. +x maps to the center of the image, +y to the top edge.
func (em *EnvironmentMap) Evaluate(direction core.Vec3) core.Color {
	localDir := direction
	if em.Transform != nil {
		localDir = em.Transform.InverseApplyVector(direction)
		localDir.X = -localDir.X
	}

	phi := math.Atan2(-localDir.Z, localDir.X) + math.Pi
	theta := math.Atan2(math.Sqrt(localDir.X*localDir.X+localDir.Z*localDir.Z), localDir.Y)

	uv := core.NewVec2(phi/(2*math.Pi), theta/math.Pi)
	return em.Texture.Evaluate(uv)
}

// SampleDirect draws a uniform direction on the sphere; the weight divides
// out the uniform pdf 1/(4π)
func (em *EnvironmentMap) SampleDirect(from core.Vec3, sampler core.Sampler) core.DirectLightSample {
	direction := core.SquareToUniformSphere(sampler.Get2D())

	return core.DirectLightSample{
		Wi:       direction,
		Weight:   em.Evaluate(direction).Multiply(4 * math.Pi),
		Distance: core.Infinity,
	}
}
