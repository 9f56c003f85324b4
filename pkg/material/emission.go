package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Lambertian is an area emission that radiates uniformly over the upper
// hemisphere of the surface
type Lambertian struct {
	Emission core.Texture
}

// NewLambertianEmission creates a Lambertian area emission
func NewLambertianEmission(emission core.Texture) *Lambertian {
	return &Lambertian{Emission: emission}
}

// Evaluate returns the emitted radiance when the outgoing direction lies in
// the front hemisphere, zero otherwise
func (l *Lambertian) Evaluate(uv core.Vec2, wo core.Vec3) core.Color {
	if core.CosTheta(wo) <= 0 {
		return core.Color{}
	}
	return l.Emission.Evaluate(uv)
}
