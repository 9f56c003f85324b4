package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// HenyeyGreenstein is the standard phase function used as the scattering
// model inside participating media. g controls the scattering anisotropy:
// negative is backward, zero isotropic, positive forward.
type HenyeyGreenstein struct {
	G      float64
	Albedo core.Color
}

// NewHenyeyGreenstein creates a Henyey-Greenstein phase function
func NewHenyeyGreenstein(g float64, albedo core.Color) *HenyeyGreenstein {
	return &HenyeyGreenstein{G: g, Albedo: albedo}
}

// Evaluate returns albedo * p(θ) for the angle between wo and wi
func (hg *HenyeyGreenstein) Evaluate(uv core.Vec2, wo, wi core.Vec3) core.BsdfEval {
	cosTheta := wo.Dot(wi)

	denom := math.Max(1e-5, 1+hg.G*hg.G+2*hg.G*cosTheta)
	phase := (1 - hg.G*hg.G) / (4 * math.Pi * math.Pow(denom, 1.5))

	return core.BsdfEval{Value: hg.Albedo.Multiply(phase)}
}

// Sample draws a direction from the phase function by inverse transform
// sampling. The pdf equals the phase function, so the weight is the albedo.
func (hg *HenyeyGreenstein) Sample(uv core.Vec2, wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	u := sampler.Get2D()

	var cosTheta float64
	if math.Abs(hg.G) < 1e-3 {
		cosTheta = 1 - 2*u.X
	} else {
		sqrTerm := (1 - hg.G*hg.G) / (1 + hg.G - 2*hg.G*u.X)
		cosTheta = (1 + hg.G*hg.G - sqrTerm*sqrTerm) / (2 * hg.G)
	}

	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * u.Y

	localDir := core.NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)

	// Forward scattering is relative to the travel direction, which is -wo
	wi := core.NewFrame(wo.Negate()).ToWorld(localDir)

	return core.BsdfSample{Wi: wi, Weight: hg.Albedo}
}
