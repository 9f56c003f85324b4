package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Diffuse is a Lambertian BSDF with a textured albedo
type Diffuse struct {
	Albedo core.Texture
}

// NewDiffuse creates a Lambertian BSDF
func NewDiffuse(albedo core.Texture) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

// Evaluate returns albedo * |cos θi| / π when both directions share a
// hemisphere
func (d *Diffuse) Evaluate(uv core.Vec2, wo, wi core.Vec3) core.BsdfEval {
	if !core.SameHemisphere(wo, wi) {
		return core.InvalidBsdfEval()
	}

	albedo := d.Albedo.Evaluate(uv)
	return core.BsdfEval{Value: albedo.Multiply(core.AbsCosTheta(wi) / math.Pi)}
}

// Sample draws a cosine-weighted direction; the weight collapses to the
// albedo because the pdf cancels the cosine and 1/π terms
func (d *Diffuse) Sample(uv core.Vec2, wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	wi := core.SquareToCosineHemisphere(sampler.Get2D())

	// Keep wi on the same side of the surface as wo
	if core.CosTheta(wo) < 0 {
		wi.Z = -wi.Z
	}
	wi = wi.Normalize()

	return core.BsdfSample{Wi: wi, Weight: d.Albedo.Evaluate(uv)}
}
