package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// grazingEpsilon rejects microfacet evaluations at angles where the
// geometry terms become numerically meaningless
const grazingEpsilon = 1e-4

// RoughConductor is a metallic GGX microfacet BSDF with textured
// reflectance and roughness
type RoughConductor struct {
	Reflectance core.Texture
	Roughness   core.Texture
}

// NewRoughConductor creates a rough metallic BSDF
func NewRoughConductor(reflectance, roughness core.Texture) *RoughConductor {
	return &RoughConductor{Reflectance: reflectance, Roughness: roughness}
}

// Evaluate computes reflectance * D * G1(wo) * G1(wi) / (4 |cos θo|),
// which already includes the |cos θi| convention factor
func (rc *RoughConductor) Evaluate(uv core.Vec2, wo, wi core.Vec3) core.BsdfEval {
	if !core.SameHemisphere(wo, wi) {
		return core.InvalidBsdfEval()
	}

	cosThetaO := core.AbsCosTheta(wo)
	cosThetaI := core.AbsCosTheta(wi)
	if cosThetaO < grazingEpsilon || cosThetaI < grazingEpsilon {
		return core.InvalidBsdfEval()
	}

	h := wo.Add(wi).Normalize()
	if core.CosTheta(h) <= 0 {
		return core.InvalidBsdfEval()
	}

	alpha := roughnessToAlpha(rc.Roughness.Scalar(uv))
	d := evaluateGGX(alpha, h)
	g := smithG1(alpha, h, wo) * smithG1(alpha, h, wi)

	value := rc.Reflectance.Evaluate(uv).Multiply(d * g / (4 * cosThetaO))
	return core.BsdfEval{Value: value}
}

// Sample draws a visible microfacet normal and reflects wo about it. With
// VNDF sampling the weight reduces to reflectance * G1(wi).
func (rc *RoughConductor) Sample(uv core.Vec2, wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	if core.CosTheta(wo) <= grazingEpsilon {
		return core.InvalidBsdfSample()
	}

	alpha := roughnessToAlpha(rc.Roughness.Scalar(uv))
	h := sampleGGXVNDF(alpha, wo, sampler.Get2D())
	wi := reflect(wo, h)

	return core.BsdfSample{
		Wi:     wi,
		Weight: rc.Reflectance.Evaluate(uv).Multiply(smithG1(alpha, h, wi)),
	}
}
