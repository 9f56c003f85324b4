package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Dielectric is a smooth glass interface. Both lobes are delta
// distributions, so Evaluate always returns zero and only sampling
// contributes.
type Dielectric struct {
	IOR           core.Texture // interior over exterior index of refraction
	Reflectance   core.Texture
	Transmittance core.Texture
}

// NewDielectric creates a smooth dielectric BSDF
func NewDielectric(ior, reflectance, transmittance core.Texture) *Dielectric {
	return &Dielectric{IOR: ior, Reflectance: reflectance, Transmittance: transmittance}
}

// Evaluate returns zero: the probability of a light sample hitting exactly
// the reflected or refracted direction is zero
func (d *Dielectric) Evaluate(uv core.Vec2, wo, wi core.Vec3) core.BsdfEval {
	return core.InvalidBsdfEval()
}

// Sample picks reflection or refraction by the unpolarized Fresnel term
func (d *Dielectric) Sample(uv core.Vec2, wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	eta := d.IOR.Scalar(uv)

	cosThetaO := core.CosTheta(wo)
	entering := cosThetaO > 0

	// Relative IOR for Snell's law: air-to-glass when entering, the
	// reciprocal when exiting
	etaRatio := eta
	if entering {
		etaRatio = 1.0 / eta
	}

	absCosThetaO := math.Abs(cosThetaO)
	sin2ThetaI := etaRatio * etaRatio * (1 - cosThetaO*cosThetaO)

	if sin2ThetaI >= 1 {
		// Total internal reflection
		wi := core.NewVec3(-wo.X, -wo.Y, wo.Z)
		return core.BsdfSample{Wi: wi, Weight: d.Reflectance.Evaluate(uv)}
	}

	cosThetaI := math.Sqrt(1 - sin2ThetaI)

	// Fresnel equations for unpolarized light
	rs := (etaRatio*absCosThetaO - cosThetaI) / (etaRatio*absCosThetaO + cosThetaI)
	rp := (absCosThetaO - etaRatio*cosThetaI) / (absCosThetaO + etaRatio*cosThetaI)
	fresnel := 0.5 * (rs*rs + rp*rp)

	if sampler.Get1D() < fresnel {
		// The cosine in the convention cancels against the pdf
		wi := core.NewVec3(-wo.X, -wo.Y, wo.Z)
		return core.BsdfSample{Wi: wi, Weight: d.Reflectance.Evaluate(uv)}
	}

	sign := -1.0
	if entering {
		sign = 1.0
	}
	wi := core.NewVec3(-etaRatio*wo.X, -etaRatio*wo.Y, -sign*cosThetaI)

	// Radiance compresses by etaRatio² when crossing the interface
	weight := d.Transmittance.Evaluate(uv).Multiply(etaRatio * etaRatio)
	return core.BsdfSample{Wi: wi, Weight: weight}
}
