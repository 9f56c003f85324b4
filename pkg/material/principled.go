package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Principled combines a diffuse lobe and a metallic GGX lobe driven by
// artist-friendly parameters
type Principled struct {
	BaseColor core.Texture
	Roughness core.Texture
	Metallic  core.Texture
	Specular  core.Texture
}

// NewPrincipled creates a two-lobe principled BSDF
func NewPrincipled(baseColor, roughness, metallic, specular core.Texture) *Principled {
	return &Principled{BaseColor: baseColor, Roughness: roughness, Metallic: metallic, Specular: specular}
}

type diffuseLobe struct {
	color core.Color
}

func (l diffuseLobe) evaluate(wo, wi core.Vec3) core.BsdfEval {
	if !core.SameHemisphere(wo, wi) {
		return core.InvalidBsdfEval()
	}
	return core.BsdfEval{Value: l.color.Multiply(core.AbsCosTheta(wi) / math.Pi)}
}

func (l diffuseLobe) sample(wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	wi := core.SquareToCosineHemisphere(sampler.Get2D())
	if core.CosTheta(wo) < 0 {
		wi.Z = -wi.Z
	}
	return core.BsdfSample{Wi: wi.Normalize(), Weight: l.color}
}

type metallicLobe struct {
	alpha float64
	color core.Color
}

func (l metallicLobe) evaluate(wo, wi core.Vec3) core.BsdfEval {
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

	d := evaluateGGX(l.alpha, h)
	g := smithG1(l.alpha, h, wo) * smithG1(l.alpha, h, wi)
	return core.BsdfEval{Value: l.color.Multiply(d * g / (4 * cosThetaO))}
}

func (l metallicLobe) sample(wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	if core.CosTheta(wo) <= grazingEpsilon {
		return core.InvalidBsdfSample()
	}
	h := sampleGGXVNDF(l.alpha, wo, sampler.Get2D())
	wi := reflect(wo, h)
	return core.BsdfSample{Wi: wi, Weight: l.color.Multiply(smithG1(l.alpha, h, wi))}
}

type lobeCombination struct {
	diffuseSelectionProb float64
	diffuse              diffuseLobe
	metallic             metallicLobe
}

// schlick is the polynomial Fresnel approximation
func schlick(f0, cosTheta float64) float64 {
	x := 1 - cosTheta
	x2 := x * x
	return f0 + (1-f0)*x2*x2*x
}

// combine evaluates the textures once and splits the energy between the
// two lobes
func (p *Principled) combine(uv core.Vec2, wo core.Vec3) lobeCombination {
	baseColor := p.BaseColor.Evaluate(uv)
	alpha := roughnessToAlpha(p.Roughness.Scalar(uv))
	specular := p.Specular.Scalar(uv)
	metallic := p.Metallic.Scalar(uv)

	fresnel := specular * schlick((1-metallic)*0.08, core.CosTheta(wo))

	diffuse := diffuseLobe{
		color: baseColor.Multiply((1 - fresnel) * (1 - metallic)),
	}
	metal := metallicLobe{
		alpha: alpha,
		color: core.Gray(fresnel).Add(baseColor.Multiply((1 - fresnel) * metallic)),
	}

	diffuseAlbedo := diffuse.color.Mean()
	totalAlbedo := diffuseAlbedo + metal.color.Mean()
	selectionProb := 1.0
	if totalAlbedo > 0 {
		selectionProb = diffuseAlbedo / totalAlbedo
	}

	return lobeCombination{
		diffuseSelectionProb: selectionProb,
		diffuse:              diffuse,
		metallic:             metal,
	}
}

// Evaluate sums the contributions of both lobes
func (p *Principled) Evaluate(uv core.Vec2, wo, wi core.Vec3) core.BsdfEval {
	combination := p.combine(uv, wo)
	diffuse := combination.diffuse.evaluate(wo, wi)
	metallic := combination.metallic.evaluate(wo, wi)
	return core.BsdfEval{Value: diffuse.Value.Add(metallic.Value)}
}

// Sample picks one lobe proportionally to its mean albedo and divides the
// weight by the selection probability
func (p *Principled) Sample(uv core.Vec2, wo core.Vec3, sampler core.Sampler) core.BsdfSample {
	combination := p.combine(uv, wo)

	if sampler.Get1D() < combination.diffuseSelectionProb {
		sample := combination.diffuse.sample(wo, sampler)
		sample.Weight = sample.Weight.Multiply(1 / combination.diffuseSelectionProb)
		return sample
	}

	sample := combination.metallic.sample(wo, sampler)
	if sample.IsInvalid() {
		return sample
	}
	sample.Weight = sample.Weight.Multiply(1 / (1 - combination.diffuseSelectionProb))
	return sample
}
