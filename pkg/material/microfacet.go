package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// GGX (Trowbridge-Reitz) microfacet helpers shared by the rough conductor
// and the principled metallic lobe. Directions are in the local shading
// frame, alpha is the squared roughness clamped away from zero.

// evaluateGGX is the isotropic GGX normal distribution D(h)
func evaluateGGX(alpha float64, h core.Vec3) float64 {
	cosTheta := core.CosTheta(h)
	if cosTheta <= 0 {
		return 0
	}
	a2 := alpha * alpha
	d := cosTheta*cosTheta*(a2-1) + 1
	return a2 / (math.Pi * d * d)
}

// smithG1 is the Smith masking-shadowing term for one direction
func smithG1(alpha float64, h, w core.Vec3) float64 {
	// Backfacing microfacets are shadowed completely
	if w.Dot(h)*core.CosTheta(w) <= 0 {
		return 0
	}

	cosTheta := core.AbsCosTheta(w)
	if cosTheta >= 1 {
		return 1
	}
	tan2Theta := (1 - cosTheta*cosTheta) / (cosTheta * cosTheta)
	return 2 / (1 + math.Sqrt(1+alpha*alpha*tan2Theta))
}

// sampleGGXVNDF samples a visible microfacet normal for the outgoing
// direction wo (Heitz 2018)
func sampleGGXVNDF(alpha float64, wo core.Vec3, sample core.Vec2) core.Vec3 {
	// Stretch the view direction into the hemisphere configuration
	vh := core.NewVec3(alpha*wo.X, alpha*wo.Y, wo.Z).Normalize()

	// Orthonormal basis around vh
	lensq := vh.X*vh.X + vh.Y*vh.Y
	var t1 core.Vec3
	if lensq > 0 {
		t1 = core.NewVec3(-vh.Y, vh.X, 0).Multiply(1 / math.Sqrt(lensq))
	} else {
		t1 = core.NewVec3(1, 0, 0)
	}
	t2 := vh.Cross(t1)

	// Sample a disk and warp toward the projected hemisphere
	r := math.Sqrt(sample.X)
	phi := 2 * math.Pi * sample.Y
	p1 := r * math.Cos(phi)
	p2 := r * math.Sin(phi)
	s := 0.5 * (1 + vh.Z)
	p2 = (1-s)*math.Sqrt(math.Max(0, 1-p1*p1)) + s*p2

	// Project back onto the hemisphere
	p3 := math.Sqrt(math.Max(0, 1-p1*p1-p2*p2))
	nh := t1.Multiply(p1).Add(t2.Multiply(p2)).Add(vh.Multiply(p3))

	// Unstretch
	return core.NewVec3(alpha*nh.X, alpha*nh.Y, math.Max(1e-6, nh.Z)).Normalize()
}

// reflect mirrors w about the given normal
func reflect(w, n core.Vec3) core.Vec3 {
	return n.Multiply(2 * w.Dot(n)).Subtract(w)
}

// roughnessToAlpha converts a perceptual roughness to the GGX alpha,
// clamped so perfectly smooth surfaces stay numerically stable
func roughnessToAlpha(roughness float64) float64 {
	return math.Max(1e-3, roughness*roughness)
}
