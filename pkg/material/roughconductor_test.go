package material

import (
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/texture"
)

func newTestConductor(roughness float64) *RoughConductor {
	return NewRoughConductor(
		texture.NewConstant(core.Gray(1)),
		texture.NewConstantScalar(roughness),
	)
}

func TestRoughConductor_RejectsOppositeHemispheres(t *testing.T) {
	conductor := newTestConductor(0.3)
	if !conductor.Evaluate(testUV, core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1)).IsInvalid() {
		t.Error("transmission through a conductor must be zero")
	}
}

func TestRoughConductor_SampleStaysAboveSurface(t *testing.T) {
	conductor := newTestConductor(0.4)
	sampler := testSampler(42)

	wo := core.NewVec3(0.3, 0.1, 0.9).Normalize()
	for i := 0; i < 2000; i++ {
		sample := conductor.Sample(testUV, wo, sampler)
		if sample.IsInvalid() {
			continue
		}
		if math.Abs(sample.Wi.Length()-1) > 1e-6 {
			t.Fatalf("sampled direction %v is not unit length", sample.Wi)
		}
		// The weight G1 is bounded by 1 for unit reflectance
		if sample.Weight.X > 1+1e-9 {
			t.Fatalf("sample weight %v exceeds the reflectance", sample.Weight)
		}
	}
}

func TestRoughConductor_SmoothSurfaceReflectsNearMirror(t *testing.T) {
	conductor := newTestConductor(0.0) // alpha clamps to 1e-3
	sampler := testSampler(7)

	wo := core.NewVec3(0.5, 0, math.Sqrt(0.75))
	mirror := core.NewVec3(-0.5, 0, math.Sqrt(0.75))

	for i := 0; i < 100; i++ {
		sample := conductor.Sample(testUV, wo, sampler)
		if sample.IsInvalid() {
			t.Fatal("smooth conductor sample failed")
		}
		if sample.Wi.Subtract(mirror).Length() > 0.05 {
			t.Fatalf("near-smooth sample %v far from mirror direction %v", sample.Wi, mirror)
		}
	}
}

func TestRoughConductor_EvaluateMatchesWhiteFurnaceBound(t *testing.T) {
	// With unit reflectance the directional albedo cannot exceed 1:
	// integrate f·cos over the hemisphere by uniform sampling
	conductor := newTestConductor(0.5)
	sampler := testSampler(3)

	wo := core.NewVec3(0, 0, 1)
	sum := 0.0
	const n = 200000
	for i := 0; i < n; i++ {
		wi := core.SquareToUniformSphere(sampler.Get2D())
		if wi.Z <= 0 {
			continue
		}
		// Evaluate already contains cos θi; divide by the hemisphere pdf
		sum += conductor.Evaluate(testUV, wo, wi).Value.Mean() * 2 * math.Pi * 2
	}

	albedo := sum / n
	if albedo > 1.05 {
		t.Errorf("directional albedo estimate %f exceeds 1", albedo)
	}
	if albedo < 0.2 {
		t.Errorf("directional albedo estimate %f suspiciously low", albedo)
	}
}

func TestRoughConductor_GrazingRejected(t *testing.T) {
	conductor := newTestConductor(0.3)
	grazing := core.NewVec3(1, 0, 1e-6).Normalize()
	if !conductor.Evaluate(testUV, grazing, core.NewVec3(0, 0, 1)).IsInvalid() {
		t.Error("grazing outgoing direction must be rejected")
	}
	if !conductor.Sample(testUV, core.NewVec3(1, 0, -1e-9), testSampler(1)).IsInvalid() {
		t.Error("sampling below the surface must fail")
	}
}
