package material

import (
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/texture"
)

func newTestPrincipled(metallic, specular float64) *Principled {
	return NewPrincipled(
		texture.NewConstant(core.NewColor(0.7, 0.7, 0.7)),
		texture.NewConstantScalar(1.0), // fully rough
		texture.NewConstantScalar(metallic),
		texture.NewConstantScalar(specular),
	)
}

func TestPrincipled_EvaluateSumsLobes(t *testing.T) {
	principled := newTestPrincipled(0.5, 0.5)

	wo := core.NewVec3(0, 0, 1)
	wi := core.NewVec3(0.3, 0.2, 0.93).Normalize()

	combination := principled.combine(testUV, wo)
	expected := combination.diffuse.evaluate(wo, wi).Value.
		Add(combination.metallic.evaluate(wo, wi).Value)

	value := principled.Evaluate(testUV, wo, wi).Value
	if value.Subtract(expected).Length() > 1e-12 {
		t.Errorf("evaluate = %v, expected lobe sum %v", value, expected)
	}
}

func TestPrincipled_PureDiffuseSelection(t *testing.T) {
	// metallic 0, specular 0 leaves no metallic energy
	principled := newTestPrincipled(0, 0)
	combination := principled.combine(testUV, core.NewVec3(0, 0, 1))

	if math.Abs(combination.diffuseSelectionProb-1) > 1e-9 {
		t.Errorf("diffuse selection probability = %f, expected 1", combination.diffuseSelectionProb)
	}
}

func TestPrincipled_MetallicShiftsSelection(t *testing.T) {
	diffuseOnly := newTestPrincipled(0, 0.5).combine(testUV, core.NewVec3(0, 0, 1))
	metallicHeavy := newTestPrincipled(1, 0.5).combine(testUV, core.NewVec3(0, 0, 1))

	if metallicHeavy.diffuseSelectionProb >= diffuseOnly.diffuseSelectionProb {
		t.Errorf("metallic parameter did not shift lobe selection: %f vs %f",
			metallicHeavy.diffuseSelectionProb, diffuseOnly.diffuseSelectionProb)
	}

	// Fully metallic kills the diffuse lobe
	if metallicHeavy.diffuse.color.Length() > 1e-9 {
		t.Errorf("fully metallic surface still has diffuse color %v", metallicHeavy.diffuse.color)
	}
}

func TestPrincipled_SampleWeightsCompensateSelection(t *testing.T) {
	principled := newTestPrincipled(0.5, 0.5)
	sampler := testSampler(42)

	wo := core.NewVec3(0, 0, 1)
	var sum core.Color
	valid := 0
	const n = 200000
	for i := 0; i < n; i++ {
		sample := principled.Sample(testUV, wo, sampler)
		if sample.IsInvalid() {
			continue
		}
		valid++
		sum = sum.Add(sample.Weight)
	}

	// At alpha 1 about half of the metallic reflections point below the
	// surface and are rejected; that lobe is picked about 51% of the time
	// here, so roughly 74% of the samples are valid
	if valid < n*7/10 {
		t.Fatalf("too many invalid samples: %d/%d valid", valid, n)
	}

	// The mean weight estimates the total albedo, which must stay below 1
	mean := sum.Multiply(1.0 / float64(n))
	if mean.Mean() > 1 {
		t.Errorf("mean sampling weight %v exceeds energy conservation", mean)
	}
	if mean.Mean() < 0.1 {
		t.Errorf("mean sampling weight %v suspiciously low", mean)
	}
}

func TestSchlick_Endpoints(t *testing.T) {
	if math.Abs(schlick(0.04, 1)-0.04) > 1e-12 {
		t.Error("schlick at normal incidence must return f0")
	}
	if math.Abs(schlick(0.04, 0)-1) > 1e-12 {
		t.Error("schlick at grazing incidence must return 1")
	}
}
