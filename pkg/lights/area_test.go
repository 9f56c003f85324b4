package lights

import (
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/texture"
)

// testQuad is a unit quad at height 1 facing down (-y)
func testQuad() *geometry.TriangleMesh {
	data := &loaders.MeshData{
		Positions: []core.Vec3{
			{X: -0.5, Y: 1, Z: -0.5}, {X: -0.5, Y: 1, Z: 0.5},
			{X: 0.5, Y: 1, Z: 0.5}, {X: 0.5, Y: 1, Z: -0.5},
		},
		Normals: []core.Vec3{
			{Y: -1}, {Y: -1}, {Y: -1}, {Y: -1},
		},
		Indices: []int{0, 1, 2, 0, 2, 3},
	}
	return geometry.NewTriangleMesh(data, true)
}

func TestAreaLight_SampleDirect(t *testing.T) {
	instance := &core.Instance{
		Shape:    testQuad(),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(10))),
	}
	light := NewAreaLight(instance)
	sampler := testSampler(42)

	from := core.Vec3{}
	for i := 0; i < 500; i++ {
		sample := light.SampleDirect(from, sampler)
		if sample.IsInvalid() {
			t.Fatal("a downward-facing emitter above the origin must be sampleable")
		}
		if sample.Wi.Y <= 0 {
			t.Fatalf("wi = %v must point up toward the light", sample.Wi)
		}
		// The quad sits at height 1, so distance·wi.y recovers the height
		// (minus the shadow-ray shortening)
		if math.Abs(sample.Distance*sample.Wi.Y-1) > 0.01 {
			t.Fatalf("distance %f inconsistent with the quad height", sample.Distance)
		}
		if sample.Weight.IsZero() || !sample.Weight.IsFinite() {
			t.Fatalf("weight %v invalid", sample.Weight)
		}
	}
}

func TestAreaLight_MonteCarloIrradiance(t *testing.T) {
	// Unit quad with emission L at height 1 over the origin: the mean of
	// L·cosθ/(pdf·d²) estimates the incident illumination integral
	// ∫ L cosθ_light / d² dA = L · (solid angle seen from below)
	emission := 10.0
	instance := &core.Instance{
		Shape:    testQuad(),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(emission))),
	}
	light := NewAreaLight(instance)
	sampler := testSampler(7)

	sum := 0.0
	const n = 200000
	for i := 0; i < n; i++ {
		sample := light.SampleDirect(core.Vec3{}, sampler)
		if !sample.IsInvalid() {
			sum += sample.Weight.X
		}
	}
	estimate := sum / n

	// Analytic solid angle of a unit square at distance 1:
	// Ω = 4·asin(a·b/√((4+a²)(4+b²))) with a=b=1 → 4·asin(1/5)
	expected := emission * 4 * math.Asin(1.0/5.0)
	if math.Abs(estimate-expected)/expected > 0.03 {
		t.Errorf("irradiance estimate = %f, expected %f", estimate, expected)
	}
}

func TestAreaLight_BackSideInvalid(t *testing.T) {
	instance := &core.Instance{
		Shape:    testQuad(),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(5))),
	}
	light := NewAreaLight(instance)
	sampler := testSampler(3)

	// From above, the downward-facing quad shows its back side
	for i := 0; i < 100; i++ {
		sample := light.SampleDirect(core.NewVec3(0, 5, 0), sampler)
		if !sample.IsInvalid() {
			t.Fatal("back side of an area light must not be sampleable")
		}
	}
}

func TestAreaLight_ShapeWithoutAreaSampling(t *testing.T) {
	instance := &core.Instance{
		Shape:    geometry.NewVolume(1, nil),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(1))),
	}
	light := NewAreaLight(instance)

	sample := light.SampleDirect(core.Vec3{}, testSampler(1))
	if !sample.IsInvalid() {
		t.Error("shapes without area sampling must yield invalid samples")
	}
}
