package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/camera"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/lights"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/texture"
)

func testSampler(seed int64) core.Sampler {
	return core.NewRandomSampler(rand.New(rand.NewSource(seed)))
}

func testCamera() core.Camera {
	return camera.NewPerspective(16, 16, 45, camera.FovAxisY,
		core.LookAt(core.NewVec3(0, 3, 0), core.Vec3{}, core.NewVec3(0, 0, 1)))
}

// whiteSphereScene is a unit sphere with albedo 1 under a directional
// light of intensity π from straight above: the lit pole reflects exactly 1
func whiteSphereScene() *core.Scene {
	sphere := &core.Instance{
		Shape: geometry.NewSphere(),
		Bsdf:  material.NewDiffuse(texture.NewConstant(core.Gray(1))),
	}
	light := lights.NewDirectionalLight(core.NewVec3(0, 1, 0), core.Gray(math.Pi))
	return core.NewScene(testCamera(), []*core.Instance{sphere}, []core.Light{light}, nil)
}

func TestDirect_DirectionalLightOnSphere(t *testing.T) {
	scene := whiteSphereScene()
	direct := NewDirect(scene)

	// Straight down onto the sphere's north pole
	ray := core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, -1, 0))
	radiance := direct.Li(ray, testSampler(1))

	// albedo·cosθ/π · intensity = (1/π)·π = 1
	if math.Abs(radiance.X-1) > 1e-9 {
		t.Errorf("center radiance = %v, expected (1,1,1)", radiance)
	}
}

func TestDirect_MissReturnsBackground(t *testing.T) {
	background := lights.NewEnvironmentMap(texture.NewConstant(core.NewColor(0.1, 0.2, 0.3)), nil)
	scene := core.NewScene(testCamera(), nil, nil, background)
	direct := NewDirect(scene)

	radiance := direct.Li(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), testSampler(1))
	if radiance.Subtract(core.NewColor(0.1, 0.2, 0.3)).Length() > 1e-12 {
		t.Errorf("miss radiance = %v, expected the background", radiance)
	}
}

func TestDirect_ShadowedPointIsDark(t *testing.T) {
	// A plane below the sphere, shaded point in the sphere's shadow
	plane := &core.Instance{
		Shape: quadMeshXZ(-5, 5, -2),
		Bsdf:  material.NewDiffuse(texture.NewConstant(core.Gray(1))),
	}
	sphere := &core.Instance{
		Shape: geometry.NewSphere(),
		Bsdf:  material.NewDiffuse(texture.NewConstant(core.Gray(1))),
	}
	light := lights.NewDirectionalLight(core.NewVec3(0, 1, 0), core.Gray(math.Pi))
	scene := core.NewScene(testCamera(), []*core.Instance{plane, sphere}, []core.Light{light}, nil)
	direct := NewDirect(scene)

	// Straight down between sphere and plane: the hit point on the plane
	// sits in the sphere's shadow
	ray := core.NewRay(core.NewVec3(0, -1.5, 0), core.NewVec3(0, -1, 0))
	radiance := direct.Li(ray, testSampler(2))
	if radiance.X > 1e-9 {
		t.Errorf("shadowed radiance = %v, expected black", radiance)
	}
}

// quadMeshXZ builds a horizontal quad spanning [min,max]² at height y
func quadMeshXZ(min, max, y float64) *geometry.TriangleMesh {
	data := &loaders.MeshData{
		Positions: []core.Vec3{
			{X: min, Y: y, Z: min}, {X: max, Y: y, Z: min},
			{X: max, Y: y, Z: max}, {X: min, Y: y, Z: max},
		},
		Normals: []core.Vec3{{Y: 1}, {Y: 1}, {Y: 1}, {Y: 1}},
		Indices: []int{0, 2, 1, 0, 3, 2},
	}
	return geometry.NewTriangleMesh(data, true)
}

func TestPathTracer_WhiteFurnace(t *testing.T) {
	// A perfectly white diffuse sphere inside a uniform unit environment
	// must reflect exactly the environment radiance: every bounce weight
	// is 1 and every escaping ray picks up 1
	sphere := &core.Instance{
		Shape: geometry.NewSphere(),
		Bsdf:  material.NewDiffuse(texture.NewConstant(core.Gray(1))),
	}
	background := lights.NewEnvironmentMap(texture.NewConstant(core.Gray(1)), nil)
	scene := core.NewScene(testCamera(), []*core.Instance{sphere}, nil, background)

	pt := NewPathTracer(scene, 8, false)
	sampler := testSampler(42)

	for i := 0; i < 200; i++ {
		ray := core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, -1, 0))
		radiance := pt.Li(ray, sampler)
		if math.Abs(radiance.X-1) > 1e-9 {
			t.Fatalf("white furnace radiance = %v, expected 1", radiance)
		}
	}
}

func TestPathTracer_DepthOneSeesOnlyEmission(t *testing.T) {
	emissive := &core.Instance{
		Shape:    geometry.NewSphere(),
		Bsdf:     material.NewDiffuse(texture.NewConstant(core.Gray(0.5))),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(3))),
	}
	background := lights.NewEnvironmentMap(texture.NewConstant(core.Gray(1)), nil)
	scene := core.NewScene(testCamera(), []*core.Instance{emissive}, nil, background)

	pt := NewPathTracer(scene, 1, false)
	ray := core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, -1, 0))
	radiance := pt.Li(ray, testSampler(1))

	if math.Abs(radiance.X-3) > 1e-9 {
		t.Errorf("depth-1 radiance = %v, expected the raw emission 3", radiance)
	}
}

func TestPathTracer_NeeReducesVariance(t *testing.T) {
	// Diffuse ground under a small emissive ceiling quad. With NEE every
	// path connects to the lamp; without it only lucky bounces find it,
	// so the sample variance must be far higher.
	ceiling := &core.Instance{
		Shape:    quadMeshDown(),
		Bsdf:     material.NewDiffuse(texture.NewConstant(core.Gray(0))),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(5))),
	}
	ground := &core.Instance{
		Shape: quadMeshXZ(-20, 20, 0),
		Bsdf:  material.NewDiffuse(texture.NewConstant(core.Gray(0.8))),
	}

	variance := func(nee bool, seed int64) (mean, varEstimate float64) {
		var sceneLights []core.Light
		if nee {
			sceneLights = []core.Light{lights.NewAreaLight(ceiling)}
		}
		scene := core.NewScene(testCamera(), []*core.Instance{ceiling, ground}, sceneLights, nil)
		pt := NewPathTracer(scene, 2, nee)
		sampler := testSampler(seed)

		sum, sumSq := 0.0, 0.0
		const samples = 30000
		for i := 0; i < samples; i++ {
			ray := core.NewRay(core.NewVec3(0.3, 0.5, 0.3), core.NewVec3(0, -1, 0))
			value := pt.Li(ray, sampler).X
			if math.IsNaN(value) || math.IsInf(value, 0) {
				t.Fatal("path tracer produced a non-finite sample")
			}
			sum += value
			sumSq += value * value
		}
		mean = sum / samples
		varEstimate = sumSq/samples - mean*mean
		return mean, varEstimate
	}

	neeMean, neeVar := variance(true, 1)
	bsdfMean, bsdfVar := variance(false, 2)

	if neeMean <= 0 {
		t.Fatal("NEE estimate must be positive")
	}
	if bsdfMean > 0 && neeVar >= bsdfVar {
		t.Errorf("NEE variance %g not lower than BSDF-only variance %g", neeVar, bsdfVar)
	}
}

// quadMeshDown is a 1x1 quad at height 2 facing down
func quadMeshDown() *geometry.TriangleMesh {
	data := &loaders.MeshData{
		Positions: []core.Vec3{
			{X: -0.5, Y: 2, Z: -0.5}, {X: -0.5, Y: 2, Z: 0.5},
			{X: 0.5, Y: 2, Z: 0.5}, {X: 0.5, Y: 2, Z: -0.5},
		},
		Normals: []core.Vec3{{Y: -1}, {Y: -1}, {Y: -1}, {Y: -1}},
		Indices: []int{0, 1, 2, 0, 2, 3},
	}
	return geometry.NewTriangleMesh(data, true)
}

func TestAOV_Normals(t *testing.T) {
	sphere := &core.Instance{Shape: geometry.NewSphere()}
	scene := core.NewScene(testCamera(), []*core.Instance{sphere}, nil, nil)
	aov := NewAOV(scene, AOVNormals, 1)

	// North pole normal (0,1,0) remaps to (0.5, 1, 0.5)
	ray := core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, -1, 0))
	value := aov.Li(ray, testSampler(1))
	if value.Subtract(core.NewColor(0.5, 1, 0.5)).Length() > 1e-9 {
		t.Errorf("normals aov = %v, expected (0.5, 1, 0.5)", value)
	}

	// A miss encodes the zero normal as mid-gray
	miss := aov.Li(core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, 1, 0)), testSampler(1))
	if miss.Subtract(core.Gray(0.5)).Length() > 1e-9 {
		t.Errorf("miss aov = %v, expected mid-gray", miss)
	}
}

func TestAOV_BvhCounts(t *testing.T) {
	sphere := &core.Instance{Shape: geometry.NewSphere()}
	scene := core.NewScene(testCamera(), []*core.Instance{sphere}, nil, nil)
	aov := NewAOV(scene, AOVBvh, 1)

	ray := core.NewRay(core.NewVec3(0, 3, 0), core.NewVec3(0, -1, 0))
	value := aov.Li(ray, testSampler(1))
	if value.X < 1 {
		t.Errorf("bvh aov = %v, expected at least one node visit", value)
	}
}
