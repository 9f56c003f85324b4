package scene

import (
	"github.com/df07/go-pathtracer/pkg/camera"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/lights"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/texture"
)

// Built-in demo scenes, used by the CLI when no scene file is given and by
// the integration tests.

// quadMesh builds a two-triangle rectangle from a corner and two edge
// vectors, with uv spanning [0,1]²
func quadMesh(corner, edgeU, edgeV core.Vec3) *geometry.TriangleMesh {
	normal := edgeU.Cross(edgeV).Normalize()
	p0 := corner
	p1 := corner.Add(edgeU)
	p2 := corner.Add(edgeU).Add(edgeV)
	p3 := corner.Add(edgeV)

	data := &loaders.MeshData{
		Positions: []core.Vec3{p0, p1, p2, p3},
		Normals:   []core.Vec3{normal, normal, normal, normal},
		TexCoords: []core.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		Indices:   []int{0, 1, 2, 0, 2, 3},
	}
	return geometry.NewTriangleMesh(data, false)
}

// NewCornellScene builds the classic box: white walls, red and green
// sides, and a single emissive quad under the ceiling
func NewCornellScene(width, height int) *core.Scene {
	white := material.NewPrincipled(
		texture.NewConstant(core.Gray(0.7)),
		texture.NewConstantScalar(1),
		texture.NewConstantScalar(0),
		texture.NewConstantScalar(0.5),
	)
	red := material.NewDiffuse(texture.NewConstant(core.NewColor(0.65, 0.05, 0.05)))
	green := material.NewDiffuse(texture.NewConstant(core.NewColor(0.12, 0.45, 0.15)))

	instances := []*core.Instance{
		// Floor, ceiling, back wall, normals facing into the box
		{Shape: quadMesh(core.NewVec3(-1, 0, -1), core.NewVec3(0, 0, 2), core.NewVec3(2, 0, 0)), Bsdf: white},
		{Shape: quadMesh(core.NewVec3(-1, 2, 1), core.NewVec3(0, 0, -2), core.NewVec3(2, 0, 0)), Bsdf: white},
		{Shape: quadMesh(core.NewVec3(-1, 0, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0)), Bsdf: white},
		// Left (red) and right (green) walls
		{Shape: quadMesh(core.NewVec3(-1, 0, 1), core.NewVec3(0, 0, -2), core.NewVec3(0, 2, 0)), Bsdf: red},
		{Shape: quadMesh(core.NewVec3(1, 0, -1), core.NewVec3(0, 0, 2), core.NewVec3(0, 2, 0)), Bsdf: green},
		// Mirror-ish sphere
		{
			Shape:     geometry.NewSphere(),
			Bsdf:      material.NewRoughConductor(texture.NewConstant(core.Gray(0.9)), texture.NewConstantScalar(0.2)),
			Transform: core.Translate(core.NewVec3(-0.35, 0.35, -0.3)).Compose(core.Scale(core.Gray(0.35))),
		},
		// Glass sphere
		{
			Shape: geometry.NewSphere(),
			Bsdf: material.NewDielectric(
				texture.NewConstantScalar(1.5),
				texture.NewConstant(core.Gray(1)),
				texture.NewConstant(core.Gray(1)),
			),
			Transform: core.Translate(core.NewVec3(0.4, 0.3, 0.3)).Compose(core.Scale(core.Gray(0.3))),
		},
	}

	// Emissive quad under the ceiling, facing down
	lamp := &core.Instance{
		Shape:    quadMesh(core.NewVec3(-0.25, 1.98, -0.25), core.NewVec3(0.5, 0, 0), core.NewVec3(0, 0, 0.5)),
		Bsdf:     material.NewDiffuse(texture.NewConstant(core.Gray(0))),
		Emission: material.NewLambertianEmission(texture.NewConstant(core.Gray(10))),
	}
	instances = append(instances, lamp)

	sceneLights := []core.Light{lights.NewAreaLight(lamp)}

	cam := camera.NewPerspective(width, height, 40, camera.FovAxisY,
		core.LookAt(core.NewVec3(0, 1, 3.8), core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0)))

	return core.NewScene(cam, instances, sceneLights, nil)
}

// NewSphereScene builds a glass sphere over a checkerboard ground under a
// constant environment light
func NewSphereScene(width, height int) *core.Scene {
	ground := material.NewDiffuse(texture.NewCheckerboard(
		core.Gray(0.1), core.Gray(0.8), core.NewVec2(16, 16)))

	instances := []*core.Instance{
		{
			Shape: quadMesh(core.NewVec3(-8, 0, -8), core.NewVec3(0, 0, 16), core.NewVec3(16, 0, 0)),
			Bsdf:  ground,
		},
		{
			Shape: geometry.NewSphere(),
			Bsdf: material.NewDielectric(
				texture.NewConstantScalar(1.5),
				texture.NewConstant(core.Gray(1)),
				texture.NewConstant(core.Gray(1)),
			),
			Transform: core.Translate(core.NewVec3(0, 1, 0)),
		},
	}

	background := lights.NewEnvironmentMap(texture.NewConstant(core.Gray(1)), nil)

	cam := camera.NewPerspective(width, height, 45, camera.FovAxisY,
		core.LookAt(core.NewVec3(0, 1.5, 5), core.NewVec3(0, 0.8, 0), core.NewVec3(0, 1, 0)))

	return core.NewScene(cam, instances, nil, background)
}
