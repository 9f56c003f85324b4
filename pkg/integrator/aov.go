package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// AOVVariable selects which arbitrary output variable to render
type AOVVariable string

const (
	// AOVNormals renders shading normals remapped to [0,1]³
	AOVNormals AOVVariable = "normals"
	// AOVBvh is a debug view of BVH traversal cost per primary ray
	AOVBvh AOVVariable = "bvh"
)

// AOV renders geometric debug channels instead of radiance
type AOV struct {
	scene    *core.Scene
	variable AOVVariable
	scale    float64
}

// NewAOV creates an aov integrator. scale divides the bvh cost channel.
func NewAOV(scene *core.Scene, variable AOVVariable, scale int) *AOV {
	if scale < 1 {
		scale = 1
	}
	return &AOV{scene: scene, variable: variable, scale: float64(scale)}
}

// Li returns the selected debug value for the primary hit
func (a *AOV) Li(ray core.Ray, sampler core.Sampler) core.Color {
	its := a.scene.Intersect(ray, sampler)

	switch a.variable {
	case AOVBvh:
		cost := float64(its.Stats.BVHNodesVisited) / a.scale
		return core.Gray(cost)
	default:
		var normal core.Vec3
		if its.Hit() {
			normal = its.ShadingNormal
		}
		return normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
	}
}
