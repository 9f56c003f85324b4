package camera

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// FovAxis selects which image axis the field of view angle refers to
type FovAxis string

const (
	FovAxisX FovAxis = "x"
	FovAxisY FovAxis = "y"
)

// Perspective is a pinhole camera. In local coordinates it looks down +z;
// normalized image coordinates in [-1,1]² map to the view pyramid, with
// +x to the right and +y up. The transform places it in the world.
type Perspective struct {
	width, height int
	transform     *core.Transform

	sX core.Vec3
	sY core.Vec3
	v  core.Vec3
}

// NewPerspective creates a perspective camera. fov is in degrees and
// applies to the axis named by fovAxis; the other axis follows from the
// aspect ratio.
func NewPerspective(width, height int, fov float64, fovAxis FovAxis, transform *core.Transform) *Perspective {
	fovRad := fov * math.Pi / 180.0
	aspectRatio := float64(width) / float64(height)

	var sxNorm, syNorm float64
	if fovAxis == FovAxisX {
		sxNorm = math.Tan(fovRad / 2)
		syNorm = sxNorm / aspectRatio
	} else {
		syNorm = math.Tan(fovRad / 2)
		sxNorm = syNorm * aspectRatio
	}

	v := core.NewVec3(0, 0, 1)
	up := core.NewVec3(0, 1, 0)
	sxBar := up.Cross(v)
	syBar := v.Cross(sxBar)

	if transform == nil {
		transform = core.IdentityTransform()
	}

	return &Perspective{
		width:     width,
		height:    height,
		transform: transform,
		sX:        sxBar.Normalize().Multiply(sxNorm),
		sY:        syBar.Normalize().Multiply(syNorm),
		v:         v,
	}
}

// Sample maps a normalized image coordinate to a world-space primary ray
func (p *Perspective) Sample(normalized core.Vec2, sampler core.Sampler) core.CameraSample {
	direction := p.v.
		Add(p.sX.Multiply(normalized.X)).
		Add(p.sY.Multiply(normalized.Y))

	localRay := core.NewRay(core.Vec3{}, direction)
	worldRay := p.transform.ApplyRay(localRay).Normalize()

	return core.CameraSample{
		Ray:    worldRay,
		Weight: core.Gray(1),
	}
}

// Resolution returns the image dimensions the camera was built for
func (p *Perspective) Resolution() (width, height int) {
	return p.width, p.height
}
