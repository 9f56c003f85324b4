package texture

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Checkerboard alternates between two colors on a uv grid
type Checkerboard struct {
	Color0 core.Color
	Color1 core.Color
	Scale  core.Vec2
}

// NewCheckerboard creates a checkerboard texture with the given cell scale
func NewCheckerboard(color0, color1 core.Color, scale core.Vec2) *Checkerboard {
	return &Checkerboard{Color0: color0, Color1: color1, Scale: scale}
}

// Evaluate returns color0 when the scaled cell parity is even, else color1
func (t *Checkerboard) Evaluate(uv core.Vec2) core.Color {
	gridX := int(math.Floor(uv.X * t.Scale.X))
	gridY := int(math.Floor(uv.Y * t.Scale.Y))

	if (gridX+gridY)%2 == 0 {
		return t.Color0
	}
	return t.Color1
}

// Scalar returns the mean of the cell color
func (t *Checkerboard) Scalar(uv core.Vec2) float64 {
	return t.Evaluate(uv).Mean()
}
