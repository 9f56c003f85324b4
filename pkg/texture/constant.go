package texture

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Constant is a texture returning the same color everywhere
type Constant struct {
	Value core.Color
}

// NewConstant creates a constant color texture
func NewConstant(value core.Color) *Constant {
	return &Constant{Value: value}
}

// NewConstantScalar creates a constant gray texture from a single value
func NewConstantScalar(value float64) *Constant {
	return &Constant{Value: core.Gray(value)}
}

// Evaluate returns the constant color
func (t *Constant) Evaluate(uv core.Vec2) core.Color {
	return t.Value
}

// Scalar returns the mean of the constant color
func (t *Constant) Scalar(uv core.Vec2) float64 {
	return t.Value.Mean()
}
