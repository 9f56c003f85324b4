package texture

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
)

// BorderMode selects how pixel coordinates outside the image are handled
type BorderMode int

const (
	BorderRepeat BorderMode = iota
	BorderClamp
)

// FilterMode selects the reconstruction filter
type FilterMode int

const (
	FilterBilinear FilterMode = iota
	FilterNearest
)

// ImageTexture samples colors from a loaded image. Pixel centers sit at
// uv (0.5/W, 0.5/H); the v axis is flipped so v=0 is the bottom row.
type ImageTexture struct {
	Image    *loaders.Image
	Exposure float64
	Border   BorderMode
	Filter   FilterMode
}

// NewImageTexture creates an image texture with the given sampling modes
func NewImageTexture(img *loaders.Image, exposure float64, border BorderMode, filter FilterMode) *ImageTexture {
	return &ImageTexture{Image: img, Exposure: exposure, Border: border, Filter: filter}
}

// Evaluate samples the image at uv and applies the exposure multiplier
func (t *ImageTexture) Evaluate(uv core.Vec2) core.Color {
	x := uv.X*float64(t.Image.Width) - 0.5
	y := (1.0-uv.Y)*float64(t.Image.Height) - 0.5

	var result core.Color
	if t.Filter == FilterNearest {
		result = t.sampleNearest(x, y)
	} else {
		result = t.sampleBilinear(x, y)
	}

	return result.Multiply(t.Exposure)
}

// Scalar returns the alpha channel bilinearly interpolated and clamped to
// [0,1]. Images without an alpha channel are fully opaque.
func (t *ImageTexture) Scalar(uv core.Vec2) float64 {
	if !t.Image.HasAlpha() {
		return 1.0
	}

	x := uv.X*float64(t.Image.Width) - 0.5
	y := (1.0-uv.Y)*float64(t.Image.Height) - 0.5

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	tx := x - math.Floor(x)
	ty := y - math.Floor(y)

	a00 := t.Image.GetAlpha(t.borderX(x0), t.borderY(y0))
	a10 := t.Image.GetAlpha(t.borderX(x0+1), t.borderY(y0))
	a01 := t.Image.GetAlpha(t.borderX(x0), t.borderY(y0+1))
	a11 := t.Image.GetAlpha(t.borderX(x0+1), t.borderY(y0+1))

	alpha := (1-ty)*((1-tx)*a00+tx*a10) + ty*((1-tx)*a01+tx*a11)
	return max(0, min(1, alpha))
}

// borderX maps an integer pixel column into the image per the border mode
func (t *ImageTexture) borderX(x int) int { return applyBorder(x, t.Image.Width, t.Border) }

// borderY maps an integer pixel row into the image per the border mode
func (t *ImageTexture) borderY(y int) int { return applyBorder(y, t.Image.Height, t.Border) }

func applyBorder(coord, size int, mode BorderMode) int {
	if mode == BorderClamp {
		if coord < 0 {
			return 0
		}
		if coord >= size {
			return size - 1
		}
		return coord
	}
	coord = coord % size
	if coord < 0 {
		coord += size
	}
	return coord
}

func (t *ImageTexture) sampleNearest(x, y float64) core.Color {
	ix := t.borderX(int(math.Round(x)))
	iy := t.borderY(int(math.Round(y)))
	return t.Image.Get(ix, iy)
}

func (t *ImageTexture) sampleBilinear(x, y float64) core.Color {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	tx := x - math.Floor(x)
	ty := y - math.Floor(y)

	t00 := t.Image.Get(t.borderX(x0), t.borderY(y0))
	t10 := t.Image.Get(t.borderX(x0+1), t.borderY(y0))
	t01 := t.Image.Get(t.borderX(x0), t.borderY(y0+1))
	t11 := t.Image.Get(t.borderX(x0+1), t.borderY(y0+1))

	top := t00.Multiply(1 - tx).Add(t10.Multiply(tx))
	bottom := t01.Multiply(1 - tx).Add(t11.Multiply(tx))
	return top.Multiply(1 - ty).Add(bottom.Multiply(ty))
}
