package renderer

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
)

// Postprocess consumes the finished HDR image and produces a new buffer;
// the input is never modified
type Postprocess interface {
	Apply(input *loaders.Image) *loaders.Image
}

// Tonemap is the Reinhard operator c / (c + 1), mapping HDR radiance into
// [0, 1)
type Tonemap struct{}

// NewTonemap creates a Reinhard tonemapper
func NewTonemap() *Tonemap {
	return &Tonemap{}
}

// Apply tonemaps every pixel
func (t *Tonemap) Apply(input *loaders.Image) *loaders.Image {
	output := loaders.NewImage(input.Width, input.Height)
	for y := 0; y < input.Height; y++ {
		for x := 0; x < input.Width; x++ {
			c := input.Get(x, y)
			output.Set(x, y, core.NewColor(
				c.X/(c.X+1),
				c.Y/(c.Y+1),
				c.Z/(c.Z+1),
			))
		}
	}
	return output
}

// BloomMinimal adds a soft glow around pixels brighter than a threshold:
// bright-pass, separable Gaussian blur, additive combine
type BloomMinimal struct {
	Threshold float64
	Intensity float64
	Radius    int
	Sigma     float64
}

// NewBloomMinimal creates a bloom pass with the standard defaults
func NewBloomMinimal() *BloomMinimal {
	return &BloomMinimal{
		Threshold: 1.0,
		Intensity: 0.08,
		Radius:    7,
		Sigma:     4.0,
	}
}

// Apply runs the bloom pass
func (b *BloomMinimal) Apply(input *loaders.Image) *loaders.Image {
	width, height := input.Width, input.Height

	// Bright-pass with a hard threshold
	bright := loaders.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := input.Get(x, y)
			if c.Luminance() > b.Threshold {
				bright.Set(x, y, c)
			}
		}
	}

	weights := gaussianWeights(b.Radius, b.Sigma)

	// Horizontal then vertical blur, clamping taps at the image edge
	temp := loaders.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			accum := core.Color{}
			for i := -b.Radius; i <= b.Radius; i++ {
				accum = accum.Add(sampleClamped(bright, x+i, y).Multiply(weights[i+b.Radius]))
			}
			temp.Set(x, y, accum)
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			accum := core.Color{}
			for i := -b.Radius; i <= b.Radius; i++ {
				accum = accum.Add(sampleClamped(temp, x, y+i).Multiply(weights[i+b.Radius]))
			}
			bright.Set(x, y, accum)
		}
	}

	output := loaders.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			output.Set(x, y, input.Get(x, y).Add(bright.Get(x, y).Multiply(b.Intensity)))
		}
	}
	return output
}

func sampleClamped(img *loaders.Image, x, y int) core.Color {
	x = max(0, min(img.Width-1, x))
	y = max(0, min(img.Height-1, y))
	return img.Get(x, y)
}

func gaussianWeights(radius int, sigma float64) []float64 {
	weights := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		weights[i+radius] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
