package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Image is a linear HDR pixel buffer with an optional alpha channel.
// Pixels are stored row-major, top row first.
type Image struct {
	Width  int
	Height int
	Pixels []core.Color
	Alpha  []float64 // nil when the source had no alpha channel
}

// NewImage creates a zeroed image buffer without alpha
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]core.Color, width*height),
	}
}

// Get returns the pixel at (x, y); coordinates must be in bounds
func (img *Image) Get(x, y int) core.Color {
	return img.Pixels[y*img.Width+x]
}

// Set writes the pixel at (x, y)
func (img *Image) Set(x, y int, c core.Color) {
	img.Pixels[y*img.Width+x] = c
}

// HasAlpha reports whether the image carries an alpha channel
func (img *Image) HasAlpha() bool {
	return img.Alpha != nil
}

// GetAlpha returns the alpha value at (x, y), 1 when no channel exists
func (img *Image) GetAlpha(x, y int) float64 {
	if img.Alpha == nil {
		return 1.0
	}
	return img.Alpha[y*img.Width+x]
}

// LoadImage loads an image file into a linear buffer. EXR files are read
// natively; anything else goes through the standard decoders and is
// gamma-corrected with gamma 2.2 unless linear is set.
func LoadImage(filename string, linear bool) (*Image, error) {
	if strings.EqualFold(filepath.Ext(filename), ".exr") {
		return LoadEXR(filename)
	}
	return loadLDR(filename, linear)
}

// loadLDR decodes a PNG or JPEG file and converts it to linear floats,
// keeping the alpha channel for masking
func loadLDR(filename string, linear bool) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filename, err)
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	result := NewImage(width, height)
	result.Alpha = make([]float64, width*height)

	gamma := 2.2
	if linear {
		gamma = 1.0
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := decoded.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns premultiplied uint32 in [0, 65535]
			alpha := float64(a) / 65535.0
			pixel := core.NewColor(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
			if alpha > 0 {
				// Undo premultiplication before linearizing
				pixel = pixel.Multiply(1 / alpha)
			}
			if gamma != 1.0 {
				pixel = core.NewColor(
					math.Pow(pixel.X, gamma),
					math.Pow(pixel.Y, gamma),
					math.Pow(pixel.Z, gamma),
				)
			}
			result.Pixels[y*width+x] = pixel
			result.Alpha[y*width+x] = alpha
		}
	}

	return result, nil
}
