package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-pathtracer/pkg/core"
)

func gradient(width, height int) *Image {
	img := NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, core.NewColor(
				float64(x)/float64(width),
				float64(y)/float64(height),
				float64(x+y),
			))
		}
	}
	return img
}

func roundTrip(t *testing.T, img *Image, log string) *Image {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.exr")
	require.NoError(t, SaveEXR(path, img, log))

	loaded, err := LoadEXR(path)
	require.NoError(t, err)
	return loaded
}

func assertImagesEqual(t *testing.T, expected, actual *Image) {
	t.Helper()
	require.Equal(t, expected.Width, actual.Width)
	require.Equal(t, expected.Height, actual.Height)
	for y := 0; y < expected.Height; y++ {
		for x := 0; x < expected.Width; x++ {
			want := expected.Get(x, y)
			got := actual.Get(x, y)
			// float32 storage loses double precision
			require.InDelta(t, want.X, got.X, 1e-5, "pixel (%d,%d) R", x, y)
			require.InDelta(t, want.Y, got.Y, 1e-5, "pixel (%d,%d) G", x, y)
			require.InDelta(t, want.Z, got.Z, 1e-4, "pixel (%d,%d) B", x, y)
		}
	}
}

func TestEXR_RoundTripUncompressed(t *testing.T) {
	// Below 16px per side the writer stores scanlines uncompressed
	img := gradient(8, 4)
	assertImagesEqual(t, img, roundTrip(t, img, ""))
}

func TestEXR_RoundTripZip(t *testing.T) {
	img := gradient(64, 48) // three full 16-line zip blocks
	assertImagesEqual(t, img, roundTrip(t, img, "render log line\n"))
}

func TestEXR_LogAttributeWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.exr")
	log := "a distinctive log payload"
	require.NoError(t, SaveEXR(path, gradient(4, 4), log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), log, "the log attribute must be embedded verbatim")
}

func TestEXR_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.exr")
	require.NoError(t, os.WriteFile(path, []byte("not an exr file at all"), 0644))

	_, err := LoadEXR(path)
	assert.Error(t, err)
}

func TestEXRZipFilter_RoundTrip(t *testing.T) {
	raw := make([]byte, 1000)
	for i := range raw {
		raw[i] = byte(i * 31)
	}

	packed, err := exrZipCompress(raw)
	require.NoError(t, err)

	restored, err := exrZipDecompress(packed, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, restored)
}

func TestHalfToFloat(t *testing.T) {
	cases := []struct {
		bits  uint16
		value float32
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0xC000, -2},
		{0x3800, 0.5},
		{0x4248, 3.140625},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.value, halfToFloat(tc.bits), "bits %04x", tc.bits)
	}
}
