package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
)

func TestTonemap_MapsIntoUnitRange(t *testing.T) {
	input := loaders.NewImage(2, 1)
	input.Set(0, 0, core.NewColor(1, 3, 0))
	input.Set(1, 0, core.Gray(100))

	output := NewTonemap().Apply(input)

	assert.InDelta(t, 0.5, output.Get(0, 0).X, 1e-12)  // 1/(1+1)
	assert.InDelta(t, 0.75, output.Get(0, 0).Y, 1e-12) // 3/(3+1)
	assert.InDelta(t, 0.0, output.Get(0, 0).Z, 1e-12)
	assert.Less(t, output.Get(1, 0).X, 1.0, "tonemap must stay below 1")

	// The input is untouched
	assert.Equal(t, core.Gray(100.0), input.Get(1, 0))
}

func TestBloom_ThresholdSelectsBrightPixels(t *testing.T) {
	input := loaders.NewImage(32, 32)
	input.Set(16, 16, core.Gray(50)) // single bright pixel

	bloom := NewBloomMinimal()
	output := bloom.Apply(input)

	// The bright pixel bleeds onto dark neighbors
	neighbor := output.Get(18, 16)
	assert.Greater(t, neighbor.X, 0.0, "bloom must spread energy to neighbors")

	// Pixels far outside the blur radius stay black
	far := output.Get(0, 0)
	assert.Equal(t, 0.0, far.X)
}

func TestBloom_DarkImageUnchanged(t *testing.T) {
	input := loaders.NewImage(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			input.Set(x, y, core.Gray(0.5)) // below the threshold
		}
	}

	output := NewBloomMinimal().Apply(input)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			require.Equal(t, input.Get(x, y), output.Get(x, y))
		}
	}
}

func TestGaussianWeights_Normalized(t *testing.T) {
	weights := gaussianWeights(7, 4.0)
	require.Len(t, weights, 15)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// Symmetric and peaked at the center
	assert.InDelta(t, weights[0], weights[14], 1e-12)
	assert.Greater(t, weights[7], weights[0])
}

func TestRecordingLogger(t *testing.T) {
	logger := NewRecordingLogger(nil)
	logger.Printf("rendering %d tiles\n", 5)
	logger.Printf("done\n")

	assert.Equal(t, "rendering 5 tiles\ndone\n", logger.History())
}
