package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/lights"
)

const testScene = `
[camera]
type = "perspective"
fov = 40.0
fovAxis = "y"
resolution = [64, 48]

[camera.transform.lookat]
origin = [0.0, 1.0, 5.0]
target = [0.0, 1.0, 0.0]
up = [0.0, 1.0, 0.0]

[[instances]]
[instances.shape]
type = "sphere"
[instances.bsdf]
type = "diffuse"
albedo = [0.8, 0.2, 0.2]

[[instances]]
[instances.shape]
type = "sphere"
[instances.transform]
scale = 0.5
translate = [0.0, 2.0, 0.0]
[instances.bsdf]
type = "dielectric"
ior = 1.5
[instances.emission]
type = "lambertian"
emission = [5.0, 5.0, 5.0]

[[lights]]
type = "point"
position = [0.0, 4.0, 0.0]
power = [100.0, 100.0, 100.0]

[[lights]]
type = "envmap"
[lights.texture]
type = "constant"
value = [0.5, 0.5, 0.5]

[integrator]
type = "pathtracer"
depth = 6
nee = true

[sampler]
count = 32

[[postprocess]]
type = "tonemap"

[[postprocess]]
type = "bloom_minimal"
threshold = 2.0
`

func loadTestScene(t *testing.T, content string) (*Description, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return NewDefaultBuilder().LoadFile(path)
}

func TestLoadFile_FullScene(t *testing.T) {
	description, err := loadTestScene(t, testScene)
	require.NoError(t, err)

	width, height := description.Scene.Camera.Resolution()
	assert.Equal(t, 64, width)
	assert.Equal(t, 48, height)

	require.Len(t, description.Scene.Instances, 2)
	assert.NotNil(t, description.Scene.Instances[0].Bsdf)
	assert.NotNil(t, description.Scene.Instances[1].Emission)
	assert.NotNil(t, description.Scene.Instances[1].Transform)
	assert.NotNil(t, description.Scene.Background)

	// One point light plus one area light derived from the emissive sphere
	require.Len(t, description.Scene.Lights, 2)
	_, isArea := description.Scene.Lights[1].(*lights.AreaLight)
	assert.True(t, isArea, "emissive instances must become area lights")

	assert.IsType(t, &integrator.PathTracer{}, description.Integrator)
	assert.Equal(t, 32, description.SamplesPerPixel)
	require.Len(t, description.Postprocesses, 2)
}

func TestLoadFile_UnknownTag(t *testing.T) {
	broken := `
[camera]
type = "perspective"

[[instances]]
[instances.shape]
type = "torus"
`
	_, err := loadTestScene(t, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "torus")
}

func TestLoadFile_MissingCamera(t *testing.T) {
	_, err := loadTestScene(t, `[[instances]]
[instances.shape]
type = "sphere"
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera")
}

func TestLoadFile_MissingRequiredProperty(t *testing.T) {
	broken := `
[camera]
type = "perspective"

[[lights]]
type = "point"
power = [1.0, 1.0, 1.0]
`
	_, err := loadTestScene(t, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position")
}

func TestLoadFile_DefaultsApply(t *testing.T) {
	minimal := `
[camera]
type = "perspective"
`
	description, err := loadTestScene(t, minimal)
	require.NoError(t, err)

	// Default integrator is a depth-2 path tracer with NEE
	assert.IsType(t, &integrator.PathTracer{}, description.Integrator)
	assert.Equal(t, 16, description.SamplesPerPixel)
	assert.Empty(t, description.Postprocesses)
}

func TestBuilder_TexturePropertyForms(t *testing.T) {
	b := NewDefaultBuilder()
	uv := core.NewVec2(0.5, 0.5)

	// Bare number
	tex, err := b.TextureProperty(Properties{"albedo": 0.25}, "albedo", core.Gray(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, tex.Scalar(uv), 1e-12)

	// Color triple
	tex, err = b.TextureProperty(Properties{"albedo": []any{0.1, 0.2, 0.3}}, "albedo", core.Gray(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, tex.Scalar(uv), 1e-12)

	// Nested checkerboard object
	tex, err = b.TextureProperty(Properties{
		"albedo": map[string]any{"type": "checkerboard"},
	}, "albedo", core.Gray(1))
	require.NoError(t, err)
	assert.NotNil(t, tex)

	// Absent property falls back to the default
	tex, err = b.TextureProperty(Properties{}, "albedo", core.Gray(0.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tex.Scalar(uv), 1e-12)
}
