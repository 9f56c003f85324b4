package scene

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/df07/go-pathtracer/pkg/camera"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/lights"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/texture"
)

// Constructor signatures handed to the builder at registration time
type (
	ShapeConstructor       func(b *Builder, props Properties) (core.Shape, error)
	BsdfConstructor        func(b *Builder, props Properties) (core.Bsdf, error)
	TextureConstructor     func(b *Builder, props Properties) (core.Texture, error)
	EmissionConstructor    func(b *Builder, props Properties) (core.Emission, error)
	LightConstructor       func(b *Builder, props Properties) (core.Light, error)
	CameraConstructor      func(b *Builder, props Properties) (core.Camera, error)
	IntegratorConstructor  func(scene *core.Scene, props Properties) (core.Integrator, error)
	PostprocessConstructor func(props Properties) (renderer.Postprocess, error)
)

// Builder maps scene-file type tags onto component constructors. It is
// populated explicitly at program start instead of relying on global
// registration side effects.
type Builder struct {
	baseDir string

	shapes        map[string]ShapeConstructor
	bsdfs         map[string]BsdfConstructor
	textures      map[string]TextureConstructor
	emissions     map[string]EmissionConstructor
	lights        map[string]LightConstructor
	cameras       map[string]CameraConstructor
	integrators   map[string]IntegratorConstructor
	postprocesses map[string]PostprocessConstructor
}

// NewBuilder creates an empty builder; components are added explicitly
func NewBuilder() *Builder {
	return &Builder{
		shapes:        make(map[string]ShapeConstructor),
		bsdfs:         make(map[string]BsdfConstructor),
		textures:      make(map[string]TextureConstructor),
		emissions:     make(map[string]EmissionConstructor),
		lights:        make(map[string]LightConstructor),
		cameras:       make(map[string]CameraConstructor),
		integrators:   make(map[string]IntegratorConstructor),
		postprocesses: make(map[string]PostprocessConstructor),
	}
}

// NewDefaultBuilder creates a builder with every built-in component
// registered
func NewDefaultBuilder() *Builder {
	b := NewBuilder()

	b.RegisterShape("sphere", buildSphere)
	b.RegisterShape("mesh", buildMesh)
	b.RegisterShape("volume", buildVolume)

	b.RegisterBsdf("diffuse", buildDiffuse)
	b.RegisterBsdf("roughconductor", buildRoughConductor)
	b.RegisterBsdf("dielectric", buildDielectric)
	b.RegisterBsdf("principled", buildPrincipled)
	b.RegisterBsdf("hg", buildHenyeyGreenstein)

	b.RegisterTexture("constant", buildConstantTexture)
	b.RegisterTexture("checkerboard", buildCheckerboardTexture)
	b.RegisterTexture("image", buildImageTexture)

	b.RegisterEmission("lambertian", buildLambertianEmission)

	b.RegisterLight("point", buildPointLight)
	b.RegisterLight("directional", buildDirectionalLight)

	b.RegisterCamera("perspective", buildPerspectiveCamera)

	b.RegisterIntegrator("direct", buildDirectIntegrator)
	b.RegisterIntegrator("pathtracer", buildPathTracer)
	b.RegisterIntegrator("aov", buildAOV)

	b.RegisterPostprocess("tonemap", buildTonemap)
	b.RegisterPostprocess("bloom_minimal", buildBloom)

	return b
}

// RegisterShape adds a shape constructor under a type tag
func (b *Builder) RegisterShape(tag string, ctor ShapeConstructor) { b.shapes[tag] = ctor }

// RegisterBsdf adds a BSDF constructor under a type tag
func (b *Builder) RegisterBsdf(tag string, ctor BsdfConstructor) { b.bsdfs[tag] = ctor }

// RegisterTexture adds a texture constructor under a type tag
func (b *Builder) RegisterTexture(tag string, ctor TextureConstructor) { b.textures[tag] = ctor }

// RegisterEmission adds an emission constructor under a type tag
func (b *Builder) RegisterEmission(tag string, ctor EmissionConstructor) { b.emissions[tag] = ctor }

// RegisterLight adds a light constructor under a type tag
func (b *Builder) RegisterLight(tag string, ctor LightConstructor) { b.lights[tag] = ctor }

// RegisterCamera adds a camera constructor under a type tag
func (b *Builder) RegisterCamera(tag string, ctor CameraConstructor) { b.cameras[tag] = ctor }

// RegisterIntegrator adds an integrator constructor under a type tag
func (b *Builder) RegisterIntegrator(tag string, ctor IntegratorConstructor) {
	b.integrators[tag] = ctor
}

// RegisterPostprocess adds a postprocess constructor under a type tag
func (b *Builder) RegisterPostprocess(tag string, ctor PostprocessConstructor) {
	b.postprocesses[tag] = ctor
}

// BuildShape constructs a shape node
func (b *Builder) BuildShape(props Properties) (core.Shape, error) {
	tag, err := props.Type()
	if err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}
	ctor, ok := b.shapes[tag]
	if !ok {
		return nil, fmt.Errorf("unknown shape type %q", tag)
	}
	shape, err := ctor(b, props)
	if err != nil {
		return nil, fmt.Errorf("shape %q: %w", tag, err)
	}
	return shape, nil
}

// BuildBsdf constructs a BSDF node
func (b *Builder) BuildBsdf(props Properties) (core.Bsdf, error) {
	tag, err := props.Type()
	if err != nil {
		return nil, fmt.Errorf("bsdf: %w", err)
	}
	ctor, ok := b.bsdfs[tag]
	if !ok {
		return nil, fmt.Errorf("unknown bsdf type %q", tag)
	}
	bsdf, err := ctor(b, props)
	if err != nil {
		return nil, fmt.Errorf("bsdf %q: %w", tag, err)
	}
	return bsdf, nil
}

// BuildTexture constructs a texture node
func (b *Builder) BuildTexture(props Properties) (core.Texture, error) {
	tag, err := props.Type()
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	ctor, ok := b.textures[tag]
	if !ok {
		return nil, fmt.Errorf("unknown texture type %q", tag)
	}
	tex, err := ctor(b, props)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", tag, err)
	}
	return tex, nil
}

// TextureProperty resolves a property that may be a bare number, a color
// triple, or a nested texture object. def is used when absent.
func (b *Builder) TextureProperty(props Properties, name string, def core.Color) (core.Texture, error) {
	value, ok := props[name]
	if !ok {
		return texture.NewConstant(def), nil
	}
	if f, isNum := toFloat(value); isNum {
		return texture.NewConstantScalar(f), nil
	}
	if _, isList := value.([]any); isList {
		color, err := toVec3(name, value)
		if err != nil {
			return nil, err
		}
		return texture.NewConstant(color), nil
	}
	child, err := props.Child(name)
	if err != nil {
		return nil, err
	}
	return b.BuildTexture(child)
}

// Transform builds an optional transform property. Supported keys:
// lookat {origin,target,up}, or any of scale, rotate {axis,angle},
// translate composed in that order.
func (b *Builder) Transform(props Properties, name string) (*core.Transform, error) {
	child, err := props.Child(name)
	if err != nil || child == nil {
		return nil, err
	}
	return buildTransform(child)
}

func buildTransform(props Properties) (*core.Transform, error) {
	if lookat, err := props.Child("lookat"); err != nil {
		return nil, err
	} else if lookat != nil {
		origin, err := lookat.RequiredVec3("origin")
		if err != nil {
			return nil, err
		}
		target, err := lookat.RequiredVec3("target")
		if err != nil {
			return nil, err
		}
		up, err := lookat.Vec3("up", core.NewVec3(0, 1, 0))
		if err != nil {
			return nil, err
		}
		return core.LookAt(origin, target, up), nil
	}

	result := core.IdentityTransform()

	if props.Has("scale") {
		factors, err := props.Vec3("scale", core.NewVec3(1, 1, 1))
		if err != nil {
			return nil, err
		}
		result = core.Scale(factors).Compose(result)
	}

	if rotate, err := props.Child("rotate"); err != nil {
		return nil, err
	} else if rotate != nil {
		axis, err := rotate.RequiredString("axis")
		if err != nil {
			return nil, err
		}
		angle, err := rotate.Float("angle", 0)
		if err != nil {
			return nil, err
		}
		radians := angle * math.Pi / 180
		var rotation *core.Transform
		switch axis {
		case "x":
			rotation = core.RotateX(radians)
		case "y":
			rotation = core.RotateY(radians)
		case "z":
			rotation = core.RotateZ(radians)
		default:
			return nil, fmt.Errorf("rotate: unknown axis %q", axis)
		}
		result = rotation.Compose(result)
	}

	if props.Has("translate") {
		offset, err := props.Vec3("translate", core.Vec3{})
		if err != nil {
			return nil, err
		}
		result = core.Translate(offset).Compose(result)
	}

	return result, nil
}

// resolvePath makes scene-relative paths absolute
func (b *Builder) resolvePath(path string) string {
	if b.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.baseDir, path)
}

// --- shapes ---

func buildSphere(b *Builder, props Properties) (core.Shape, error) {
	return geometry.NewSphere(), nil
}

func buildMesh(b *Builder, props Properties) (core.Shape, error) {
	filename, err := props.RequiredString("filename")
	if err != nil {
		return nil, err
	}
	smooth, err := props.Bool("smooth", true)
	if err != nil {
		return nil, err
	}
	data, err := loaders.LoadPLY(b.resolvePath(filename))
	if err != nil {
		return nil, err
	}
	return geometry.NewTriangleMesh(data, smooth), nil
}

func buildVolume(b *Builder, props Properties) (core.Shape, error) {
	density, err := props.Float("density", 1)
	if err != nil {
		return nil, err
	}
	var boundary core.Shape
	if child, err := props.Child("boundary"); err != nil {
		return nil, err
	} else if child != nil {
		boundary, err = b.BuildShape(child)
		if err != nil {
			return nil, err
		}
	}
	return geometry.NewVolume(density, boundary), nil
}

// --- bsdfs ---

func buildDiffuse(b *Builder, props Properties) (core.Bsdf, error) {
	albedo, err := b.TextureProperty(props, "albedo", core.Gray(0.5))
	if err != nil {
		return nil, err
	}
	return material.NewDiffuse(albedo), nil
}

func buildRoughConductor(b *Builder, props Properties) (core.Bsdf, error) {
	reflectance, err := b.TextureProperty(props, "reflectance", core.Gray(1))
	if err != nil {
		return nil, err
	}
	roughness, err := b.TextureProperty(props, "roughness", core.Gray(0.1))
	if err != nil {
		return nil, err
	}
	return material.NewRoughConductor(reflectance, roughness), nil
}

func buildDielectric(b *Builder, props Properties) (core.Bsdf, error) {
	ior, err := b.TextureProperty(props, "ior", core.Gray(1.5))
	if err != nil {
		return nil, err
	}
	reflectance, err := b.TextureProperty(props, "reflectance", core.Gray(1))
	if err != nil {
		return nil, err
	}
	transmittance, err := b.TextureProperty(props, "transmittance", core.Gray(1))
	if err != nil {
		return nil, err
	}
	return material.NewDielectric(ior, reflectance, transmittance), nil
}

func buildPrincipled(b *Builder, props Properties) (core.Bsdf, error) {
	baseColor, err := b.TextureProperty(props, "baseColor", core.Gray(0.5))
	if err != nil {
		return nil, err
	}
	roughness, err := b.TextureProperty(props, "roughness", core.Gray(0.5))
	if err != nil {
		return nil, err
	}
	metallic, err := b.TextureProperty(props, "metallic", core.Gray(0))
	if err != nil {
		return nil, err
	}
	specular, err := b.TextureProperty(props, "specular", core.Gray(0.5))
	if err != nil {
		return nil, err
	}
	return material.NewPrincipled(baseColor, roughness, metallic, specular), nil
}

func buildHenyeyGreenstein(b *Builder, props Properties) (core.Bsdf, error) {
	g, err := props.Float("g", 0)
	if err != nil {
		return nil, err
	}
	albedo, err := props.Vec3("albedo", core.Gray(1))
	if err != nil {
		return nil, err
	}
	return material.NewHenyeyGreenstein(g, albedo), nil
}

// --- textures ---

func buildConstantTexture(b *Builder, props Properties) (core.Texture, error) {
	value, err := props.Vec3("value", core.Gray(1))
	if err != nil {
		return nil, err
	}
	return texture.NewConstant(value), nil
}

func buildCheckerboardTexture(b *Builder, props Properties) (core.Texture, error) {
	color0, err := props.Vec3("color0", core.Gray(0))
	if err != nil {
		return nil, err
	}
	color1, err := props.Vec3("color1", core.Gray(1))
	if err != nil {
		return nil, err
	}
	scale, err := props.Vec2("scale", core.NewVec2(1, 1))
	if err != nil {
		return nil, err
	}
	return texture.NewCheckerboard(color0, color1, scale), nil
}

func buildImageTexture(b *Builder, props Properties) (core.Texture, error) {
	filename, err := props.RequiredString("filename")
	if err != nil {
		return nil, err
	}
	exposure, err := props.Float("exposure", 1)
	if err != nil {
		return nil, err
	}
	linear, err := props.Bool("linear", false)
	if err != nil {
		return nil, err
	}
	borderName, err := props.String("border", "repeat")
	if err != nil {
		return nil, err
	}
	filterName, err := props.String("filter", "bilinear")
	if err != nil {
		return nil, err
	}

	var border texture.BorderMode
	switch borderName {
	case "repeat":
		border = texture.BorderRepeat
	case "clamp":
		border = texture.BorderClamp
	default:
		return nil, fmt.Errorf("unknown border mode %q", borderName)
	}

	var filter texture.FilterMode
	switch filterName {
	case "bilinear":
		filter = texture.FilterBilinear
	case "nearest":
		filter = texture.FilterNearest
	default:
		return nil, fmt.Errorf("unknown filter mode %q", filterName)
	}

	img, err := loaders.LoadImage(b.resolvePath(filename), linear)
	if err != nil {
		return nil, err
	}
	return texture.NewImageTexture(img, exposure, border, filter), nil
}

// --- emissions ---

func buildLambertianEmission(b *Builder, props Properties) (core.Emission, error) {
	emission, err := b.TextureProperty(props, "emission", core.Gray(1))
	if err != nil {
		return nil, err
	}
	return material.NewLambertianEmission(emission), nil
}

// --- lights ---

func buildPointLight(b *Builder, props Properties) (core.Light, error) {
	position, err := props.RequiredVec3("position")
	if err != nil {
		return nil, err
	}
	power, err := props.RequiredVec3("power")
	if err != nil {
		return nil, err
	}
	return lights.NewPointLight(position, power), nil
}

func buildDirectionalLight(b *Builder, props Properties) (core.Light, error) {
	direction, err := props.RequiredVec3("direction")
	if err != nil {
		return nil, err
	}
	intensity, err := props.RequiredVec3("intensity")
	if err != nil {
		return nil, err
	}
	return lights.NewDirectionalLight(direction, intensity), nil
}

func (b *Builder) buildEnvmap(props Properties) (core.BackgroundLight, error) {
	var tex core.Texture
	if child, err := props.Child("texture"); err != nil {
		return nil, err
	} else if child != nil {
		tex, err = b.BuildTexture(child)
		if err != nil {
			return nil, err
		}
	} else {
		tex = texture.NewConstant(core.Gray(1))
	}

	transform, err := b.Transform(props, "transform")
	if err != nil {
		return nil, err
	}
	return lights.NewEnvironmentMap(tex, transform), nil
}

// --- cameras ---

func buildPerspectiveCamera(b *Builder, props Properties) (core.Camera, error) {
	resolution, err := props.Vec2("resolution", core.NewVec2(512, 512))
	if err != nil {
		return nil, err
	}
	fov, err := props.Float("fov", 45)
	if err != nil {
		return nil, err
	}
	fovAxisName, err := props.String("fovAxis", "y")
	if err != nil {
		return nil, err
	}
	var fovAxis camera.FovAxis
	switch fovAxisName {
	case "x":
		fovAxis = camera.FovAxisX
	case "y":
		fovAxis = camera.FovAxisY
	default:
		return nil, fmt.Errorf("unknown fovAxis %q", fovAxisName)
	}

	transform, err := b.Transform(props, "transform")
	if err != nil {
		return nil, err
	}

	return camera.NewPerspective(int(resolution.X), int(resolution.Y), fov, fovAxis, transform), nil
}

// --- integrators ---

func buildDirectIntegrator(scene *core.Scene, props Properties) (core.Integrator, error) {
	return integrator.NewDirect(scene), nil
}

func buildPathTracer(scene *core.Scene, props Properties) (core.Integrator, error) {
	depth, err := props.Int("depth", 2)
	if err != nil {
		return nil, err
	}
	nee, err := props.Bool("nee", true)
	if err != nil {
		return nil, err
	}
	return integrator.NewPathTracer(scene, depth, nee), nil
}

func buildAOV(scene *core.Scene, props Properties) (core.Integrator, error) {
	variable, err := props.RequiredString("variable")
	if err != nil {
		return nil, err
	}
	scale, err := props.Int("scale", 1)
	if err != nil {
		return nil, err
	}
	switch integrator.AOVVariable(variable) {
	case integrator.AOVNormals, integrator.AOVBvh:
		return integrator.NewAOV(scene, integrator.AOVVariable(variable), scale), nil
	default:
		return nil, fmt.Errorf("unknown aov variable %q", variable)
	}
}

// --- postprocesses ---

func buildTonemap(props Properties) (renderer.Postprocess, error) {
	return renderer.NewTonemap(), nil
}

func buildBloom(props Properties) (renderer.Postprocess, error) {
	bloom := renderer.NewBloomMinimal()
	var err error
	if bloom.Threshold, err = props.Float("threshold", bloom.Threshold); err != nil {
		return nil, err
	}
	if bloom.Intensity, err = props.Float("intensity", bloom.Intensity); err != nil {
		return nil, err
	}
	if bloom.Radius, err = props.Int("radius", bloom.Radius); err != nil {
		return nil, err
	}
	if bloom.Sigma, err = props.Float("sigma", bloom.Sigma); err != nil {
		return nil, err
	}
	return bloom, nil
}
