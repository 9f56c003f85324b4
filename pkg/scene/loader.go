package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/lights"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// Description is a fully constructed render job: the scene graph, the
// integrator over it, the sampling budget, and the output pipeline
type Description struct {
	Scene           *core.Scene
	Integrator      core.Integrator
	SamplesPerPixel int
	Postprocesses   []renderer.Postprocess
}

// LoadFile parses a TOML scene description and builds every component.
// Relative resource paths resolve against the scene file's directory.
func (b *Builder) LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var root map[string]any
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse scene file %s: %w", path, err)
	}

	b.baseDir = filepath.Dir(path)
	return b.Build(Properties(root))
}

// Build assembles a description from a parsed property tree
func (b *Builder) Build(root Properties) (*Description, error) {
	cameraProps, err := root.Child("camera")
	if err != nil {
		return nil, err
	}
	if cameraProps == nil {
		return nil, fmt.Errorf("scene has no camera")
	}
	cameraTag, err := cameraProps.Type()
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	cameraCtor, ok := b.cameras[cameraTag]
	if !ok {
		return nil, fmt.Errorf("unknown camera type %q", cameraTag)
	}
	cam, err := cameraCtor(b, cameraProps)
	if err != nil {
		return nil, fmt.Errorf("camera %q: %w", cameraTag, err)
	}

	instanceProps, err := root.Children("instances")
	if err != nil {
		return nil, err
	}
	instances := make([]*core.Instance, 0, len(instanceProps))
	for i, props := range instanceProps {
		instance, err := b.buildInstance(props)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		instances = append(instances, instance)
	}

	lightProps, err := root.Children("lights")
	if err != nil {
		return nil, err
	}
	var finiteLights []core.Light
	var background core.BackgroundLight
	for i, props := range lightProps {
		tag, err := props.Type()
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		if tag == "envmap" {
			if background != nil {
				return nil, fmt.Errorf("light %d: scene already has a background light", i)
			}
			background, err = b.buildEnvmap(props)
			if err != nil {
				return nil, fmt.Errorf("light %d: %w", i, err)
			}
			continue
		}
		ctor, ok := b.lights[tag]
		if !ok {
			return nil, fmt.Errorf("light %d: unknown light type %q", i, tag)
		}
		light, err := ctor(b, props)
		if err != nil {
			return nil, fmt.Errorf("light %d (%s): %w", i, tag, err)
		}
		finiteLights = append(finiteLights, light)
	}

	// Emissive instances with area-samplable shapes become area lights
	for _, instance := range instances {
		if instance.Emission == nil {
			continue
		}
		if _, ok := instance.Shape.(core.AreaSampler); ok {
			finiteLights = append(finiteLights, lights.NewAreaLight(instance))
		}
	}

	sceneGraph := core.NewScene(cam, instances, finiteLights, background)

	integratorProps, err := root.Child("integrator")
	if err != nil {
		return nil, err
	}
	if integratorProps == nil {
		integratorProps = Properties{"type": "pathtracer"}
	}
	integratorTag, err := integratorProps.Type()
	if err != nil {
		return nil, fmt.Errorf("integrator: %w", err)
	}
	integratorCtor, ok := b.integrators[integratorTag]
	if !ok {
		return nil, fmt.Errorf("unknown integrator type %q", integratorTag)
	}
	integratorInst, err := integratorCtor(sceneGraph, integratorProps)
	if err != nil {
		return nil, fmt.Errorf("integrator %q: %w", integratorTag, err)
	}

	samples := 16
	if samplerProps, err := root.Child("sampler"); err != nil {
		return nil, err
	} else if samplerProps != nil {
		samples, err = samplerProps.Int("count", samples)
		if err != nil {
			return nil, err
		}
	}

	postProps, err := root.Children("postprocess")
	if err != nil {
		return nil, err
	}
	var postprocesses []renderer.Postprocess
	for i, props := range postProps {
		tag, err := props.Type()
		if err != nil {
			return nil, fmt.Errorf("postprocess %d: %w", i, err)
		}
		ctor, ok := b.postprocesses[tag]
		if !ok {
			return nil, fmt.Errorf("postprocess %d: unknown type %q", i, tag)
		}
		post, err := ctor(props)
		if err != nil {
			return nil, fmt.Errorf("postprocess %d (%s): %w", i, tag, err)
		}
		postprocesses = append(postprocesses, post)
	}

	return &Description{
		Scene:           sceneGraph,
		Integrator:      integratorInst,
		SamplesPerPixel: samples,
		Postprocesses:   postprocesses,
	}, nil
}

// buildInstance assembles one placed object from its shape, optional
// scattering, emission, alpha mask, and transform
func (b *Builder) buildInstance(props Properties) (*core.Instance, error) {
	shapeProps, err := props.Child("shape")
	if err != nil {
		return nil, err
	}
	if shapeProps == nil {
		return nil, fmt.Errorf("instance has no shape")
	}
	shape, err := b.BuildShape(shapeProps)
	if err != nil {
		return nil, err
	}

	instance := &core.Instance{Shape: shape}

	if bsdfProps, err := props.Child("bsdf"); err != nil {
		return nil, err
	} else if bsdfProps != nil {
		instance.Bsdf, err = b.BuildBsdf(bsdfProps)
		if err != nil {
			return nil, err
		}
	}

	if emissionProps, err := props.Child("emission"); err != nil {
		return nil, err
	} else if emissionProps != nil {
		tag, err := emissionProps.Type()
		if err != nil {
			return nil, fmt.Errorf("emission: %w", err)
		}
		ctor, ok := b.emissions[tag]
		if !ok {
			return nil, fmt.Errorf("unknown emission type %q", tag)
		}
		instance.Emission, err = ctor(b, emissionProps)
		if err != nil {
			return nil, fmt.Errorf("emission %q: %w", tag, err)
		}
	}

	if props.Has("alpha") {
		instance.Alpha, err = b.TextureProperty(props, "alpha", core.Gray(1))
		if err != nil {
			return nil, err
		}
	}

	instance.Transform, err = b.Transform(props, "transform")
	if err != nil {
		return nil, err
	}

	return instance, nil
}
