package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

func main() {
	scenePath := flag.String("scene", "", "Path to a TOML scene file")
	preset := flag.String("preset", "cornell", "Built-in scene when no file is given: 'cornell' or 'sphere'")
	output := flag.String("output", "render.exr", "Output EXR path")
	spp := flag.Int("spp", 0, "Override samples per pixel (0 = scene default)")
	depth := flag.Int("depth", 8, "Path tracer depth for built-in scenes")
	workers := flag.Int("workers", 0, "Number of render workers (0 = CPU count)")
	seed := flag.Int64("seed", 42, "Base random seed")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Path Tracer")
		fmt.Println("Usage: pathtracer [options]")
		fmt.Println()
		flag.PrintDefaults()
		return
	}

	logger := renderer.NewRecordingLogger(renderer.NewDefaultLogger())

	var description *scene.Description
	if *scenePath != "" {
		builder := scene.NewDefaultBuilder()
		var err error
		description, err = builder.LoadFile(*scenePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading scene: %v\n", err)
			os.Exit(1)
		}
	} else {
		description = builtinScene(*preset, *depth, logger)
	}

	config := renderer.DefaultConfig()
	config.SamplesPerPixel = description.SamplesPerPixel
	if *spp > 0 {
		config.SamplesPerPixel = *spp
	}
	config.NumWorkers = *workers
	config.Seed = *seed

	// Ctrl-C cancels between tiles and still writes the partial image
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := renderer.NewRenderer(description.Scene, description.Integrator, config, logger)
	img, stats, err := r.Render(ctx)
	if err != nil {
		logger.Printf("render interrupted: %v\n", err)
	}
	logger.Printf("rendered %d/%d tiles in %v\n", stats.TilesRendered, stats.TilesTotal, stats.Elapsed)

	for _, post := range description.Postprocesses {
		img = post.Apply(img)
	}

	if err := loaders.SaveEXR(*output, img, logger.History()); err != nil {
		fmt.Fprintf(os.Stderr, "error saving image: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("saved %s\n", *output)
}

// builtinScene assembles one of the demo scenes with a path tracer
func builtinScene(preset string, depth int, logger core.Logger) *scene.Description {
	var sceneGraph *core.Scene
	switch preset {
	case "sphere":
		sceneGraph = scene.NewSphereScene(512, 512)
	case "cornell":
		sceneGraph = scene.NewCornellScene(512, 512)
	default:
		logger.Printf("unknown preset %q, using cornell\n", preset)
		sceneGraph = scene.NewCornellScene(512, 512)
	}

	return &scene.Description{
		Scene:           sceneGraph,
		Integrator:      integrator.NewPathTracer(sceneGraph, depth, true),
		SamplesPerPixel: 64,
		Postprocesses:   nil,
	}
}
