package renderer

import (
	"context"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
)

// Config controls the sampling loop and scheduling
type Config struct {
	SamplesPerPixel int
	TileSize        int   // 64 recommended
	NumWorkers      int   // 0 = use CPU count
	Seed            int64 // base seed; identical seeds reproduce identical images
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		SamplesPerPixel: 16,
		TileSize:        64,
		NumWorkers:      0,
		Seed:            42,
	}
}

// RenderStats summarizes a completed render
type RenderStats struct {
	TotalPixels   int
	TotalSamples  int
	TilesRendered int
	TilesTotal    int
	Elapsed       time.Duration
}

// Renderer drives an integrator over every pixel of the camera image,
// tile-parallel. The scene and integrator are shared read-only; each
// worker owns its sampler and its tile of the output.
type Renderer struct {
	scene      *core.Scene
	integrator core.Integrator
	config     Config
	logger     core.Logger
}

// NewRenderer creates a renderer for a scene and integrator
func NewRenderer(scene *core.Scene, integratorInst core.Integrator, config Config, logger core.Logger) *Renderer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &Renderer{
		scene:      scene,
		integrator: integratorInst,
		config:     config,
		logger:     logger,
	}
}

// Render estimates every pixel and returns the HDR image. On cancellation
// the partially rendered image is returned together with the context
// error.
func (r *Renderer) Render(ctx context.Context) (*loaders.Image, RenderStats, error) {
	return r.RenderWithCallback(ctx, nil)
}

// RenderWithCallback renders like Render and additionally invokes onTile
// after each completed tile, from the collector goroutine. The image may
// be read inside the callback; completed tiles are final, in-flight tiles
// are not.
func (r *Renderer) RenderWithCallback(ctx context.Context, onTile func(TileResult, *loaders.Image)) (*loaders.Image, RenderStats, error) {
	width, height := r.scene.Camera.Resolution()
	img := loaders.NewImage(width, height)

	tiles := NewTileGrid(width, height, r.config.TileSize)
	pool := NewWorkerPool(r.config.NumWorkers, len(tiles))

	startTime := time.Now()
	r.logger.Printf("rendering %dx%d, %d spp, %d tiles, %d workers\n",
		width, height, r.config.SamplesPerPixel, len(tiles), pool.NumWorkers())

	pool.Start(ctx, func(task TileTask) TileResult {
		return r.renderTile(task, img)
	})

	go func() {
		for _, tile := range tiles {
			// Decorrelate tile seeds while keeping them reproducible
			seed := r.config.Seed ^ (int64(tile.Index+1) * 0x9E3779B9)
			pool.Submit(TileTask{Tile: tile, Seed: seed})
		}
		pool.Finish()
	}()

	stats := RenderStats{
		TotalPixels: width * height,
		TilesTotal:  len(tiles),
	}
	for result := range pool.Results() {
		stats.TilesRendered++
		stats.TotalSamples += result.Samples
		if onTile != nil {
			onTile(result, img)
		}
	}
	stats.Elapsed = time.Since(startTime)

	if err := ctx.Err(); err != nil {
		r.logger.Printf("render cancelled after %d/%d tiles\n", stats.TilesRendered, stats.TilesTotal)
		return img, stats, err
	}

	r.logger.Printf("render finished in %v (%d samples)\n", stats.Elapsed, stats.TotalSamples)
	return img, stats, nil
}

// renderTile estimates every pixel of one tile. The tile owns its slice of
// the image, so no synchronization is needed.
func (r *Renderer) renderTile(task TileTask, img *loaders.Image) TileResult {
	width, height := r.scene.Camera.Resolution()
	sampler := core.NewSeededSampler(task.Seed)
	samples := 0

	for y := task.Tile.Bounds.Min.Y; y < task.Tile.Bounds.Max.Y; y++ {
		for x := task.Tile.Bounds.Min.X; x < task.Tile.Bounds.Max.X; x++ {
			accum := core.Color{}
			for s := 0; s < r.config.SamplesPerPixel; s++ {
				jitter := sampler.Get2D()
				normalized := core.NewVec2(
					2*(float64(x)+jitter.X)/float64(width)-1,
					1-2*(float64(y)+jitter.Y)/float64(height),
				)

				cameraSample := r.scene.Camera.Sample(normalized, sampler)
				radiance := r.integrator.Li(cameraSample.Ray, sampler)
				accum = accum.Add(radiance.MultiplyVec(cameraSample.Weight))
				samples++
			}
			img.Set(x, y, accum.Multiply(1/float64(r.config.SamplesPerPixel)))
		}
	}

	return TileResult{Tile: task.Tile, Samples: samples}
}
