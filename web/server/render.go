package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// RenderRequest selects what one websocket session renders
type RenderRequest struct {
	Scene   string
	Width   int
	Height  int
	Samples int
	Depth   int
}

// ProgressUpdate is one message to the client
type ProgressUpdate struct {
	TilesDone  int    `json:"tilesDone"`
	TilesTotal int    `json:"tilesTotal"`
	ElapsedMs  int64  `json:"elapsedMs"`
	ImageData  string `json:"imageData,omitempty"` // base64 PNG snapshot
	IsComplete bool   `json:"isComplete"`
}

// previewInterval limits how often full snapshots are encoded
const previewInterval = 250 * time.Millisecond

// runRenderSession renders the requested scene and streams progress over
// the websocket until the render finishes or the client goes away
func runRenderSession(ctx context.Context, conn *websocket.Conn, request RenderRequest) error {
	var sceneGraph *core.Scene
	switch request.Scene {
	case "sphere":
		sceneGraph = scene.NewSphereScene(request.Width, request.Height)
	default:
		sceneGraph = scene.NewCornellScene(request.Width, request.Height)
	}

	config := renderer.DefaultConfig()
	config.SamplesPerPixel = request.Samples

	integratorInst := integrator.NewPathTracer(sceneGraph, request.Depth, true)
	r := renderer.NewRenderer(sceneGraph, integratorInst, config, nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancel the render when the client disconnects
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	startTime := time.Now()
	tilesDone := 0
	lastPreview := time.Time{}
	var sendMu sync.Mutex

	send := func(update ProgressUpdate) error {
		sendMu.Lock()
		defer sendMu.Unlock()
		return conn.WriteJSON(update)
	}

	tilesTotal := len(renderer.NewTileGrid(request.Width, request.Height, config.TileSize))
	img, stats, renderErr := r.RenderWithCallback(ctx, func(result renderer.TileResult, current *loaders.Image) {
		tilesDone++
		update := ProgressUpdate{
			TilesDone:  tilesDone,
			TilesTotal: tilesTotal,
			ElapsedMs:  time.Since(startTime).Milliseconds(),
		}
		// Encoding a full snapshot per tile would swamp small renders
		if time.Since(lastPreview) >= previewInterval {
			lastPreview = time.Now()
			update.ImageData = encodePreview(current)
		}
		if err := send(update); err != nil {
			cancel()
		}
	})

	if renderErr != nil {
		return fmt.Errorf("render cancelled: %w", renderErr)
	}

	final := ProgressUpdate{
		TilesDone:  stats.TilesRendered,
		TilesTotal: stats.TilesTotal,
		ElapsedMs:  stats.Elapsed.Milliseconds(),
		ImageData:  encodePreview(img),
		IsComplete: true,
	}
	return send(final)
}

// encodePreview tonemaps the HDR buffer to an sRGB PNG and base64-encodes
// it for embedding in a JSON message
func encodePreview(img *loaders.Image) string {
	preview := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.Get(x, y)
			// Reinhard + gamma for display
			c = core.NewColor(c.X/(c.X+1), c.Y/(c.Y+1), c.Z/(c.Z+1)).GammaCorrect(2.2)
			offset := preview.PixOffset(x, y)
			preview.Pix[offset] = uint8(c.X * 255)
			preview.Pix[offset+1] = uint8(c.Y * 255)
			preview.Pix[offset+2] = uint8(c.Z * 255)
			preview.Pix[offset+3] = 255
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
