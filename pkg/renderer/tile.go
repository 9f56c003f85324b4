package renderer

import (
	"image"
)

// Tile is a rectangular region of the output image owned exclusively by
// one worker while it renders
type Tile struct {
	Index  int
	Bounds image.Rectangle
}

// NewTileGrid partitions an image into tiles of at most tileSize pixels
// per side, in row-major order
func NewTileGrid(width, height, tileSize int) []Tile {
	var tiles []Tile
	index := 0
	for y := 0; y < height; y += tileSize {
		for x := 0; x < width; x += tileSize {
			tiles = append(tiles, Tile{
				Index:  index,
				Bounds: image.Rect(x, y, min(x+tileSize, width), min(y+tileSize, height)),
			})
			index++
		}
	}
	return tiles
}
