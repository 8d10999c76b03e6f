package utils

import (
	"image"
	"math"
)

// TileSizeInPx is the edge length of pyramid tiles
const TileSizeInPx = 256

// CalcMaxLod calculates the LOD at which tiles of the image reach full
// resolution, based on the larger side of the image.
func CalcMaxLod(img image.Image) uint8 {
	w := float64(img.Bounds().Dx())
	if h := float64(img.Bounds().Dy()); h > w {
		w = h
	}

	tilesPerRowCol := math.Ceil(w / TileSizeInPx)
	if tilesPerRowCol <= 1 {
		return 0
	}

	return uint8(math.Ceil(math.Log2(tilesPerRowCol)))
}
