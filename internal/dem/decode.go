package dem

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"math"

	"github.com/gruppe-adler/landscape-utils/internal/terrainrgb"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// ErrFormatMismatch is returned for tiles with wrong dimensions or pixel format
var ErrFormatMismatch = errors.New("elevation tile format mismatch")

// Decode decodes raw image bytes into an elevation tile. The image must be
// exactly width x height pixels with 8 bit RGB(A) channels.
func Decode(key tilesource.TileKey, raw []byte, width, height int) (*ElevationTile, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}

	return DecodeImage(key, img, width, height)
}

// DecodeImage converts an already decoded image into an elevation tile
func DecodeImage(key tilesource.TileKey, img image.Image, width, height int) (*ElevationTile, error) {
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, fmt.Errorf("%w: image has %dx%d pixels, expected %dx%d", ErrFormatMismatch, bounds.Dx(), bounds.Dy(), width, height)
	}

	var pix []uint8
	var stride int
	switch im := img.(type) {
	case *image.NRGBA:
		pix, stride = im.Pix, im.Stride
	case *image.RGBA:
		pix, stride = im.Pix, im.Stride
	default:
		return nil, fmt.Errorf("%w: unsupported pixel format %T", ErrFormatMismatch, img)
	}

	tile := &ElevationTile{
		Key:     key,
		Width:   width,
		Height:  height,
		Samples: make([]terrainrgb.Sample, width*height),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
	}

	index := 0
	for y := 0; y < height; y++ {
		i := y * stride
		for x := 0; x < width; x++ {
			s := terrainrgb.Decode(pix[i+0], pix[i+1], pix[i+2])
			if s.Valid {
				tile.Min = math.Min(tile.Min, s.Height)
				tile.Max = math.Max(tile.Max, s.Height)
			}
			tile.Samples[index] = s
			index++
			i += 4
		}
	}

	return tile, nil
}
