package utils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"runtime"

	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type subImager interface {
	image.Image
	SubImage(r image.Rectangle) image.Image
}

// BuildTileSet cuts img into 2^lod x 2^lod tiles of TileSizeInPx pixels and
// writes them to outputDirectory/<lod>/<col>/<row>.png
func BuildTileSet(ctx context.Context, lod uint8, img image.Image, outputDirectory string) error {
	src, ok := img.(subImager)
	if !ok {
		return fmt.Errorf("image type %T does not support sub images", img)
	}

	outputDirectory = filepath.Join(outputDirectory, fmt.Sprintf("%d", lod))
	tilesPerRowCol := 1 << lod

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tileWidth := width / tilesPerRowCol
	tileHeight := height / tilesPerRowCol

	// remaining pixels
	widthRemainder := width % tilesPerRowCol
	heightRemainder := height % tilesPerRowCol

	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	g, ctx := errgroup.WithContext(ctx)

	y := bounds.Min.Y
	for row := 0; row < tilesPerRowCol; row++ {
		h := tileHeight
		// if we have any remaining pixels we'll distribute them to the first rows / cols
		if row < heightRemainder {
			h++
		}

		x := bounds.Min.X
		for col := 0; col < tilesPerRowCol; col++ {
			w := tileWidth
			if col < widthRemainder {
				w++
			}

			rect := image.Rect(x, y, x+w, y+h)
			tilePath := filepath.Join(outputDirectory, fmt.Sprintf("%d", col), fmt.Sprintf("%d.png", row))

			if err := sem.Acquire(ctx, 1); err != nil {
				return g.Wait()
			}
			g.Go(func() error {
				defer sem.Release(1)
				return createTile(src, rect, tilePath)
			})

			x += w
		}
		y += h
	}

	return g.Wait()
}

func createTile(src subImager, rect image.Rectangle, tilePath string) error {
	subImg := src.SubImage(rect)

	img := resize.Resize(TileSizeInPx, TileSizeInPx, subImg, resize.MitchellNetravali)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	return WriteFileAtomic(tilePath, buf.Bytes())
}
