package dem

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gruppe-adler/landscape-utils/internal/terrainrgb"
)

// EncodeImage packs row-major heights into a terrarium image
func EncodeImage(heights []float64, width, height int) (*image.NRGBA, error) {
	if len(heights) != width*height {
		return nil, fmt.Errorf("got %d heights for a %dx%d image", len(heights), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := terrainrgb.HeightToRgb(heights[y*width+x])
			i := img.PixOffset(x, y)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = 255
		}
	}

	return img, nil
}

// Encode packs row-major heights into terrarium PNG bytes
func Encode(heights []float64, width, height int) ([]byte, error) {
	img, err := EncodeImage(heights, width, height)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
