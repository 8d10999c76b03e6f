package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/gruppe-adler/landscape-utils/internal/dem"
	"github.com/gruppe-adler/landscape-utils/internal/manifest"
)

// palette colors the splat preview, layer i uses palette[i % len(palette)]
var palette = []color.NRGBA{
	{R: 150, G: 125, B: 90, A: 255},  // ground
	{R: 120, G: 180, B: 70, A: 255},  // grass
	{R: 30, G: 90, B: 40, A: 255},    // wood
	{R: 200, G: 200, B: 190, A: 255}, // rock
	{R: 70, G: 120, B: 200, A: 255},  // water
	{R: 220, G: 200, B: 120, A: 255}, // sand
}

// LoadGray16 reads the 16 bit heightmap PNG of a build
func LoadGray16(path string) (*image.Gray16, error) {
	img, err := loadPNG(path)
	if err != nil {
		return nil, err
	}

	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("%s: expected 16 bit grayscale, got %T", path, img)
	}
	return gray, nil
}

// LoadGray reads an 8 bit weight map PNG of a build
func LoadGray(path string) (*image.Gray, error) {
	img, err := loadPNG(path)
	if err != nil {
		return nil, err
	}

	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("%s: expected 8 bit grayscale, got %T", path, img)
	}
	return gray, nil
}

func loadPNG(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return png.Decode(file)
}

// Splat mixes the layer colors by their weights
func Splat(weights []*image.Gray) *image.NRGBA {
	if len(weights) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	bounds := weights[0].Bounds()
	img := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var r, g, b, sum int
			for i, w := range weights {
				v := int(w.GrayAt(x, y).Y)
				c := palette[i%len(palette)]
				r += v * int(c.R)
				g += v * int(c.G)
				b += v * int(c.B)
				sum += v
			}
			if sum == 0 {
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(r / sum), G: uint8(g / sum), B: uint8(b / sum), A: 255})
		}
	}

	return img
}

// ScaleTo scales img to fit into size x size pixels, keeping its aspect ratio
func ScaleTo(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = size * b.Dy() / b.Dx()
	} else if b.Dy() > b.Dx() {
		w = size * b.Dx() / b.Dy()
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Terrarium re-encodes the quantized heightmap in the terrarium RGB encoding
// using the elevation range of the manifest.
func Terrarium(heights *image.Gray16, m *manifest.Manifest) (*image.NRGBA, error) {
	b := heights.Bounds()
	scale := (m.ElevationMax - m.ElevationMin) / 65535

	meters := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			meters = append(meters, m.ElevationMin+float64(heights.Gray16At(x, y).Y)*scale)
		}
	}

	return dem.EncodeImage(meters, b.Dx(), b.Dy())
}

// Layers loads all weight maps listed in the manifest
func Layers(buildDirectory string, m *manifest.Manifest) ([]*image.Gray, error) {
	weights := make([]*image.Gray, len(m.Layers))
	for i, l := range m.Layers {
		img, err := LoadGray(filepath.Join(buildDirectory, l.File))
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
		weights[i] = img
	}
	return weights, nil
}
