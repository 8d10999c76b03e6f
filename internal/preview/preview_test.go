package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gruppe-adler/landscape-utils/internal/manifest"
	"github.com/gruppe-adler/landscape-utils/internal/terrainrgb"
)

func TestSplat(t *testing.T) {
	base := image.NewGray(image.Rect(0, 0, 2, 1))
	wood := image.NewGray(image.Rect(0, 0, 2, 1))
	base.SetGray(0, 0, color.Gray{Y: 255})
	wood.SetGray(1, 0, color.Gray{Y: 255})

	img := Splat([]*image.Gray{base, wood, image.NewGray(image.Rect(0, 0, 2, 1))})

	if c := img.NRGBAAt(0, 0); c != palette[0] {
		t.Errorf("base pixel %v", c)
	}
	if c := img.NRGBAAt(1, 0); c != palette[1] {
		t.Errorf("second layer pixel %v", c)
	}
}

func TestScaleTo(t *testing.T) {
	img := ScaleTo(image.NewNRGBA(image.Rect(0, 0, 40, 20)), 128)
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("scaled to %v", b)
	}
}

func TestTerrarium(t *testing.T) {
	heights := image.NewGray16(image.Rect(0, 0, 2, 1))
	heights.SetGray16(0, 0, color.Gray16{Y: 0})
	heights.SetGray16(1, 0, color.Gray16{Y: 65535})

	img, err := Terrarium(heights, &manifest.Manifest{ElevationMin: -10, ElevationMax: 500})
	if err != nil {
		t.Fatal(err)
	}

	for x, want := range []float64{-10, 500} {
		c := img.NRGBAAt(x, 0)
		got := terrainrgb.Decode(c.R, c.G, c.B)
		if !got.Valid || math.Abs(got.Height-want) > 1.0/256 {
			t.Errorf("pixel %d decodes to %+v, want %v", x, got, want)
		}
	}
}

func TestLoadGrayFormats(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, img image.Image) string {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	gray16 := write("h.png", image.NewGray16(image.Rect(0, 0, 4, 4)))
	gray := write("w.png", image.NewGray(image.Rect(0, 0, 4, 4)))

	if _, err := LoadGray16(gray16); err != nil {
		t.Error(err)
	}
	if _, err := LoadGray(gray); err != nil {
		t.Error(err)
	}
	if _, err := LoadGray16(gray); err == nil {
		t.Error("8 bit image accepted as heightmap")
	}
}
