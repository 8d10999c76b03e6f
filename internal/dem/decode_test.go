package dem

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

var testKey = tilesource.TileKey{Zoom: 3, X: 4, Y: 2}

func TestDecode(t *testing.T) {
	heights := []float64{
		-10, 0, 10,
		20, 30, 2500.5,
	}
	raw, err := Encode(heights, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	tile, err := Decode(testKey, raw, 3, 2)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if tile.Key != testKey || tile.Width != 3 || tile.Height != 2 {
		t.Fatalf("unexpected tile header %+v", tile)
	}
	for i, h := range heights {
		s := tile.Samples[i]
		if !s.Valid || math.Abs(s.Height-h) > 1.0/256 {
			t.Errorf("sample %d = %+v, want %v", i, s, h)
		}
	}
	if tile.Min != -10 || math.Abs(tile.Max-2500.5) > 1.0/256 {
		t.Errorf("range = %v..%v", tile.Min, tile.Max)
	}
}

func TestDecodeDimensionMismatch(t *testing.T) {
	raw, err := Encode(make([]float64, 4*4), 4, 4)
	if err != nil {
		t.Fatal(err)
	}

	tile, err := Decode(testKey, raw, 256, 256)
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
	if tile != nil {
		t.Fatal("expected no tile on mismatch")
	}
}

func TestDecodePixelFormatMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}

	if _, err := Decode(testKey, buf.Bytes(), 2, 2); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode(testKey, []byte("<html>rate limited</html>"), 2, 2); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
}

func TestNoDataIsFlaggedAndExcludedFromRange(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []uint8{
		128, 100, 0, 255, // 100m
		255, 255, 255, 255, // no data
	})

	tile, err := DecodeImage(testKey, img, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	if tile.Samples[1].Valid {
		t.Fatal("expected maximum encoding to be no data")
	}
	if tile.Min != 100 || tile.Max != 100 {
		t.Fatalf("range = %v..%v, want 100..100", tile.Min, tile.Max)
	}
	if got := tile.At(1, 0); got != 100 {
		t.Fatalf("no-data sample read as %v, want tile minimum 100", got)
	}
}

func TestTileSetRange(t *testing.T) {
	set := NewTileSet()
	if min, max := set.Range(); min != 0 || max != 0 {
		t.Fatalf("empty set range = %v..%v", min, max)
	}

	set.Add(&ElevationTile{Key: tilesource.TileKey{X: 0}, Min: -5, Max: 10})
	set.Add(&ElevationTile{Key: tilesource.TileKey{X: 1}, Min: 3, Max: 40})

	if set.Len() != 2 {
		t.Fatalf("Len() = %d", set.Len())
	}
	if min, max := set.Range(); min != -5 || max != 40 {
		t.Fatalf("Range() = %v..%v", min, max)
	}
	if set.Get(tilesource.TileKey{X: 1}) == nil {
		t.Fatal("Get() missed an added tile")
	}
}
