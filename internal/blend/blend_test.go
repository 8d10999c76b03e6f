package blend

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/gruppe-adler/landscape-utils/internal/grid"
	"github.com/gruppe-adler/landscape-utils/internal/landuse"
	"github.com/gruppe-adler/landscape-utils/internal/progress"
)

func square(minX, minY, maxX, maxY float64) landuse.Polygon {
	return landuse.NewPolygon(orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}})
}

func testRasterizer(t *testing.T, gauge float64, keepEmpty bool) *Rasterizer {
	t.Helper()

	g, err := grid.NewGeometry(1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	return &Rasterizer{Geometry: g, BlendGauge: gauge, KeepEmptyLayers: keepEmpty}
}

func cellSum(maps []WeightMap, index int) int {
	sum := 0
	for _, m := range maps {
		sum += int(m[index])
	}
	return sum
}

func assertSums(t *testing.T, maps []WeightMap, tolerance int) {
	t.Helper()

	for i := range maps[0] {
		if s := cellSum(maps, i); s < 255-tolerance || s > 255+tolerance {
			t.Fatalf("cell %d sums to %d", i, s)
		}
	}
}

func TestBaseLayerOnly(t *testing.T) {
	r := testRasterizer(t, 200, true)

	maps, err := r.Run(context.Background(), [][]landuse.Polygon{nil}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(maps) != 1 {
		t.Fatalf("got %d maps", len(maps))
	}
	for i, w := range maps[0] {
		if w != 255 {
			t.Fatalf("base cell %d = %d", i, w)
		}
	}
}

func TestFalloff(t *testing.T) {
	r := testRasterizer(t, 200, true)
	g := r.Geometry

	maps, err := r.Run(context.Background(), [][]landuse.Polygon{nil, {square(-300, -300, 300, 300)}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertSums(t, maps, 0)

	tests := []struct {
		local orb.Point
		want  uint8
	}{
		{local: orb.Point{0, 0}, want: 255},
		{local: orb.Point{200, 0}, want: 255},
		{local: orb.Point{300, 0}, want: 128},
		{local: orb.Point{400, 0}, want: 0},
		{local: orb.Point{-300, -300}, want: 128},
		{local: orb.Point{900, 900}, want: 0},
	}

	for _, tt := range tests {
		x, y := g.Cell(tt.local)
		index := g.Index(x, y)
		if got := maps[1][index]; got != tt.want {
			t.Errorf("weight at %v = %d, want %d", tt.local, got, tt.want)
		}
		if base := maps[0][index]; int(base) != 255-int(tt.want) {
			t.Errorf("base at %v = %d", tt.local, base)
		}
	}
}

func TestLaterLayersTakeFromEarlier(t *testing.T) {
	r := testRasterizer(t, 0, true)
	g := r.Geometry

	layers := [][]landuse.Polygon{
		nil,
		{square(-550, -550, 550, 550)},
		{square(-150, -150, 150, 150)},
	}
	maps, err := r.Run(context.Background(), layers, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertSums(t, maps, 0)

	x, y := g.Cell(orb.Point{0, 0})
	if w := maps[2][g.Index(x, y)]; w != 255 {
		t.Errorf("inner layer weight %d", w)
	}
	if w := maps[1][g.Index(x, y)]; w != 0 {
		t.Errorf("outer layer kept %d under the inner one", w)
	}

	x, y = g.Cell(orb.Point{400, 0})
	if w := maps[1][g.Index(x, y)]; w != 255 {
		t.Errorf("outer layer weight %d", w)
	}
}

func TestSoftOverlapsSumTo255(t *testing.T) {
	r := testRasterizer(t, 350, true)

	layers := [][]landuse.Polygon{
		nil,
		{square(-620, -480, 330, 510), square(-100, -100, 700, 420)},
		{square(-250, -770, 260, 90)},
		{square(150, 150, 980, 980)},
	}
	maps, err := r.Run(context.Background(), layers, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertSums(t, maps, 0)
}

func TestEmptyLayerMarker(t *testing.T) {
	tests := []struct {
		keepEmpty bool
		wantMarks int
	}{
		{keepEmpty: true, wantMarks: 2},
		{keepEmpty: false, wantMarks: 0},
	}

	for _, tt := range tests {
		r := testRasterizer(t, 200, tt.keepEmpty)

		maps, err := r.Run(context.Background(), [][]landuse.Polygon{nil, nil, nil}, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertSums(t, maps, 1)

		marks := 0
		var markedCells []int
		for _, m := range maps[1:] {
			for i, w := range m {
				if w != 0 {
					marks++
					markedCells = append(markedCells, i)
					if w != 1 {
						t.Errorf("marker weight %d", w)
					}
				}
			}
		}
		if marks != tt.wantMarks {
			t.Fatalf("keepEmpty %v: %d marked cells, want %d", tt.keepEmpty, marks, tt.wantMarks)
		}
		if marks == 2 && markedCells[0] == markedCells[1] {
			t.Error("empty layers share their marker cell")
		}
	}
}

func TestPolygonOutsideOfGrid(t *testing.T) {
	r := testRasterizer(t, 200, false)

	maps, err := r.Run(context.Background(), [][]landuse.Polygon{nil, {square(5000, 5000, 6000, 6000)}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range maps[1] {
		if w != 0 {
			t.Fatalf("cell %d painted by a polygon outside of the grid", i)
		}
	}
}

type cancelled struct{ progress.Nop }

func (cancelled) CancelRequested() bool { return true }

func TestCancel(t *testing.T) {
	r := testRasterizer(t, 200, true)

	_, err := r.Run(context.Background(), [][]landuse.Polygon{nil, {square(0, 0, 100, 100)}}, cancelled{})
	if !errors.Is(err, progress.ErrUserCancelled) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRedistribute(t *testing.T) {
	layers := []WeightMap{{100}, {55}, {100}}

	redistribute(layers, 0, 100)
	if s := cellSum(layers, 0); s != 100 {
		t.Fatalf("sum %d", s)
	}
	if layers[1][0] != 21 {
		t.Errorf("middle layer %d", layers[1][0])
	}
}
