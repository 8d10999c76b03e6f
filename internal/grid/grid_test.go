package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewGeometry(t *testing.T) {
	tests := []struct {
		radius, quadSize float64
		wantN, wantSub   int
	}{
		{radius: 150, quadSize: 100, wantN: 2, wantSub: 1},
		{radius: 1000, quadSize: 100, wantN: 10, wantSub: 1},
		{radius: 3000, quadSize: 1, wantN: 3060, wantSub: 255},
		{radius: 10000, quadSize: 10, wantN: 1008, wantSub: 63},
		{radius: 10, quadSize: 100, wantN: 1, wantSub: 1},
	}

	for _, tt := range tests {
		g, err := NewGeometry(tt.radius, tt.quadSize)
		if err != nil {
			t.Fatal(err)
		}
		if g.NumVerticesForRadius != tt.wantN || g.SubsectionSizeQuads != tt.wantSub {
			t.Errorf("NewGeometry(%v, %v) = N %d sub %d, want N %d sub %d",
				tt.radius, tt.quadSize, g.NumVerticesForRadius, g.SubsectionSizeQuads, tt.wantN, tt.wantSub)
		}
		if g.NumVerticesForRadius%g.SubsectionSizeQuads != 0 {
			t.Errorf("N %d not a multiple of %d", g.NumVerticesForRadius, g.SubsectionSizeQuads)
		}
		if g.Size() != 2*g.NumVerticesForRadius {
			t.Errorf("size %d for N %d", g.Size(), g.NumVerticesForRadius)
		}
	}
}

func TestNewGeometryInvalid(t *testing.T) {
	for _, args := range [][2]float64{{0, 1}, {1, 0}, {-5, 1}, {math.NaN(), 1}, {math.Inf(1), 1}} {
		if _, err := NewGeometry(args[0], args[1]); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("NewGeometry(%v, %v) err %v", args[0], args[1], err)
		}
	}
}

func TestLocalAndCell(t *testing.T) {
	g, _ := NewGeometry(1000, 100)

	if p := g.Local(0, 0); p != (orb.Point{-1000, -1000}) {
		t.Errorf("Local(0, 0) = %v", p)
	}
	if p := g.Local(10, 10); p != (orb.Point{0, 0}) {
		t.Errorf("Local(N, N) = %v", p)
	}

	x, y := g.Cell(orb.Point{240, -160})
	if x != 12 || y != 8 {
		t.Errorf("Cell = %d, %d", x, y)
	}

	sw, ne := g.Corners()
	if sw != (orb.Point{-1000, 1000}) || ne != (orb.Point{1000, -1000}) {
		t.Errorf("corners %v %v", sw, ne)
	}
}

func TestNewTransform(t *testing.T) {
	g, _ := NewGeometry(1000, 100)
	tr := NewTransform(g, -12, 500)

	if tr.ScaleXY != 78.125 {
		t.Errorf("ScaleXY = %v", tr.ScaleXY)
	}
	want := 512.0 / 256 / 5.12
	if math.Abs(tr.ScaleZ-want) > 1e-12 {
		t.Errorf("ScaleZ = %v, want %v", tr.ScaleZ, want)
	}
}

func TestLightingLOD(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{size: 20, want: 0},
		{size: 2047, want: 0},
		{size: 2048, want: 1},
		{size: 4096, want: 2},
		{size: 8192, want: 3},
	}

	for _, tt := range tests {
		if got := LightingLOD(tt.size); got != tt.want {
			t.Errorf("LightingLOD(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}
