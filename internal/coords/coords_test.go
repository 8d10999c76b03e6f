package coords

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
	}{
		{"Null Island", 0, 0},
		{"Berlin", 13.4050, 52.5200},
		{"Wellington", 174.7762, -41.2865},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srs := NewSpatialReferenceSystem(tt.lon, tt.lat)

			for _, local := range []orb.Point{{0, 0}, {1500, -2500}, {-10000, 10000}} {
				mercator, ok := srs.ToEPSG3857(local)
				if !ok {
					t.Fatalf("ToEPSG3857(%v) reported invalid", local)
				}
				back, ok := srs.FromEPSG3857(mercator)
				if !ok {
					t.Fatalf("FromEPSG3857(%v) reported invalid", mercator)
				}
				if math.Abs(back.X()-local.X()) > 1e-6 || math.Abs(back.Y()-local.Y()) > 1e-6 {
					t.Errorf("round trip of %v gave %v", local, back)
				}
			}
		})
	}
}

func TestOriginIsLocalZero(t *testing.T) {
	srs := NewSpatialReferenceSystem(8.6821, 50.1109)

	local, ok := srs.FromWGS84(srs.Origin())
	if !ok {
		t.Fatal("origin reported invalid")
	}
	if math.Abs(local.X()) > 1e-6 || math.Abs(local.Y()) > 1e-6 {
		t.Fatalf("origin maps to %v", local)
	}
}

func TestSouthIsPositiveY(t *testing.T) {
	srs := NewSpatialReferenceSystem(0, 45)

	south, _ := srs.ToEPSG3857(orb.Point{0, 1000})
	north, _ := srs.ToEPSG3857(orb.Point{0, -1000})
	if south.Y() >= north.Y() {
		t.Fatalf("expected positive local y to point south, got %v and %v", south, north)
	}
}

func TestOutOfDomain(t *testing.T) {
	srs := NewSpatialReferenceSystem(179.9, 84)

	if _, ok := srs.ToEPSG3857(orb.Point{1e7, 0}); ok {
		t.Error("expected position beyond the antimeridian to be invalid")
	}
	if _, ok := srs.ToEPSG3857(orb.Point{0, -1e7}); ok {
		t.Error("expected position beyond the mercator limit to be invalid")
	}
	if _, ok := srs.FromWGS84(orb.Point{0, 89}); ok {
		t.Error("expected latitude beyond the mercator limit to be invalid")
	}
}
