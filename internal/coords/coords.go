package coords

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

/**
 *      The landscape lives in a local, metric coordinate space centered on an origin:
 *          - x grows to the east
 *          - y grows to the south
 *          - one unit is one meter at the origin
 *
 *      Web mercator (EPSG:3857) stretches distances by 1/cos(latitude), so one local meter is
 *      1/cos(originLatitude) mercator units. With (ox, oy) being the origin in mercator:
 *          mx = ox + x / cos(lat0)
 *          my = oy - y / cos(lat0)
 *      and the other way round:
 *          x = (mx - ox) * cos(lat0)
 *          y = (oy - my) * cos(lat0)
 *
 *      Positions outside of the square mercator world are not valid.
 */

// MercatorExtent is half of the edge length of the EPSG:3857 world square
const MercatorExtent = 20037508.342789244

// Projection maps local positions to the tile source space (EPSG:3857) and back.
// Both directions report false for positions outside of their valid domain.
type Projection interface {
	ToSource(local orb.Point) (orb.Point, bool)
	FromSource(source orb.Point) (orb.Point, bool)
}

// SpatialReferenceSystem is a local tangent space around an origin
type SpatialReferenceSystem struct {
	origin   orb.Point
	mercator orb.Point
	scale    float64
}

// NewSpatialReferenceSystem creates the local space around given WGS84 longitude / latitude
func NewSpatialReferenceSystem(longitude, latitude float64) SpatialReferenceSystem {
	origin := orb.Point{longitude, latitude}

	return SpatialReferenceSystem{
		origin:   origin,
		mercator: project.WGS84.ToMercator(origin),
		scale:    math.Cos(deg2rad(latitude)),
	}
}

// Origin returns the WGS84 origin of the space
func (s SpatialReferenceSystem) Origin() orb.Point {
	return s.origin
}

// ToEPSG3857 converts a local position to web mercator
func (s SpatialReferenceSystem) ToEPSG3857(local orb.Point) (orb.Point, bool) {
	if s.scale <= 0 {
		return orb.Point{}, false
	}

	mx := s.mercator.X() + local.X()/s.scale
	my := s.mercator.Y() - local.Y()/s.scale

	if math.Abs(mx) > MercatorExtent || math.Abs(my) > MercatorExtent {
		return orb.Point{}, false
	}

	return orb.Point{mx, my}, true
}

// FromEPSG3857 converts web mercator to a local position
func (s SpatialReferenceSystem) FromEPSG3857(mercator orb.Point) (orb.Point, bool) {
	if math.Abs(mercator.X()) > MercatorExtent || math.Abs(mercator.Y()) > MercatorExtent {
		return orb.Point{}, false
	}

	return orb.Point{
		(mercator.X() - s.mercator.X()) * s.scale,
		(s.mercator.Y() - mercator.Y()) * s.scale,
	}, true
}

// FromWGS84 converts longitude / latitude to a local position
func (s SpatialReferenceSystem) FromWGS84(ll orb.Point) (orb.Point, bool) {
	if math.Abs(ll.Lat()) > maxLatitude || math.Abs(ll.Lon()) > 180 {
		return orb.Point{}, false
	}
	return s.FromEPSG3857(project.WGS84.ToMercator(ll))
}

// ToSource implements Projection
func (s SpatialReferenceSystem) ToSource(local orb.Point) (orb.Point, bool) {
	return s.ToEPSG3857(local)
}

// FromSource implements Projection
func (s SpatialReferenceSystem) FromSource(source orb.Point) (orb.Point, bool) {
	return s.FromEPSG3857(source)
}

var maxLatitude = rad2deg(2*math.Atan(math.Exp(math.Pi)) - math.Pi/2)

func rad2deg(rad float64) float64 { return (rad * (180.0 / math.Pi)) }
func deg2rad(deg float64) float64 { return (deg * (math.Pi / 180.0)) }
