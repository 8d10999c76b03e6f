package landuse

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"

	"github.com/gruppe-adler/landscape-utils/internal/coords"
)

// Match selects features whose property Key equals Value
type Match struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Layer is a named blend layer and the land use that paints it
type Layer struct {
	Name    string  `yaml:"name" json:"name"`
	Matches []Match `yaml:"matches,omitempty" json:"matches,omitempty"`
}

// DefaultLayers returns a base layer followed by grass and wood
func DefaultLayers() []Layer {
	return []Layer{
		{Name: "Ground"},
		{
			Name: "Grass",
			Matches: []Match{
				{Key: "landuse", Value: "grass"},
				{Key: "landuse", Value: "village_green"},
				{Key: "landuse", Value: "meadow"},
				{Key: "landuse", Value: "farmland"},
				{Key: "leisure", Value: "park"},
			},
		},
		{
			Name: "Wood",
			Matches: []Match{
				{Key: "landuse", Value: "forest"},
				{Key: "natural", Value: "wood"},
				{Key: "natural", Value: "nature_reserve"},
			},
		},
	}
}

// Selects reports whether the feature properties satisfy any of the layer's matches
func (l Layer) Selects(props geojson.Properties) bool {
	for _, m := range l.Matches {
		v, ok := props[m.Key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s == m.Value {
			return true
		}
	}
	return false
}

// Polygon is a land use area in local meters
type Polygon struct {
	Polygon orb.Polygon
	Bound   orb.Bound
}

// NewPolygon wraps p and precomputes its bound
func NewPolygon(p orb.Polygon) Polygon {
	return Polygon{Polygon: p, Bound: p.Bound()}
}

// Classify sorts the closed ways of the features into the layers and
// projects them into local meters. The result is aligned with layers. A
// polygon with any vertex outside of the projection's domain is dropped.
func Classify(features []*geojson.Feature, layers []Layer, projection coords.Projection, logger *slog.Logger) [][]Polygon {
	if logger == nil {
		logger = slog.Default()
	}

	result := make([][]Polygon, len(layers))
	dropped := 0

	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}

		for i, layer := range layers {
			if !layer.Selects(f.Properties) {
				continue
			}

			for _, p := range closedRings(f.Geometry) {
				local, err := toLocal(p, projection)
				if err != nil {
					dropped++
					logger.Debug("dropping land use polygon", "layer", layer.Name, "id", f.ID, "error", err)
					continue
				}
				result[i] = append(result[i], NewPolygon(local))
			}
		}
	}

	if dropped > 0 {
		logger.Warn("land use polygons outside of the projection", "count", dropped)
	}

	return result
}

func toLocal(p orb.Polygon, projection coords.Projection) (orb.Polygon, error) {
	if len(p) == 0 || len(p[0]) < 3 {
		return nil, fmt.Errorf("degenerate outer ring")
	}

	out := make(orb.Polygon, 0, len(p))
	for _, ring := range p {
		// holes too small to enclose anything are ignored
		if len(ring) < 3 {
			continue
		}

		r := make(orb.Ring, len(ring))
		for i, ll := range ring {
			local, ok := projection.FromSource(project.WGS84.ToMercator(ll))
			if !ok {
				return nil, fmt.Errorf("vertex %v out of domain", ll)
			}
			r[i] = local
		}
		out = append(out, r)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("polygon without rings")
	}
	return out, nil
}
