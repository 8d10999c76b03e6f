package landuse

import (
	"bytes"
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/gruppe-adler/landscape-utils/internal/coords"
)

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"landuse": "forest"},
     "geometry": {"type": "Polygon", "coordinates": [[[-0.001,-0.001],[0.001,-0.001],[0.001,0.001],[-0.001,0.001],[-0.001,-0.001]]]}},
    {"type": "Feature", "properties": {"leisure": "park"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[0.01,0.01],[0.02,0.01],[0.02,0.02],[0.01,0.01]]],
       [[[0.03,0.03],[0.04,0.03],[0.04,0.04],[0.03,0.03]]]
     ]}},
    {"type": "Feature", "properties": {"highway": "primary"},
     "geometry": {"type": "LineString", "coordinates": [[0,0],[0.01,0.01]]}},
    {"type": "Feature", "properties": {"landuse": "meadow"},
     "geometry": {"type": "LineString", "coordinates": [[0,0],[0.01,0],[0.01,0.01],[0,0]]}},
    {"type": "Feature", "properties": {"natural": "wood"},
     "geometry": {"type": "Point", "coordinates": [0,0]}}
  ]
}`

const featureArray = `[
  {"type": "Feature", "properties": {"natural": "wood"},
   "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0.001,0],[0.001,0.001],[0,0]]]}}
]`

func writeGzip(t *testing.T, path, content string) {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "osm"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeGzip(t, filepath.Join(dir, "osm", "landuse.geojson.gz"), collection)
	if err := os.WriteFile(filepath.Join(dir, "wood.geojson"), []byte(featureArray), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := FindFiles([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("found %v", files)
	}

	features, err := ReadFiles(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 6 {
		t.Fatalf("read %d features, want 6", len(features))
	}
}

func TestReadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.geojson")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("broken file accepted")
	}
}

func TestClassify(t *testing.T) {
	features, err := parseFeatures([]byte(collection))
	if err != nil {
		t.Fatal(err)
	}

	srs := coords.NewSpatialReferenceSystem(0, 0)
	layers := DefaultLayers()
	polygons := Classify(features, layers, srs, nil)

	if len(polygons) != len(layers) {
		t.Fatalf("got %d layers", len(polygons))
	}
	if len(polygons[0]) != 0 {
		t.Errorf("base layer got %d polygons", len(polygons[0]))
	}
	// two parts of the park plus the closed meadow way
	if len(polygons[1]) != 3 {
		t.Errorf("grass got %d polygons, want 3", len(polygons[1]))
	}
	if len(polygons[2]) != 1 {
		t.Fatalf("wood got %d polygons, want 1", len(polygons[2]))
	}

	forest := polygons[2][0]
	if !planar.PolygonContains(forest.Polygon, orb.Point{0, 0}) {
		t.Error("forest does not contain the origin")
	}
	// 0.001 degrees at the equator are about 111 meters
	if w := forest.Bound.Max[0]; math.Abs(w-111.3) > 1 {
		t.Errorf("forest extends to %v meters", w)
	}
	if forest.Bound.Min[1] > -100 || forest.Bound.Max[1] < 100 {
		t.Errorf("unexpected bound %v", forest.Bound)
	}
}

func TestClassifyDropsOutOfDomain(t *testing.T) {
	features, err := parseFeatures([]byte(`{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "properties": {"landuse": "forest"},
	   "geometry": {"type": "Polygon", "coordinates": [[[0,89],[1,89],[1,90],[0,89]]]}}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	polygons := Classify(features, DefaultLayers(), coords.NewSpatialReferenceSystem(0, 0), nil)
	if len(polygons[2]) != 0 {
		t.Fatal("polygon beyond the mercator domain was kept")
	}
}

func TestToLocalRings(t *testing.T) {
	srs := coords.NewSpatialReferenceSystem(0, 0)
	outer := orb.Ring{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}
	hole := orb.Ring{{0.002, 0.002}, {0.004, 0.002}, {0.004, 0.004}, {0.002, 0.002}}

	tests := []struct {
		name    string
		polygon orb.Polygon
		rings   int
		wantErr bool
	}{
		{"outer and hole", orb.Polygon{outer, hole}, 2, false},
		{"degenerate hole", orb.Polygon{outer, {{0.002, 0.002}, {0.003, 0.003}}}, 1, false},
		{"degenerate outer ring", orb.Polygon{{{0, 0}, {0.01, 0}}, hole}, 0, true},
		{"no rings", orb.Polygon{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, err := toLocal(tt.polygon, srs)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", local)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(local) != tt.rings {
				t.Errorf("got %d rings, want %d", len(local), tt.rings)
			}
		})
	}
}
