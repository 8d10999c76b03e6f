package landuse

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

var geoJSONPattern = regexp.MustCompile(`\.geojson(\.gz)?$`)

// FindFiles expands the given paths into GeoJSON files. Directories are walked
// recursively for .geojson and .geojson.gz files.
func FindFiles(paths []string) ([]string, error) {
	files := []string{}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.Walk(p, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.IsDir() && geoJSONPattern.MatchString(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile reads the features of one GeoJSON file. Files ending in .gz are
// gunzipped. Both feature collections and plain arrays of features are
// accepted.
func ReadFile(path string) ([]*geojson.Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	features, err := parseFeatures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return features, nil
}

func parseFeatures(data []byte) ([]*geojson.Feature, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var features []*geojson.Feature
		if err := json.Unmarshal(data, &features); err != nil {
			return nil, err
		}
		return features, nil
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	return fc.Features, nil
}

// ReadFiles reads all files concurrently, features keep the file order
func ReadFiles(paths []string) ([]*geojson.Feature, error) {
	perFile := make([][]*geojson.Feature, len(paths))

	g := new(errgroup.Group)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			features, err := ReadFile(p)
			if err != nil {
				return err
			}
			perFile[i] = features
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	features := []*geojson.Feature{}
	for _, f := range perFile {
		features = append(features, f...)
	}
	return features, nil
}

// closedRings returns the polygons described by the geometry. Only closed
// ways count: polygons, multi polygons and closed line strings.
func closedRings(g orb.Geometry) []orb.Polygon {
	switch geom := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{geom}
	case orb.MultiPolygon:
		return []orb.Polygon(geom)
	case orb.LineString:
		ring := orb.Ring(geom)
		if len(ring) >= 4 && ring.Closed() {
			return []orb.Polygon{{ring}}
		}
	}
	return nil
}
