package validate

import (
	"errors"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/gruppe-adler/landscape-utils/internal/manifest"
	"github.com/gruppe-adler/landscape-utils/internal/reproject"
	"github.com/gruppe-adler/landscape-utils/internal/settings"
	"github.com/gruppe-adler/landscape-utils/internal/utils"
)

// Settings checks build settings for values no build could succeed with.
// All problems are reported at once.
func Settings(s *settings.Settings) error {
	var errs []error

	if math.Abs(s.Origin.Longitude) > 180 {
		errs = append(errs, fmt.Errorf("origin longitude %v out of range", s.Origin.Longitude))
	}
	if math.Abs(s.Origin.Latitude) >= 85.0511 {
		errs = append(errs, fmt.Errorf("origin latitude %v outside of web mercator", s.Origin.Latitude))
	}

	if !(s.Landscape.Radius > 0) {
		errs = append(errs, fmt.Errorf("landscape radius must be positive"))
	}
	if !(s.Landscape.QuadSize > 0) {
		errs = append(errs, fmt.Errorf("landscape quad size must be positive"))
	}
	if s.Landscape.BlendGauge < 0 {
		errs = append(errs, fmt.Errorf("blend gauge must not be negative"))
	}
	if _, err := reproject.ParseFilter(s.Landscape.Filter); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, layers(s)...)

	if s.Tiles.URLTemplate == "" {
		errs = append(errs, fmt.Errorf("tile url template is missing"))
	}
	// the filter footprint needs a border of 2 pixels plus one to sample from
	if s.Tiles.TileWidth < 6 || s.Tiles.TileHeight < 6 {
		errs = append(errs, fmt.Errorf("tiles of %dx%d pixels are too small", s.Tiles.TileWidth, s.Tiles.TileHeight))
	}
	if s.Tiles.NumLevels < 1 || s.Tiles.NumLevels > 31 {
		errs = append(errs, fmt.Errorf("tile source needs between 1 and 31 levels, got %d", s.Tiles.NumLevels))
	}
	if s.Tiles.MaxPendingDownloads < 1 {
		errs = append(errs, fmt.Errorf("at least one pending download is required"))
	}
	if s.Tiles.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("tile timeout must be positive"))
	}

	for _, p := range s.Landuse.Paths {
		if !utils.IsFile(p) && !utils.IsDirectory(p) {
			errs = append(errs, fmt.Errorf("land use path %s does not exist", p))
		}
	}

	return errors.Join(errs...)
}

func layers(s *settings.Settings) []error {
	if len(s.Layers) == 0 {
		return []error{fmt.Errorf("at least one layer is required")}
	}

	var errs []error
	seen := map[string]bool{}
	for i, l := range s.Layers {
		switch {
		case l.Name == "":
			errs = append(errs, fmt.Errorf("layer %d has no name", i))
		case strings.ContainsAny(l.Name, `/\`) || l.Name == "." || l.Name == "..":
			errs = append(errs, fmt.Errorf("layer name %q is not a valid file name", l.Name))
		case seen[l.Name]:
			errs = append(errs, fmt.Errorf("layer %q is defined twice", l.Name))
		}
		seen[l.Name] = true

		for _, m := range l.Matches {
			if m.Key == "" {
				errs = append(errs, fmt.Errorf("layer %q has a match without key", l.Name))
			}
		}
	}
	return errs
}

// BuildDirectory validates that given directory holds a complete build
func BuildDirectory(buildDirPath string) error {
	if !utils.IsDirectory(buildDirPath) {
		return fmt.Errorf("%s does not exists or is no directory", buildDirPath)
	}

	m, err := manifest.Read(buildDirPath)
	if err != nil {
		return err
	}

	files := []string{m.Heightmap, m.HeightmapPNG}
	for _, l := range m.Layers {
		files = append(files, l.File)
	}

	for _, f := range files {
		if !utils.IsFile(path.Join(buildDirPath, f)) {
			return fmt.Errorf("%s is missing", path.Join(buildDirPath, f))
		}
	}

	return nil
}
