package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gruppe-adler/landscape-utils/internal/landuse"
	"github.com/gruppe-adler/landscape-utils/internal/tilecache"
	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// Origin is the WGS84 centre of the landscape
type Origin struct {
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
}

// Landscape configures the output grid
type Landscape struct {
	Radius          float64 `yaml:"radius" json:"radius"`
	QuadSize        float64 `yaml:"quad_size" json:"quadSize"`
	BlendGauge      float64 `yaml:"blend_gauge" json:"blendGauge"`
	Filter          string  `yaml:"filter" json:"filter"`
	KeepEmptyLayers bool    `yaml:"keep_empty_layers" json:"keepEmptyLayers"`
}

// Tiles configures the elevation tile source and its download
type Tiles struct {
	URLTemplate         string        `yaml:"url_template"`
	TileWidth           int           `yaml:"tile_width"`
	TileHeight          int           `yaml:"tile_height"`
	NumLevels           uint32        `yaml:"num_levels"`
	Extension           string        `yaml:"extension"`
	MaxPendingDownloads int           `yaml:"max_pending_downloads"`
	Timeout             time.Duration `yaml:"timeout"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	UserAgent           string        `yaml:"user_agent"`
}

// Cache configures the tile caches
type Cache struct {
	Directory   string        `yaml:"directory"`
	Disabled    bool          `yaml:"disabled"`
	MemoryTiles int64         `yaml:"memory_tiles"`
	MemoryTTL   time.Duration `yaml:"memory_ttl"`
}

// Landuse lists GeoJSON files or directories with land use polygons
type Landuse struct {
	Paths []string `yaml:"paths"`
}

// Log configures the program logger
type Log struct {
	Directory string `yaml:"directory"`
	Level     string `yaml:"level"`
}

// Settings is the content of a build settings file
type Settings struct {
	Origin    Origin          `yaml:"origin"`
	Landscape Landscape       `yaml:"landscape"`
	Layers    []landuse.Layer `yaml:"layers"`
	Tiles     Tiles           `yaml:"tiles"`
	Cache     Cache           `yaml:"cache"`
	Landuse   Landuse         `yaml:"landuse"`
	Log       Log             `yaml:"log"`
}

// Default returns the settings used for everything a file leaves out
func Default() Settings {
	terrarium := tilesource.Terrarium()

	return Settings{
		Landscape: Landscape{
			Radius:          8000,
			QuadSize:        10,
			BlendGauge:      20,
			Filter:          "lanczos",
			KeepEmptyLayers: true,
		},
		Layers: landuse.DefaultLayers(),
		Tiles: Tiles{
			URLTemplate:         terrarium.URLTemplate,
			TileWidth:           terrarium.TileWidth,
			TileHeight:          terrarium.TileHeight,
			NumLevels:           terrarium.NumLevels,
			Extension:           terrarium.Extension,
			MaxPendingDownloads: 10,
			Timeout:             10 * time.Second,
			PollInterval:        100 * time.Millisecond,
			UserAgent:           "landscape-utils",
		},
		Cache: Cache{
			Directory:   tilecache.DefaultDirectory(),
			MemoryTiles: 256,
			MemoryTTL:   10 * time.Minute,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads settings from a YAML file on top of the defaults. Unknown keys
// are rejected.
func Load(path string) (*Settings, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML settings on top of the defaults
func Parse(source []byte) (*Settings, error) {
	s := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(source))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return &s, nil
}

// Source returns the configured tile source
func (s *Settings) Source() tilesource.Source {
	return tilesource.Source{
		URLTemplate: s.Tiles.URLTemplate,
		TileWidth:   s.Tiles.TileWidth,
		TileHeight:  s.Tiles.TileHeight,
		NumLevels:   s.Tiles.NumLevels,
		Extension:   s.Tiles.Extension,
	}
}

// LayerNames returns the names of the configured layers in order
func (s *Settings) LayerNames() []string {
	names := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		names[i] = l.Name
	}
	return names
}

// Marshal encodes the settings as YAML
func (s *Settings) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
