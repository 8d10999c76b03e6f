package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gruppe-adler/landscape-utils/internal/utils"
)

// FileName is the name of the manifest inside a build directory
const FileName = "landscape.json"

// Version of the manifest format
const Version = 1

// Grid describes the vertex grid of the heightmap
type Grid struct {
	Size                 int     `json:"size"`
	NumVerticesForRadius int     `json:"numVerticesForRadius"`
	SubsectionSizeQuads  int     `json:"subsectionSizeQuads"`
	QuadSize             float64 `json:"quadSize"`
}

// Transform is the world scale of the landscape
type Transform struct {
	ScaleXY float64 `json:"scaleXY"`
	ScaleZ  float64 `json:"scaleZ"`
}

// Layer references the weight map of one blend layer
type Layer struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Manifest describes the outputs of a build
type Manifest struct {
	Version      int        `json:"version"`
	Origin       [2]float64 `json:"origin"` // longitude, latitude
	Grid         Grid       `json:"grid"`
	Transform    Transform  `json:"transform"`
	ElevationMin float64    `json:"elevationMin"`
	ElevationMax float64    `json:"elevationMax"`
	LightingLOD  int        `json:"lightingLOD"`
	Heightmap    string     `json:"heightmap"`
	HeightmapPNG string     `json:"heightmapPNG"`
	Layers       []Layer    `json:"layers"`
	TileSource   string     `json:"tileSource"`
	TileLevel    uint32     `json:"tileLevel"`
	NumTiles     int        `json:"numTiles"`
}

// Write stores the manifest in the given directory
func Write(outputDirectory string, m Manifest) error {
	bytes, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}

	return utils.WriteFileAtomic(filepath.Join(outputDirectory, FileName), bytes)
}

// Read loads the manifest of a build directory
func Read(buildDirectory string) (*Manifest, error) {
	bytes, err := os.ReadFile(filepath.Join(buildDirectory, FileName))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(bytes, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%s: unsupported version %d", FileName, m.Version)
	}

	return &m, nil
}
