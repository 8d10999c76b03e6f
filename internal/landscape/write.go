package landscape

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/gruppe-adler/landscape-utils/internal/blend"
	"github.com/gruppe-adler/landscape-utils/internal/manifest"
	"github.com/gruppe-adler/landscape-utils/internal/utils"
)

// Output file names inside a build directory
const (
	HeightmapRawFile = "heightmap.r16"
	HeightmapPNGFile = "heightmap.png"
	WeightsDirectory = "weights"
)

// Write stores the result in outputDirectory: the raw and PNG heightmap,
// one grayscale PNG per layer and the manifest. The manifest is written
// last, a directory with a manifest is complete.
func Write(outputDirectory string, result *Result) error {
	size := result.Geometry.Size()

	raw := make([]byte, 2*len(result.Heights))
	for i, h := range result.Heights {
		binary.LittleEndian.PutUint16(raw[2*i:], h)
	}
	if err := utils.WriteFileAtomic(filepath.Join(outputDirectory, HeightmapRawFile), raw); err != nil {
		return err
	}

	if err := writePNG(filepath.Join(outputDirectory, HeightmapPNGFile), HeightImage(result.Heights, size)); err != nil {
		return err
	}

	layers := make([]manifest.Layer, len(result.Layers))
	for i, weights := range result.Layers {
		name := result.LayerNames[i]
		file := filepath.ToSlash(filepath.Join(WeightsDirectory, name+".png"))

		if err := writePNG(filepath.Join(outputDirectory, file), WeightImage(weights, size)); err != nil {
			return fmt.Errorf("layer %s: %w", name, err)
		}
		layers[i] = manifest.Layer{Name: name, File: file}
	}

	m := manifest.Manifest{
		Version: manifest.Version,
		Origin:  [2]float64{result.Origin.Longitude, result.Origin.Latitude},
		Grid: manifest.Grid{
			Size:                 size,
			NumVerticesForRadius: result.Geometry.NumVerticesForRadius,
			SubsectionSizeQuads:  result.Geometry.SubsectionSizeQuads,
			QuadSize:             result.Geometry.QuadSize,
		},
		Transform: manifest.Transform{
			ScaleXY: result.Transform.ScaleXY,
			ScaleZ:  result.Transform.ScaleZ,
		},
		ElevationMin: result.ElevationMin,
		ElevationMax: result.ElevationMax,
		LightingLOD:  result.LightingLOD,
		Heightmap:    HeightmapRawFile,
		HeightmapPNG: HeightmapPNGFile,
		Layers:       layers,
	}
	if result.Job != nil {
		m.TileSource = result.Job.Source.URLTemplate
		m.TileLevel = result.Job.Level
		m.NumTiles = len(result.Job.Keys)
	}

	return manifest.Write(outputDirectory, m)
}

// HeightImage wraps quantized heights into a 16 bit grayscale image
func HeightImage(heights []uint16, size int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, size, size))
	for i, h := range heights {
		img.Pix[2*i] = uint8(h >> 8)
		img.Pix[2*i+1] = uint8(h)
	}
	return img
}

// WeightImage wraps a weight map into an 8 bit grayscale image
func WeightImage(weights blend.WeightMap, size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	copy(img.Pix, weights)
	return img
}

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes())
}
