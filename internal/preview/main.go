package preview

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"

	"github.com/gruppe-adler/landscape-utils/internal/manifest"
	"github.com/gruppe-adler/landscape-utils/internal/utils"
	"github.com/gruppe-adler/landscape-utils/internal/validate"
)

var sizes = []uint{128, 256, 512, 1024}

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet, args []string) {

	var timer time.Time
	start := time.Now()

	outputPtr := flagSet.String("out", "", "Path to output directory")
	inputPtr := flagSet.String("in", "", "Path to build directory")
	tilesPtr := flagSet.Bool("tiles", false, "Also build an XYZ tile pyramid of the heightmap preview")

	flagSet.Parse(args)

	// make sure both flags are present
	if *outputPtr == "" || *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	// make sure given output directory is a valid directory
	if !utils.IsDirectory(*outputPtr) {
		log.Fatal(errors.New("Output directory doesn't exists"))
	}

	// validate input directory structure
	err := validate.BuildDirectory(*inputPtr)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("✔️  Validated build directory structure")

	timer = time.Now()
	fmt.Println("▶️  Loading heightmap")

	m, err := manifest.Read(*inputPtr)
	if err != nil {
		log.Fatal(err)
	}
	heights, err := LoadGray16(filepath.Join(*inputPtr, m.HeightmapPNG))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("✔️  Loaded heightmap in", time.Since(timer).String())

	for _, size := range sizes {
		timer = time.Now()
		fmt.Printf("▶️  Building x%d image\n", size)

		img := resize.Resize(size, 0, heights, resize.MitchellNetravali)
		saveImage(filepath.Join(*outputPtr, fmt.Sprintf("preview_%d.png", size)), img)

		fmt.Printf("✔️  Built x%d in %s\n", size, time.Since(timer).String())
	}

	timer = time.Now()
	fmt.Println("▶️  Building terrarium image")
	terrarium, err := Terrarium(heights, m)
	if err != nil {
		log.Fatal(err)
	}
	saveImage(filepath.Join(*outputPtr, "terrarium.png"), terrarium)
	fmt.Println("✔️  Built terrarium image in", time.Since(timer).String())

	timer = time.Now()
	fmt.Println("▶️  Building splat image")
	weights, err := Layers(*inputPtr, m)
	if err != nil {
		log.Fatal(err)
	}
	saveImage(filepath.Join(*outputPtr, "splat.png"), ScaleTo(Splat(weights), int(sizes[len(sizes)-1])))
	fmt.Println("✔️  Built splat image in", time.Since(timer).String())

	if *tilesPtr {
		buildTiles(heights, *outputPtr)
	}

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

func buildTiles(heights image.Image, outputDirectory string) {
	timer := time.Now()
	fmt.Println("▶️  Building tiles")

	// the pyramid is cut from the largest preview
	img := resize.Resize(sizes[len(sizes)-1], 0, heights, resize.MitchellNetravali)

	maxLod := utils.CalcMaxLod(img)
	fmt.Println("ℹ️  Calculated max lod:", maxLod)

	tilesDirectory := filepath.Join(outputDirectory, "tiles")
	for lod := uint8(0); lod <= maxLod; lod++ {
		timer2 := time.Now()
		if err := utils.BuildTileSet(context.Background(), lod, img, tilesDirectory); err != nil {
			log.Fatal(err)
		}
		fmt.Println("    ✔️  Finished tiles for LOD", lod, "in", time.Since(timer2).String())
	}
	fmt.Println("✔️  Built tiles in", time.Since(timer).String())
}

func saveImage(path string, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Fatal(err)
	}

	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		log.Fatal(err)
	}
}
