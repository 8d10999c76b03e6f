package tilecache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
	"github.com/gruppe-adler/landscape-utils/internal/utils"
)

// Cache stores raw tile bytes. Loaded bytes are not validated, callers have
// to decode them before use. Storing is best effort.
type Cache interface {
	Load(key tilesource.TileKey) ([]byte, bool)
	Store(key tilesource.TileKey, data []byte) bool
}

// DefaultDirectory is the cache directory used if none is configured
func DefaultDirectory() string {
	return filepath.Join(os.TempDir(), "ElevationCache")
}

// Disk keeps one file per tile in a directory. Entries never expire.
type Disk struct {
	dir       string
	extension string
	logger    *slog.Logger
}

// NewDisk creates a disk cache in dir for files with the given extension
func NewDisk(dir string, extension string, logger *slog.Logger) *Disk {
	if dir == "" {
		dir = DefaultDirectory()
	}
	if extension == "" {
		extension = "png"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Disk{dir: dir, extension: extension, logger: logger}
}

// Path returns the file path of the given tile
func (d *Disk) Path(key tilesource.TileKey) string {
	return filepath.Join(d.dir, fmt.Sprintf("elevation_%d_%d_%d.%s", key.Zoom, key.X, key.Y, d.extension))
}

// Load reads the cached file of the given tile
func (d *Disk) Load(key tilesource.TileKey) ([]byte, bool) {
	data, err := os.ReadFile(d.Path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Debug("reading cached tile failed", "tile", key.String(), "error", err)
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	return data, true
}

// Store writes the given tile bytes to the cache directory
func (d *Disk) Store(key tilesource.TileKey, data []byte) bool {
	path := d.Path(key)
	if err := utils.WriteFileAtomic(path, data); err != nil {
		d.logger.Warn("writing tile to cache failed", "tile", key.String(), "path", path, "error", err)
		return false
	}

	return true
}

// Layered looks tiles up in front first and falls back to back. Hits in back
// are copied to front.
type Layered struct {
	front Cache
	back  Cache
}

// NewLayered creates a two level cache
func NewLayered(front, back Cache) *Layered {
	return &Layered{front: front, back: back}
}

// Load implements Cache
func (l *Layered) Load(key tilesource.TileKey) ([]byte, bool) {
	if data, ok := l.front.Load(key); ok {
		return data, true
	}

	data, ok := l.back.Load(key)
	if !ok {
		return nil, false
	}

	l.front.Store(key, data)
	return data, true
}

// Store implements Cache. It succeeds if the back cache stored the data.
func (l *Layered) Store(key tilesource.TileKey, data []byte) bool {
	l.front.Store(key, data)
	return l.back.Store(key, data)
}

// Nop never stores anything
type Nop struct{}

// Load implements Cache
func (Nop) Load(tilesource.TileKey) ([]byte, bool) { return nil, false }

// Store implements Cache
func (Nop) Store(tilesource.TileKey, []byte) bool { return false }
