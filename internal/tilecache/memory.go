package tilecache

import (
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/gruppe-adler/landscape-utils/internal/tilesource"
)

// Memory is an in-process LRU of raw tile bytes, shared by all jobs of a process
type Memory struct {
	cache *ccache.Cache[[]byte]
	ttl   time.Duration
}

// NewMemory creates a memory cache holding up to maxTiles tiles for ttl each
func NewMemory(maxTiles int64, ttl time.Duration) *Memory {
	if maxTiles <= 0 {
		maxTiles = 256
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Memory{
		cache: ccache.New(ccache.Configure[[]byte]().MaxSize(maxTiles)),
		ttl:   ttl,
	}
}

// Load implements Cache
func (m *Memory) Load(key tilesource.TileKey) ([]byte, bool) {
	item := m.cache.Get(key.String())
	if item == nil || item.Expired() {
		return nil, false
	}

	return item.Value(), true
}

// Store implements Cache
func (m *Memory) Store(key tilesource.TileKey, data []byte) bool {
	m.cache.Set(key.String(), data, m.ttl)
	return true
}

// Close stops the cache's background worker
func (m *Memory) Close() {
	m.cache.Stop()
}
