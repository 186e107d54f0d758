package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"hamusic/internal/core"
)

// VideoCache is a thread-safe cache of resolved video metadata keyed by video
// id. A Bloom filter fronts the LRU so that lookups for ids we have never
// resolved stay cheap.
type VideoCache struct {
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, *core.ResolvedVideo]
	mutex             sync.RWMutex
	capacity          int
	falsePositiveRate float64
}

// NewVideoCache creates a cache holding up to capacity resolved videos.
func NewVideoCache(capacity int, falsePositiveRate float64) *VideoCache {
	lruCache, _ := lru.New[string, *core.ResolvedVideo](capacity)

	if capacity < 0 || capacity > int(^uint(0)>>1) {
		panic("capacity value out of range for uint conversion")
	}

	return &VideoCache{
		bloom:             bloom.NewWithEstimates(uint(capacity), falsePositiveRate),
		lru:               lruCache,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
	}
}

// Get returns the cached metadata for a video id, if present.
func (c *VideoCache) Get(videoID string) (*core.ResolvedVideo, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.bloom.TestString(videoID) {
		return nil, false
	}
	return c.lru.Get(videoID)
}

// Add stores resolved metadata under its video id.
func (c *VideoCache) Add(video *core.ResolvedVideo) {
	if video == nil || video.YouTubeID == "" {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.bloom.AddString(video.YouTubeID)
	c.lru.Add(video.YouTubeID, video)
}

// Len returns the number of cached entries.
func (c *VideoCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lru.Len()
}

// Clear drops all cached entries.
func (c *VideoCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lru.Purge()
	// Bloom filters do not support removal; rebuild instead.
	c.bloom = bloom.NewWithEstimates(uint(c.capacity), c.falsePositiveRate)
}
