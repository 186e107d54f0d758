package store

import (
	"testing"

	"hamusic/internal/core"
)

func TestVideoCache_AddGet(t *testing.T) {
	cache := NewVideoCache(10, 0.001)

	if _, ok := cache.Get("dQw4w9WgXcQ"); ok {
		t.Errorf("Get() ok = true on empty cache")
	}

	video := &core.ResolvedVideo{YouTubeID: "dQw4w9WgXcQ", Title: "Song"}
	cache.Add(video)

	got, ok := cache.Get("dQw4w9WgXcQ")
	if !ok {
		t.Fatalf("Get() ok = false after Add")
	}
	if got.Title != "Song" {
		t.Errorf("Get() Title = %q, want %q", got.Title, "Song")
	}
}

func TestVideoCache_IgnoresEmptyID(t *testing.T) {
	cache := NewVideoCache(10, 0.001)

	cache.Add(nil)
	cache.Add(&core.ResolvedVideo{Title: "no id"})

	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestVideoCache_EvictsBeyondCapacity(t *testing.T) {
	cache := NewVideoCache(2, 0.001)

	cache.Add(&core.ResolvedVideo{YouTubeID: "aaaaaaaaaaa"})
	cache.Add(&core.ResolvedVideo{YouTubeID: "bbbbbbbbbbb"})
	cache.Add(&core.ResolvedVideo{YouTubeID: "ccccccccccc"})

	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("aaaaaaaaaaa"); ok {
		t.Errorf("Get() oldest entry still cached after eviction")
	}
}

func TestVideoCache_Clear(t *testing.T) {
	cache := NewVideoCache(10, 0.001)
	cache.Add(&core.ResolvedVideo{YouTubeID: "dQw4w9WgXcQ"})

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", cache.Len())
	}
	if _, ok := cache.Get("dQw4w9WgXcQ"); ok {
		t.Errorf("Get() ok = true after Clear")
	}
}
