package texture

import (
	"sync"

	"customtex/internal/host"
	"customtex/internal/pathclass"
	"customtex/internal/scene"
)

// SourceRef is the scene and atlas index a packed host texture belongs to.
type SourceRef struct {
	Scene scene.Key
	Index int
}

// SourceCache remembers which scene atlas each host texture is, so the
// name regex runs once per distinct texture. Misses are cached too.
type SourceCache struct {
	mu      sync.RWMutex
	items   map[host.Texture]cacheEntry
	catalog *scene.Catalog
}

type cacheEntry struct {
	ref SourceRef
	ok  bool
}

func NewSourceCache(catalog *scene.Catalog) *SourceCache {
	return &SourceCache{
		items:   make(map[host.Texture]cacheEntry),
		catalog: catalog,
	}
}

// Resolve returns the atlas reference of tex, or false for textures that
// are not scene atlases of a known scene.
func (c *SourceCache) Resolve(tex host.Texture) (SourceRef, bool) {
	if tex == nil {
		return SourceRef{}, false
	}

	// Fast path: read lock
	c.mu.RLock()
	if e, exists := c.items[tex]; exists {
		c.mu.RUnlock()
		return e.ref, e.ok
	}
	c.mu.RUnlock()

	var e cacheEntry
	if m, ok := pathclass.MatchAtlasTexture(tex.Name()); ok {
		if sc := c.catalog.ToKeyOrInvalid(m.SceneToken); sc.Valid() {
			e = cacheEntry{ref: SourceRef{Scene: sc, Index: m.Index}, ok: true}
		}
	}

	c.mu.Lock()
	if prev, exists := c.items[tex]; exists {
		c.mu.Unlock()
		return prev.ref, prev.ok
	}
	c.items[tex] = e
	c.mu.Unlock()

	return e.ref, e.ok
}

// Len returns the number of cached textures.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Reset forgets every cached texture.
func (c *SourceCache) Reset() {
	c.mu.Lock()
	c.items = make(map[host.Texture]cacheEntry)
	c.mu.Unlock()
}
