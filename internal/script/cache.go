package script

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Cache is a content-addressed store of compiled units keyed by a
// fingerprint of the fragment source. Entries are insert-only for the
// life of an enable cycle; the whole cache is discarded on disable.
type Cache struct {
	engine Engine

	mu    sync.Mutex
	units map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	unit Unit
	err  error
}

// NewCache creates an empty cache backed by engine.
func NewCache(engine Engine) *Cache {
	return &Cache{engine: engine, units: make(map[string]*cacheEntry)}
}

// Fingerprint returns the cache key for a fragment source: the hex SHA-256
// of its text. The same source always maps to the same key.
func Fingerprint(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// GetOrCompile returns the compiled unit for src, compiling at most once
// per fingerprint even under concurrent callers. A failed compilation is
// never retained, so a later call with the same source retries it.
func (c *Cache) GetOrCompile(src string) (Unit, error) {
	key := Fingerprint(src)

	c.mu.Lock()
	entry, ok := c.units[key]
	if !ok {
		entry = &cacheEntry{}
		c.units[key] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.unit, entry.err = c.engine.Compile(src)
		if entry.err != nil {
			c.mu.Lock()
			if c.units[key] == entry {
				delete(c.units, key)
			}
			c.mu.Unlock()
		}
	})
	return entry.unit, entry.err
}

// Len reports the number of cached units.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}
