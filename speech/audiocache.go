package speech

import "sync"

// DefaultAudioCacheSize bounds the decoded-audio cache.
const DefaultAudioCacheSize = 50

// AudioCache is a bounded sentence-id → decoded-audio map. Eviction is
// oldest-inserted-first, not access-frequency: pre-fetched sentences are
// consumed shortly after insertion, so FIFO is enough.
type AudioCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*Audio
	order   []string
}

// NewAudioCache creates a cache holding at most max entries.
func NewAudioCache(max int) *AudioCache {
	if max <= 0 {
		max = DefaultAudioCacheSize
	}
	return &AudioCache{
		max:     max,
		entries: make(map[string]*Audio),
	}
}

// Get returns the cached audio for a sentence id, if present.
func (c *AudioCache) Get(sentenceID string) (*Audio, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[sentenceID]
	return a, ok
}

// Put inserts audio for a sentence id, evicting the oldest-inserted entry
// when the cache is full. The capacity check and insert happen under one
// lock so concurrent inserts cannot overshoot the bound.
func (c *AudioCache) Put(sentenceID string, a *Audio) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[sentenceID]; ok {
		c.entries[sentenceID] = a
		return
	}
	for len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[sentenceID] = a
	c.order = append(c.order, sentenceID)
}

// Len returns the number of cached entries.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *AudioCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Audio)
	c.order = nil
}
