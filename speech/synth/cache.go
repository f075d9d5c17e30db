package synth

import "sync"

// memoCache is the bounded synthesis memo: key → audio bytes with
// oldest-inserted-first eviction. The capacity check and insert share one
// critical section so concurrent misses cannot overshoot the bound.
type memoCache struct {
	mu      sync.Mutex
	max     int
	entries map[string][]byte
	order   []string
}

func newMemoCache(max int) *memoCache {
	return &memoCache{
		max:     max,
		entries: make(map[string][]byte),
	}
}

func (c *memoCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *memoCache) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = data
		return
	}
	for len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = data
	c.order = append(c.order, key)
}

func (c *memoCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
