package speech

import (
	"fmt"
	"testing"
)

// TestAudioCacheBound tests that inserting one past capacity evicts the
// oldest entry and never overshoots the bound.
func TestAudioCacheBound(t *testing.T) {
	const max = 5
	c := NewAudioCache(max)

	for i := 0; i < max+1; i++ {
		c.Put(fmt.Sprintf("s%d", i), &Audio{})
	}

	if c.Len() != max {
		t.Errorf("Len() = %d, want %d", c.Len(), max)
	}
	if _, ok := c.Get("s0"); ok {
		t.Error("oldest entry s0 should have been evicted")
	}
	if _, ok := c.Get("s1"); !ok {
		t.Error("s1 should survive a single eviction")
	}
	if _, ok := c.Get(fmt.Sprintf("s%d", max)); !ok {
		t.Error("newest entry should be present")
	}
}

// TestAudioCacheReplaceKeepsPosition tests that re-inserting a key does
// not refresh its eviction slot.
func TestAudioCacheReplaceKeepsPosition(t *testing.T) {
	c := NewAudioCache(2)
	first := &Audio{SampleRate: 1}
	second := &Audio{SampleRate: 2}

	c.Put("a", first)
	c.Put("b", &Audio{})
	c.Put("a", second)

	a, ok := c.Get("a")
	if !ok || a.SampleRate != 2 {
		t.Fatal("replacement value should be returned")
	}

	// "a" is still oldest, so the next insert evicts it.
	c.Put("c", &Audio{})
	if _, ok := c.Get("a"); ok {
		t.Error("replaced entry should keep its original eviction position")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should still be cached")
	}
}

// TestAudioCacheClear tests Clear drops everything.
func TestAudioCacheClear(t *testing.T) {
	c := NewAudioCache(3)
	c.Put("a", &Audio{})
	c.Put("b", &Audio{})
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared entry should be gone")
	}
	c.Put("c", &Audio{})
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

// TestAudioCacheDefaultSize tests the fallback capacity.
func TestAudioCacheDefaultSize(t *testing.T) {
	c := NewAudioCache(0)
	for i := 0; i < DefaultAudioCacheSize+10; i++ {
		c.Put(fmt.Sprintf("s%d", i), &Audio{})
	}
	if c.Len() != DefaultAudioCacheSize {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultAudioCacheSize)
	}
}
