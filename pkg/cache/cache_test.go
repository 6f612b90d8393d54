package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sandrolain/gosmt/pkg/cache"
)

func TestCacheNew(t *testing.T) {
	c := cache.New[string, int](10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New[string, int](0)
	if got := c.Capacity(); got != cache.DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", cache.DefaultCapacity, got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New[uint32, string](4)
	c.Set(7, "(f #0)")
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get(7)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "(f #0)" {
		t.Fatalf("expected stored value, got %q", got)
	}
	if _, ok := c.Get(8); ok {
		t.Fatal("expected cache miss")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New[string, int](3)
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, i)
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal(`expected "a" to be evicted (LRU)`)
	}
	if _, ok := c.Get("d"); !ok {
		t.Fatal(`expected most-recently-inserted "d" to survive`)
	}
}

func TestCacheGetPromotes(t *testing.T) {
	c := cache.New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal(`expected "b" to be evicted after "a" was read`)
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal(`expected "a" to survive`)
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New[string, int](4)
	c.Set("k", 1)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}
	for i, k := range []string{"a", "b", "c"} {
		c.Set(k, i)
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected 0 after Clear, got %d", got)
	}
}

func TestCacheGetOrCompute(t *testing.T) {
	c := cache.New[int, string](4)
	calls := 0
	compute := func() (string, error) {
		calls++
		return "value", nil
	}

	for range 3 {
		v, err := c.GetOrCompute(1, compute)
		if err != nil || v != "value" {
			t.Fatalf("GetOrCompute: %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 compute call, got %d", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrCompute(2, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if _, ok := c.Get(2); ok {
		t.Fatal("errors must not be cached")
	}
}

func TestCacheSetUpdate(t *testing.T) {
	c := cache.New[string, int](4)
	c.Set("k", 1)
	c.Set("k", 2)
	got, ok := c.Get("k")
	if !ok || got != 2 {
		t.Fatalf("expected updated value 2, got %d (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := cache.New[int, string](64)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				k := (g*31 + i) % 100
				_, _ = c.GetOrCompute(k, func() (string, error) { return fmt.Sprint(k), nil })
			}
		}()
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Fatalf("cache exceeded capacity: %d", c.Len())
	}
}
