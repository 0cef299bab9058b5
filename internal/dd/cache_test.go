package dd

import (
	"testing"
)

func TestNoCacheNeverHits(t *testing.T) {
	cache := NewNoCache()
	cache.SetTestBuilder(NewConcatTestBuilder([]string{"a", "b"}))
	cache.Add(Config{0}, Fail)

	if _, ok := cache.Lookup(Config{0}); ok {
		t.Fatal("NoCache reported a hit")
	}
}

func TestTrieCacheLookupAndAdd(t *testing.T) {
	cache := NewTrieCache(CacheOptions{})

	if _, ok := cache.Lookup(Config{1, 2, 3}); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	cache.Add(Config{1, 2, 3}, Pass)

	outcome, ok := cache.Lookup(Config{1, 2, 3})
	if !ok || outcome != Pass {
		t.Fatalf("Lookup = (%v, %v), want (Pass, true)", outcome, ok)
	}

	if _, ok := cache.Lookup(Config{1, 2}); ok {
		t.Fatal("prefix of a stored config should not itself be a hit")
	}
}

func TestTrieCacheDoesNotStoreFailByDefault(t *testing.T) {
	cache := NewTrieCache(CacheOptions{})
	cache.Add(Config{1}, Fail)

	if _, ok := cache.Lookup(Config{1}); ok {
		t.Fatal("FAIL was stored without CacheFail set")
	}
}

func TestTrieCacheStoresFailWhenRequested(t *testing.T) {
	cache := NewTrieCache(CacheOptions{CacheFail: true})
	cache.Add(Config{1}, Fail)

	outcome, ok := cache.Lookup(Config{1})
	if !ok || outcome != Fail {
		t.Fatalf("Lookup = (%v, %v), want (Fail, true)", outcome, ok)
	}
}

func TestTrieCacheEvictsLongerEntriesAfterFail(t *testing.T) {
	cache := NewTrieCache(CacheOptions{EvictAfterFail: true})

	cache.Add(Config{1, 2}, Pass)
	cache.Add(Config{1, 2, 3}, Pass)
	cache.Add(Config{1}, Fail)

	if _, ok := cache.Lookup(Config{1, 2}); ok {
		t.Fatal("entry longer than the FAIL should have been evicted")
	}

	if _, ok := cache.Lookup(Config{1, 2, 3}); ok {
		t.Fatal("entry longer than the FAIL should have been evicted")
	}
}

func TestTrieCacheClear(t *testing.T) {
	cache := NewTrieCache(CacheOptions{})
	cache.Add(Config{1}, Pass)
	cache.Clear()

	if _, ok := cache.Lookup(Config{1}); ok {
		t.Fatal("Clear did not empty the cache")
	}
}

func TestContentCacheKeysByArtifactNotConfigShape(t *testing.T) {
	cache := NewContentCache(CacheOptions{})
	cache.SetTestBuilder(NewConcatTestBuilder([]string{"a", "a", "b"}))

	cache.Add(Config{0}, Pass)

	outcome, ok := cache.Lookup(Config{1})
	if !ok || outcome != Pass {
		t.Fatalf("different config index with identical content should hit: got (%v, %v)", outcome, ok)
	}
}

func TestContentCacheEvictAfterFail(t *testing.T) {
	cache := NewContentCache(CacheOptions{EvictAfterFail: true})
	cache.SetTestBuilder(NewConcatTestBuilder([]string{"a", "b", "c"}))

	cache.Add(Config{0, 1, 2}, Pass)
	cache.Add(Config{0}, Fail)

	if _, ok := cache.Lookup(Config{0, 1, 2}); ok {
		t.Fatal("longer cached entry should be evicted after a shorter FAIL")
	}
}

func TestContentHashCacheNeverStoresFail(t *testing.T) {
	cache := NewContentHashCache(CacheOptions{CacheFail: true})
	cache.SetTestBuilder(NewConcatTestBuilder([]string{"a", "b"}))

	cache.Add(Config{0}, Fail)

	if _, ok := cache.Lookup(Config{0}); ok {
		t.Fatal("ContentHashCache must never store FAIL, even with CacheFail set")
	}
}

func TestContentHashCacheStoresPassAndEvicts(t *testing.T) {
	cache := NewContentHashCache(CacheOptions{EvictAfterFail: true})
	cache.SetTestBuilder(NewConcatTestBuilder([]string{"a", "b", "c"}))

	cache.Add(Config{0, 1, 2}, Pass)

	outcome, ok := cache.Lookup(Config{0, 1, 2})
	if !ok || outcome != Pass {
		t.Fatalf("Lookup = (%v, %v), want (Pass, true)", outcome, ok)
	}

	cache.Add(Config{0}, Fail)

	if _, ok := cache.Lookup(Config{0, 1, 2}); ok {
		t.Fatal("longer cached entry should be evicted after a shorter FAIL")
	}
}

func TestSharedCacheSerializesAccess(t *testing.T) {
	cache := NewSharedCache(NewTrieCache(CacheOptions{}))

	done := make(chan struct{})

	for i := 0; i < 50; i++ {
		go func(i int) {
			cache.Add(Config{i}, Pass)
			cache.Lookup(Config{i})
			done <- struct{}{}
		}(i)
	}

	for i := 0; i < 50; i++ {
		<-done
	}

	outcome, ok := cache.Lookup(Config{0})
	if !ok || outcome != Pass {
		t.Fatalf("Lookup = (%v, %v), want (Pass, true)", outcome, ok)
	}
}
