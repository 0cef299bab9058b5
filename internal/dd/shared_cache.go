package dd

import "sync"

// SharedCache wraps an OutcomeCache with a mutex so multiple worker
// goroutines in the parallel engine can safely share one cache
// instance instead of each keeping a private, incoherent copy.
type SharedCache struct {
	mu    sync.Mutex
	cache OutcomeCache
}

// NewSharedCache wraps cache for concurrent use.
func NewSharedCache(cache OutcomeCache) *SharedCache {
	return &SharedCache{cache: cache}
}

func (s *SharedCache) SetTestBuilder(tb TestBuilder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.SetTestBuilder(tb)
}

func (s *SharedCache) Lookup(config Config) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Lookup(config)
}

func (s *SharedCache) Add(config Config, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(config, outcome)
}

func (s *SharedCache) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
}
