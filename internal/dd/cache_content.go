package dd

// ContentCache associates materialized test artifacts (built from
// configs via a [TestBuilder]) with their outcome, rather than the
// configs themselves - two different index sequences that render to
// the same artifact share a cache entry.
type ContentCache struct {
	opts    CacheOptions
	builder TestBuilder
	entries map[string]Outcome
}

// NewContentCache builds a content-keyed cache. SetTestBuilder must
// be called before first use.
func NewContentCache(opts CacheOptions) *ContentCache {
	return &ContentCache{opts: opts, entries: make(map[string]Outcome)}
}

func (c *ContentCache) SetTestBuilder(tb TestBuilder) {
	c.builder = tb
}

func (c *ContentCache) Lookup(config Config) (Outcome, bool) {
	outcome, ok := c.entries[c.builder.Build(config)]
	return outcome, ok
}

func (c *ContentCache) Add(config Config, outcome Outcome) {
	if outcome == Fail && !c.opts.CacheFail && !c.opts.EvictAfterFail {
		return
	}

	content := c.builder.Build(config)

	if outcome == Pass || c.opts.CacheFail {
		c.entries[content] = outcome
	}

	if outcome == Fail && c.opts.EvictAfterFail {
		length := len(content)
		for k := range c.entries {
			if len(k) > length {
				delete(c.entries, k)
			}
		}
	}
}

func (c *ContentCache) Clear() {
	c.entries = make(map[string]Outcome)
}
