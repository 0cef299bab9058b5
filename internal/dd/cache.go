package dd

// TestBuilder materializes the atoms referenced by a config into a
// single artifact (typically a concatenation of the underlying
// chars/lines). Content-keyed caches need one to turn a Config into a
// comparable key; the sequential and parallel engines pass the same
// builder used by the Tester to SetTestBuilder.
type TestBuilder interface {
	Build(config Config) string
}

// TestBuilderFunc adapts a plain function to a TestBuilder.
type TestBuilderFunc func(config Config) string

func (f TestBuilderFunc) Build(config Config) string { return f(config) }

// OutcomeCache maps configs to previously observed outcomes so the
// engine never re-runs a test it already has the answer to.
type OutcomeCache interface {
	// Lookup returns the cached outcome for config and true, or
	// (Pass, false) if config is not in the cache (the bool is the
	// "absent" signal; Pass is an arbitrary zero value and must be
	// ignored when ok is false).
	Lookup(config Config) (outcome Outcome, ok bool)

	// Add records config's outcome, subject to the cache's own
	// cache-fail and evict-after-fail policy.
	Add(config Config, outcome Outcome)

	// Clear empties the cache.
	Clear()

	// SetTestBuilder installs the builder content-keyed caches use to
	// turn a config into its cache key. A no-op for caches that key by
	// config shape directly.
	SetTestBuilder(tb TestBuilder)
}

// CacheOptions configures the cache-fail / evict-after-fail policy
// shared by every strategy (see spec §4.4).
type CacheOptions struct {
	// CacheFail stores FAIL outcomes in the cache, not just PASS ones.
	CacheFail bool

	// EvictAfterFail drops every cached entry whose config/artifact is
	// longer than the FAIL just added: once a failing config of size L
	// is found, reduction continues strictly within sizes <= L, so
	// larger cached entries are unreachable.
	EvictAfterFail bool
}

// CacheConstructor builds an OutcomeCache from the given options.
type CacheConstructor func(opts CacheOptions) OutcomeCache

// CacheRegistry maps short names to cache constructors.
var CacheRegistry = map[string]CacheConstructor{
	"none":         func(CacheOptions) OutcomeCache { return NewNoCache() },
	"config":       func(opts CacheOptions) OutcomeCache { return NewTrieCache(opts) },
	"content":      func(opts CacheOptions) OutcomeCache { return NewContentCache(opts) },
	"content-hash": func(opts CacheOptions) OutcomeCache { return NewContentHashCache(opts) },
}

// NoCache never stores anything, so no lookup can ever hit.
type NoCache struct{}

// NewNoCache builds a disabled cache.
func NewNoCache() *NoCache { return &NoCache{} }

func (*NoCache) Lookup(Config) (Outcome, bool) { return Pass, false }
func (*NoCache) Add(Config, Outcome)           {}
func (*NoCache) Clear()                        {}
func (*NoCache) SetTestBuilder(TestBuilder)    {}
