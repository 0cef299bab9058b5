package dd

import "strings"

// Config is an ordered sequence of atom indices into the original
// input. It is strictly increasing and never contains duplicates
// while reduction is in progress; the engine treats it as the logical
// (by-value) argument passed to a [Tester].
type Config []int

// Clone returns an independent copy of c. Workers must never hold a
// reference into the engine's owned partition; every candidate is
// cloned before it is handed to a goroutine.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	copy(out, c)

	return out
}

// Subsets is a config partitioned into an ordered list of non-empty
// chunks whose concatenation, in order, equals the config. Its length
// is the current granularity.
type Subsets []Config

// Flatten concatenates subsets back into a single config, preserving
// order.
func Flatten(subsets Subsets) Config {
	n := 0
	for _, s := range subsets {
		n += len(s)
	}

	out := make(Config, 0, n)
	for _, s := range subsets {
		out = append(out, s...)
	}

	return out
}

// WithoutSubset returns the config obtained by concatenating every
// subset except the one at index k (the complement of subsets[k]).
func WithoutSubset(subsets Subsets, k int) Config {
	n := 0

	for i, s := range subsets {
		if i != k {
			n += len(s)
		}
	}

	out := make(Config, 0, n)

	for i, s := range subsets {
		if i != k {
			out = append(out, s...)
		}
	}

	return out
}

// ConfigID is an ordered tuple of short tags used only for naming and
// debugging, e.g. ("i0", "r2", "s1") or ("i0", "r2", "assert"). The
// core never interprets it semantically except to detect the
// "assert" tag, which suppresses cache writes.
type ConfigID []string

// IsAssert reports whether id carries the debug re-verification tag.
func (id ConfigID) IsAssert() bool {
	for _, tag := range id {
		if tag == "assert" {
			return true
		}
	}

	return false
}

// String renders the id as slash-separated tags, matching the
// "rN / sM" style debug identifiers of the reference implementation
// this engine is modeled on.
func (id ConfigID) String() string {
	return strings.Join(id, " / ")
}

// JoinUnderscore renders the id as underscore-joined tags, the
// convention used to name per-test working directories.
func (id ConfigID) JoinUnderscore() string {
	return strings.Join(id, "_")
}
