package dd

// Infinite, passed as the split factor, means "split directly into
// singletons" regardless of the current granularity.
const Infinite = 0

// Splitter refines the current partition of a config into a finer
// one. Implementations are parameterized by a split factor n (the
// number of pieces to aim for relative to the current granularity);
// n may be [Infinite].
type Splitter interface {
	Split(subsets Subsets) Subsets
}

// SplitterConstructor builds a Splitter for a given split factor n.
type SplitterConstructor func(n int) (Splitter, error)

// SplitterRegistry maps short names to splitter constructors.
var SplitterRegistry = map[string]SplitterConstructor{
	"zeller":   NewZellerSplit,
	"balanced": NewBalancedSplit,
}

// ZellerSplit reproduces Zeller's original reference splitting
// approach: flatten the partition, then iteratively slice off
// 1/(m-i)-th of the remaining atoms for i = 0..m-1, so chunk sizes are
// monotonically non-decreasing.
type ZellerSplit struct {
	n int
}

// NewZellerSplit builds a ZellerSplit with split factor n ([Infinite]
// or n >= 2).
func NewZellerSplit(n int) (Splitter, error) {
	if n != Infinite && n < 2 {
		return nil, ErrInvalidSplitFactor
	}

	return &ZellerSplit{n: n}, nil
}

func (s *ZellerSplit) Split(subsets Subsets) Subsets {
	config := Flatten(subsets)
	length := len(config)
	m := length

	if s.n != Infinite {
		m = minInt(length, len(subsets)*s.n)
	}

	next := make(Subsets, 0, m)
	start := 0

	for i := range m {
		stop := start + (length-start)/(m-i)
		next = append(next, config[start:stop])
		start = stop
	}

	return next
}

// BalancedSplit is Zeller's split with the integer-division residuals
// distributed across all chunks, so chunk sizes are not monotonous
// but differ by at most one atom.
type BalancedSplit struct {
	n int
}

// NewBalancedSplit builds a BalancedSplit with split factor n
// ([Infinite] or n >= 2).
func NewBalancedSplit(n int) (Splitter, error) {
	if n != Infinite && n < 2 {
		return nil, ErrInvalidSplitFactor
	}

	return &BalancedSplit{n: n}, nil
}

func (s *BalancedSplit) Split(subsets Subsets) Subsets {
	config := Flatten(subsets)
	length := len(config)
	m := length

	if s.n != Infinite {
		m = minInt(length, len(subsets)*s.n)
	}

	next := make(Subsets, m)
	for i := range m {
		next[i] = config[length*i/m : length*(i+1)/m]
	}

	return next
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
