package dd

import "math/rand"

// IteratorFunc enumerates the integers in [0, n) in some order. n is
// always bounded by the current granularity, so strategies are
// implemented as plain slice builders rather than goroutine-backed
// generators - the eager and lazy forms are observationally
// equivalent at these sizes, and the eager form is the simpler,
// allocation-light choice for the hot path of a reduction run.
type IteratorFunc func(n int) []int

// Forward returns 0..n-1.
func Forward(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

// Backward returns n-1..0.
func Backward(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}

	return out
}

// Skip returns nothing. Used to skip subset (or, less often,
// complement) checks entirely.
func Skip(_ int) []int {
	return nil
}

// Random returns 0..n-1 in a uniformly random permutation. Seeded
// from the package-level source; reproducibility across runs is not
// guaranteed or required.
func Random(n int) []int {
	out := Forward(n)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}

// IteratorRegistry maps short names to iterator strategies, enabling
// runtime selection (e.g. from a CLI flag) without coupling the
// engine to concrete implementations.
var IteratorRegistry = map[string]IteratorFunc{
	"forward":  Forward,
	"backward": Backward,
	"skip":     Skip,
	"random":   Random,
}
