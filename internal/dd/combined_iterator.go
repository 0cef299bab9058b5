package dd

// CombinedIterator interleaves subset and complement checks into a
// single stream of signed indices over n subsets: a non-negative
// value i means "keep subset i" (test the subset alone), a negative
// value means "remove subset -(i+1)" (test the complement). This
// sign encoding is the only contract between the iterator and the
// engine - it keeps the iterator a plain integer stream and avoids a
// dedicated sum type on every yielded element, which in turn keeps
// parallel dispatch accounting (one slice index per candidate) simple.
type CombinedIterator struct {
	SubsetFirst        bool
	SubsetIterator     IteratorFunc
	ComplementIterator IteratorFunc
}

// NewCombinedIterator builds a CombinedIterator, defaulting both
// sub-iterators to Forward when nil.
func NewCombinedIterator(subsetFirst bool, subsetIter, complementIter IteratorFunc) *CombinedIterator {
	if subsetIter == nil {
		subsetIter = Forward
	}

	if complementIter == nil {
		complementIter = Forward
	}

	return &CombinedIterator{
		SubsetFirst:        subsetFirst,
		SubsetIterator:     subsetIter,
		ComplementIterator: complementIter,
	}
}

// Iterate returns the index of every candidate configuration, in the
// order the engine should test them, for a partition of n subsets.
func (c *CombinedIterator) Iterate(n int) []int {
	subsets := c.SubsetIterator(n)
	complements := c.ComplementIterator(n)

	out := make([]int, 0, len(subsets)+len(complements))

	emitSubsets := func() {
		out = append(out, subsets...)
	}
	emitComplements := func() {
		for _, i := range complements {
			out = append(out, -i-1)
		}
	}

	if c.SubsetFirst {
		emitSubsets()
		emitComplements()
	} else {
		emitComplements()
		emitSubsets()
	}

	return out
}

// DecodeIndex turns a signed iterator value back into (subsetIndex,
// isComplement).
func DecodeIndex(i int) (subsetIndex int, isComplement bool) {
	if i < 0 {
		return -i - 1, true
	}

	return i, false
}
