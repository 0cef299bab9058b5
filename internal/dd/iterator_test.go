package dd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestForwardBackward(t *testing.T) {
	if diff := cmp.Diff([]int{0, 1, 2, 3}, Forward(4)); diff != "" {
		t.Fatalf("Forward mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]int{3, 2, 1, 0}, Backward(4)); diff != "" {
		t.Fatalf("Backward mismatch (-want +got):\n%s", diff)
	}
}

func TestSkip(t *testing.T) {
	if got := Skip(5); got != nil {
		t.Fatalf("Skip(5) = %v, want nil", got)
	}
}

func TestRandomIsPermutation(t *testing.T) {
	got := Random(6)

	want := Forward(6)
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b int) bool { return a < b })); diff != "" {
		t.Fatalf("Random(6) is not a permutation of 0..5 (-want +got):\n%s", diff)
	}
}

func TestIteratorRegistryCoversNames(t *testing.T) {
	for _, name := range []string{"forward", "backward", "skip", "random"} {
		if _, ok := IteratorRegistry[name]; !ok {
			t.Errorf("IteratorRegistry missing %q", name)
		}
	}
}

func TestCombinedIteratorSubsetFirst(t *testing.T) {
	it := NewCombinedIterator(true, Forward, Forward)

	got := it.Iterate(3)
	want := []int{0, 1, 2, -1, -2, -3}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Iterate mismatch (-want +got):\n%s", diff)
	}
}

func TestCombinedIteratorComplementFirst(t *testing.T) {
	it := NewCombinedIterator(false, Forward, Forward)

	got := it.Iterate(3)
	want := []int{-1, -2, -3, 0, 1, 2}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Iterate mismatch (-want +got):\n%s", diff)
	}
}

func TestCombinedIteratorDefaultsToForward(t *testing.T) {
	it := NewCombinedIterator(true, nil, nil)

	got := it.Iterate(2)
	want := []int{0, 1, -1, -2}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Iterate mismatch (-want +got):\n%s", diff)
	}
}

func TestCombinedIteratorSkipComplements(t *testing.T) {
	it := NewCombinedIterator(true, Forward, Skip)

	got := it.Iterate(3)
	want := []int{0, 1, 2}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Iterate mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeIndex(t *testing.T) {
	cases := []struct {
		in               int
		wantIdx          int
		wantIsComplement bool
	}{
		{0, 0, false},
		{2, 2, false},
		{-1, 0, true},
		{-3, 2, true},
	}

	for _, c := range cases {
		idx, isComplement := DecodeIndex(c.in)
		if idx != c.wantIdx || isComplement != c.wantIsComplement {
			t.Errorf("DecodeIndex(%d) = (%d, %v), want (%d, %v)", c.in, idx, isComplement, c.wantIdx, c.wantIsComplement)
		}
	}
}
