package dd

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitterRegistryRejectsSmallFactor(t *testing.T) {
	for name, ctor := range SplitterRegistry {
		if _, err := ctor(1); !errors.Is(err, ErrInvalidSplitFactor) {
			t.Errorf("%s: Split(1) err = %v, want ErrInvalidSplitFactor", name, err)
		}
	}
}

func TestZellerSplitMonotonicSizes(t *testing.T) {
	splitter, err := NewZellerSplit(3)
	if err != nil {
		t.Fatal(err)
	}

	subsets := splitter.Split(Subsets{{0, 1, 2, 3, 4, 5, 6}})

	if diff := cmp.Diff(Config{0, 1, 2, 3, 4, 5, 6}, Flatten(subsets)); diff != "" {
		t.Fatalf("split lost atoms (-want +got):\n%s", diff)
	}

	for i := 1; i < len(subsets); i++ {
		if len(subsets[i]) < len(subsets[i-1]) {
			t.Fatalf("zeller chunk sizes not monotonic: %v", subsets)
		}
	}
}

func TestZellerSplitCapsGranularityAtConfigLength(t *testing.T) {
	splitter, err := NewZellerSplit(5)
	if err != nil {
		t.Fatal(err)
	}

	subsets := splitter.Split(Subsets{{0, 1}})
	if len(subsets) != 2 {
		t.Fatalf("granularity = %d, want 2 (bounded by config length)", len(subsets))
	}
}

func TestZellerSplitInfiniteYieldsSingletons(t *testing.T) {
	splitter, err := NewZellerSplit(Infinite)
	if err != nil {
		t.Fatal(err)
	}

	subsets := splitter.Split(Subsets{{0, 1, 2, 3}})

	want := Subsets{{0}, {1}, {2}, {3}}
	if diff := cmp.Diff(want, subsets); diff != "" {
		t.Fatalf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancedSplitChunkSizesDifferByAtMostOne(t *testing.T) {
	splitter, err := NewBalancedSplit(3)
	if err != nil {
		t.Fatal(err)
	}

	subsets := splitter.Split(Subsets{{0, 1, 2, 3, 4, 5, 6}})

	if diff := cmp.Diff(Config{0, 1, 2, 3, 4, 5, 6}, Flatten(subsets)); diff != "" {
		t.Fatalf("split lost atoms (-want +got):\n%s", diff)
	}

	min, max := len(subsets[0]), len(subsets[0])
	for _, s := range subsets {
		if len(s) < min {
			min = len(s)
		}

		if len(s) > max {
			max = len(s)
		}
	}

	if max-min > 1 {
		t.Fatalf("balanced chunk sizes differ by more than one: %v", subsets)
	}
}

func TestBalancedSplitInfiniteYieldsSingletons(t *testing.T) {
	splitter, err := NewBalancedSplit(Infinite)
	if err != nil {
		t.Fatal(err)
	}

	subsets := splitter.Split(Subsets{{0, 1, 2}})

	want := Subsets{{0}, {1}, {2}}
	if diff := cmp.Diff(want, subsets); diff != "" {
		t.Fatalf("Split mismatch (-want +got):\n%s", diff)
	}
}
