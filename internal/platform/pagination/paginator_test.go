package pagination

import (
	"slices"
	"testing"
)

func makeItems(n int) []int {
	items := make([]int, n)
	for i := range n {
		items[i] = i
	}
	return items
}

func TestSlice_FirstPage(t *testing.T) {
	got := Slice(makeItems(10), Params{Offset: 0, Limit: 3})
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Fatalf("unexpected page: %v", got)
	}
}

func TestSlice_MiddlePage(t *testing.T) {
	got := Slice(makeItems(10), Params{Offset: 3, Limit: 3})
	if !slices.Equal(got, []int{3, 4, 5}) {
		t.Fatalf("unexpected page: %v", got)
	}
}

func TestSlice_LastPartialPage(t *testing.T) {
	got := Slice(makeItems(5), Params{Offset: 3, Limit: 3})
	if !slices.Equal(got, []int{3, 4}) {
		t.Fatalf("unexpected page: %v", got)
	}
}

func TestSlice_OffsetPastEnd(t *testing.T) {
	got := Slice(makeItems(5), Params{Offset: 50, Limit: 3})
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %v", got)
	}
}

func TestSlice_NoLimit(t *testing.T) {
	got := Slice(makeItems(4), Params{Offset: 1})
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("unexpected page: %v", got)
	}
}

func TestSlice_Empty(t *testing.T) {
	got := Slice([]int{}, Params{Limit: 10})
	if len(got) != 0 {
		t.Fatalf("expected 0 items, got %d", len(got))
	}
}
