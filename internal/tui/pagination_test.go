package tui

import (
	"slices"
	"testing"
)

func TestVisiblePages(t *testing.T) {
	e := Ellipsis
	cases := []struct {
		current, total int
		want           []int
	}{
		{1, 0, nil},
		{1, 1, []int{1}},
		{3, 7, []int{1, 2, 3, 4, 5, 6, 7}},
		{1, 10, []int{1, 2, 3, 4, 5, e, 10}},
		{4, 10, []int{1, 2, 3, 4, 5, e, 10}},
		{5, 10, []int{1, e, 4, 5, 6, e, 10}},
		{7, 10, []int{1, e, 6, 7, 8, 9, 10}},
		{10, 10, []int{1, e, 6, 7, 8, 9, 10}},
	}

	for _, tc := range cases {
		if got := VisiblePages(tc.current, tc.total); !slices.Equal(got, tc.want) {
			t.Errorf("VisiblePages(%d, %d) = %v, want %v", tc.current, tc.total, got, tc.want)
		}
	}
}
