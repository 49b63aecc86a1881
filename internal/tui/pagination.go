package tui

// Ellipsis marks a gap in the output of VisiblePages.
const Ellipsis = 0

// VisiblePages returns the page numbers to render for a pager. Up to seven
// pages are listed in full; beyond that the first and last page stay visible
// and the rest collapses around the current page.
func VisiblePages(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= 7 {
		return pageRange(1, total)
	}
	if current <= 4 {
		return append(pageRange(1, 5), Ellipsis, total)
	}
	if current >= total-3 {
		return append([]int{1, Ellipsis}, pageRange(total-4, total)...)
	}
	return []int{1, Ellipsis, current - 1, current, current + 1, Ellipsis, total}
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, p)
	}
	return out
}
