// Package scroll computes viewport offsets.
package scroll

// Window is a viewport of Height rows at Offset into Total rows of content.
type Window struct {
	Offset int
	Height int
	Total  int
}

// margin is the number of rows kept between a revealed span and the
// window edge, a fifth of the height but at least one.
func (w Window) margin() int {
	return max(w.Height/5, 1)
}

func (w Window) maxOffset() int {
	return max(w.Total-min(w.Height, w.Total), 0)
}

// Reveal returns the offset that brings rows [start,end] into view with a
// margin on both sides where the content allows it. A span that is already
// inside the margins leaves the offset unchanged.
func (w Window) Reveal(start, end int) int {
	if w.Height <= 0 || w.Total <= 0 {
		return 0
	}
	start = max(start, 0)
	end = min(max(end, start), w.Total-1)
	hi := w.maxOffset()
	h := min(w.Height, w.Total)
	off := clamp(w.Offset, 0, hi)
	m := w.margin()

	if start >= off+m && end <= off+h-1-m {
		return off
	}
	// prefer the span near the top; push down only if its end would be cut
	next := clamp(start-m, 0, hi)
	if need := end - h + 1 + m; next < need {
		next = clamp(need, 0, hi)
	}
	return next
}

// Reveal is Window{off, h, total}.Reveal(start, end).
func Reveal(start, end, off, h, total int) int {
	return Window{Offset: off, Height: h, Total: total}.Reveal(start, end)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
