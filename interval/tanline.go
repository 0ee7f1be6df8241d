package interval

import (
	"sort"
)

// TanLine is one interval on a sequence, annotated with the unit size and
// score of the tandem repeat or mask it describes.
type TanLine struct {
	// Seq is the 0-based id of the sequence.
	Seq int
	// Start and End delimit the interval [Start, End).
	Start, End int64
	Unit       int
	Score      int
}

// CompareTanLines orders lines by (Seq, Start, End).
func CompareTanLines(a, b TanLine) int {
	switch {
	case a.Seq != b.Seq:
		return cmpInt64(int64(a.Seq), int64(b.Seq))
	case a.Start != b.Start:
		return cmpInt64(a.Start, b.Start)
	}
	return cmpInt64(a.End, b.End)
}

func cmpInt64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// SortCompress stable-sorts s by cmp, then keeps only the first element of
// each run that compares equal.  The result reuses the storage of s.
func SortCompress[T any](s []T, cmp func(a, b T) int) []T {
	sort.SliceStable(s, func(i, j int) bool { return cmp(s[i], s[j]) < 0 })
	if len(s) == 0 {
		return s
	}
	n := 1
	for i := 1; i < len(s); i++ {
		if cmp(s[n-1], s[i]) != 0 {
			s[n] = s[i]
			n++
		}
	}
	return s[:n]
}
