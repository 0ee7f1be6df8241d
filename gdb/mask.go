package gdb

import (
	"sort"

	"github.com/alntools/alntools/interval"
)

// ReplaceMasks discards all masks and installs the given intervals, which
// are in sequence coordinates.  Each interval is sorted into place, clipped
// to the contigs it overlaps and translated to contig coordinates; parts
// falling in gaps are dropped.  Identical intervals are collapsed.  The
// intervals must lie within their sequences, as ReadTanBED ensures.
func (g *GDB) ReplaceMasks(lines []interval.TanLine) {
	lines = interval.SortCompress(lines, interval.CompareTanLines)
	perCtg := make([][]int64, len(g.ctgLen))
	for _, l := range lines {
		begin, end := g.SeqContigs(l.Seq)
		// First contig ending after l.Start.
		c := begin + sort.Search(end-begin, func(i int) bool {
			return g.ctgPos[begin+i]+g.ctgLen[begin+i] > l.Start
		})
		for ; c < end && g.ctgPos[c] < l.End; c++ {
			s, e := l.Start-g.ctgPos[c], l.End-g.ctgPos[c]
			if s < 0 {
				s = 0
			}
			if e > g.ctgLen[c] {
				e = g.ctgLen[c]
			}
			if s < e {
				perCtg[c] = append(perCtg[c], s, e)
			}
		}
	}
	g.mask = g.mask[:0]
	g.totMask = 0
	for c, m := range perCtg {
		g.ctgMask[c] = maskView{start: len(g.mask), count: len(m)}
		g.mask = append(g.mask, m...)
		for i := 0; i < len(m); i += 2 {
			g.totMask += m[i+1] - m[i]
		}
	}
}
