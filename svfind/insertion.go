// Package svfind finds structural-variant candidates in pairwise alignments.
//
// Two alignments between the same pair of contigs, with the same
// orientation, whose B intervals abut to within MaxOverhang but whose A
// intervals are separated by a gap of (MinSize, MaxSize) bases, imply that
// the gap on A is an insertion relative to B.  Both alignments must align at
// least MinFlank bases.  For each candidate the B sequence around the
// junction (the terminal sequence) and the A sequence of the insertion are
// reported.
package svfind

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/alntools/alntools/aln"
	"github.com/alntools/alntools/biosimd"
	"github.com/alntools/alntools/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
)

// Insertion is a candidate insertion of A[ABegin, AEnd) relative to B at the
// junction between BMatchBegin and BMatchEnd.
type Insertion struct {
	A            int
	ABegin, AEnd int64

	B                      int
	BMatchBegin, BMatchEnd int64
	Comp                   bool
	LeftFlank, RightFlank  int64

	// TermOffset and TermLen address the terminal sequence of the candidate
	// in the buffer returned by AddTermSeqs.
	TermOffset, TermLen int64
}

// ID returns the identifier "a:aBegin-aEnd_b:bMatchBegin-bMatchEnd".
func (ins *Insertion) ID() string {
	return fmt.Sprintf("%d:%d-%d_%d:%d-%d", ins.A, ins.ABegin, ins.AEnd, ins.B, ins.BMatchBegin, ins.BMatchEnd)
}

func absDiff(a, b int64) int64 {
	if a < b {
		return b - a
	}
	return a - b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// joinGroup appends the candidates of one run of overlaps that share AID and
// BID, sorted by BBegin.
func joinGroup(olaps []aln.Overlap, opts *Opts, out []Insertion) []Insertion {
	for i := range olaps {
		oi := &olaps[i]
		si := oi.Span()
		if si < opts.MinFlank {
			continue
		}
		for j := i + 1; j < len(olaps); j++ {
			oj := &olaps[j]
			if oj.IsComp() != oi.IsComp() {
				continue
			}
			sj := oj.Span()
			if sj < opts.MinFlank {
				continue
			}
			if oj.Path.BBegin < oi.Path.BEnd-opts.MaxOverhang {
				continue
			}
			if oj.Path.BBegin > oi.Path.BEnd+opts.MaxOverhang {
				break
			}
			ins := Insertion{
				A:           oj.AID,
				B:           oj.BID,
				BMatchBegin: oi.Path.BEnd,
				BMatchEnd:   oj.Path.BBegin,
			}
			switch {
			case oj.IsComp() &&
				oi.Path.ABegin > oj.Path.AEnd &&
				oi.Path.ABegin < oj.Path.AEnd+opts.MaxSize &&
				oi.Path.ABegin > oj.Path.AEnd+opts.MinSize:
				ins.ABegin, ins.AEnd = oj.Path.AEnd, oi.Path.ABegin
				ins.Comp = true
				ins.LeftFlank, ins.RightFlank = sj, si
			case !oj.IsComp() &&
				oj.Path.ABegin > oi.Path.AEnd &&
				oj.Path.ABegin < oi.Path.AEnd+opts.MaxSize &&
				oj.Path.ABegin > oi.Path.AEnd+opts.MinSize:
				ins.ABegin, ins.AEnd = oi.Path.AEnd, oj.Path.ABegin
				ins.LeftFlank, ins.RightFlank = si, sj
			default:
				continue
			}
			ins.TermLen = absDiff(ins.BMatchBegin, ins.BMatchEnd) + 2*opts.TermSeqSize
			out = append(out, ins)
		}
	}
	return out
}

// groupStarts returns the start index of each run of overlaps with equal
// (BID, AID), followed by len(olaps).
func groupStarts(olaps []aln.Overlap) []int {
	var starts []int
	for i := range olaps {
		if i == 0 || olaps[i].AID != olaps[i-1].AID || olaps[i].BID != olaps[i-1].BID {
			starts = append(starts, i)
		}
	}
	return append(starts, len(olaps))
}

// FindInsertions joins pairs of overlaps into insertion candidates.  olaps
// must be sorted by aln.Sort.  Groups of overlaps sharing (BID, AID) are
// joined in parallel; the result is in the same order as a sequential join.
func FindInsertions(olaps []aln.Overlap, opts *Opts) ([]Insertion, error) {
	starts := groupStarts(olaps)
	nGroup := len(starts) - 1
	if nGroup == 0 {
		return nil, nil
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > nGroup {
		parallelism = nGroup
	}
	results := make([][]Insertion, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * nGroup) / parallelism
		endIdx := ((jobIdx + 1) * nGroup) / parallelism
		var out []Insertion
		for g := startIdx; g < endIdx; g++ {
			out = joinGroup(olaps[starts[g]:starts[g+1]], opts, out)
		}
		results[jobIdx] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	n := 0
	for _, r := range results {
		n += len(r)
	}
	if n == 0 {
		return nil, nil
	}
	ins := make([]Insertion, 0, n)
	for _, r := range results {
		ins = append(ins, r...)
	}
	return ins, nil
}

// SeqSource returns the bases of contigs, requested in nondecreasing id
// order.  gdb.ContigCursor is a SeqSource.
type SeqSource interface {
	Advance(c int) ([]byte, error)
}

// AddTermSeqs extracts the terminal sequence of each candidate from the B
// contigs in bs, reverse complemented if the candidate is.  It sorts ins by
// B, sets TermOffset of each candidate, and returns the buffer holding all
// terminal sequences.
func AddTermSeqs(ins []Insertion, bs SeqSource, opts *Opts) ([]byte, error) {
	sort.SliceStable(ins, func(i, j int) bool { return ins[i].B < ins[j].B })
	var total int64
	for i := range ins {
		total += ins[i].TermLen
	}
	buf := make([]byte, total)
	var q int64
	for i := range ins {
		in := &ins[i]
		seq, err := bs.Advance(in.B)
		if err != nil {
			return nil, err
		}
		p := min64(in.BMatchBegin, in.BMatchEnd) - opts.TermSeqSize
		l := in.TermLen
		if p < 0 {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("svfind: terminal sequence start %d is negative for %s", p, in.ID()))
		}
		if p+l > int64(len(seq)) {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("svfind: terminal sequence start %d + length %d exceeds length %d of contig %d",
				p, l, len(seq), in.B))
		}
		dst := buf[q : q+l]
		copy(dst, seq[p:p+l])
		if in.Comp {
			biosimd.ReverseComp8Inplace(dst)
		}
		in.TermOffset = q
		q += l
	}
	return buf, nil
}

// compareByA orders candidates by (A, ABegin, AEnd).
func compareByA(x, y Insertion) int {
	switch {
	case x.A != y.A:
		if x.A < y.A {
			return -1
		}
		return 1
	case x.ABegin != y.ABegin:
		if x.ABegin < y.ABegin {
			return -1
		}
		return 1
	case x.AEnd != y.AEnd:
		if x.AEnd < y.AEnd {
			return -1
		}
		return 1
	}
	return 0
}

// Dedup sorts candidates by (A, ABegin, AEnd) and keeps the first of each
// run with equal keys.
func Dedup(ins []Insertion) []Insertion {
	return interval.SortCompress(ins, compareByA)
}
