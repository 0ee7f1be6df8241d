// Package aln holds pairwise alignment overlaps read from aln files: their
// representation, symmetry transform, total order, and loading from a record
// stream together with the embedded genome position indexes.
package aln

import (
	"fmt"
	"sort"

	"github.com/alntools/alntools/encoding/onecode"
	"github.com/grailbio/base/errors"
)

// Flags holds per-overlap flag bits.
type Flags uint32

// Comp is set if the B sequence is reverse-complemented relative to A.
const Comp Flags = 0x1

// Path is the extent of an alignment on both sequences.  Begins are
// inclusive and ends exclusive, 0-based, in contig coordinates.
type Path struct {
	ABegin, AEnd int64
	BBegin, BEnd int64
	Diffs        int64
}

// Overlap is one local alignment between contig AID and contig BID.
type Overlap struct {
	AID, BID int
	Path     Path
	Flags    Flags
}

// IsComp returns true if B is reverse-complemented.
func (o *Overlap) IsComp() bool { return o.Flags&Comp != 0 }

// Span returns the aligned length: the smaller of the A and B extents.
func (o *Overlap) Span() int64 {
	a, b := o.Path.AEnd-o.Path.ABegin, o.Path.BEnd-o.Path.BBegin
	if a < b {
		return a
	}
	return b
}

// Flip returns o with the roles of A and B exchanged.  Flags and diffs are
// unchanged.  Flip(Flip(o)) == o.
func Flip(o Overlap) Overlap {
	return Overlap{
		AID: o.BID,
		BID: o.AID,
		Path: Path{
			ABegin: o.Path.BBegin,
			AEnd:   o.Path.BEnd,
			BBegin: o.Path.ABegin,
			BEnd:   o.Path.AEnd,
			Diffs:  o.Path.Diffs,
		},
		Flags: o.Flags,
	}
}

// FlipAll flips every overlap in place.
func FlipAll(olaps []Overlap) {
	for i := range olaps {
		olaps[i] = Flip(olaps[i])
	}
}

// DoubleForSelfAlignment appends a flipped copy of every overlap, so that a
// self-alignment holds both directions of each match.
func DoubleForSelfAlignment(olaps []Overlap) []Overlap {
	n := len(olaps)
	if cap(olaps) < 2*n {
		grown := make([]Overlap, n, 2*n)
		copy(grown, olaps)
		olaps = grown
	}
	for i := 0; i < n; i++ {
		olaps = append(olaps, Flip(olaps[i]))
	}
	return olaps
}

// Less orders overlaps by (BID, AID, BBegin).
func Less(x, y *Overlap) bool {
	if x.BID != y.BID {
		return x.BID < y.BID
	}
	if x.AID != y.AID {
		return x.AID < y.AID
	}
	return x.Path.BBegin < y.Path.BBegin
}

// Sort sorts overlaps by (BID, AID, BBegin).  The sort is stable, so the
// result is fully determined by the input order.
func Sort(olaps []Overlap) {
	sort.SliceStable(olaps, func(i, j int) bool { return Less(&olaps[i], &olaps[j]) })
}

func formatErr(r *onecode.Reader, l *onecode.Line, msg string) error {
	return errors.E(errors.Invalid, fmt.Sprintf("aln: %s line %d: %s", r.Name(), l.Number, msg))
}

// current returns the current line of r, scanning the first line if r has not
// been scanned yet.
func current(r *onecode.Reader) *onecode.Line {
	if l := r.Line(); l != nil {
		return l
	}
	if r.Scan() {
		return r.Line()
	}
	return nil
}

func next(r *onecode.Reader) *onecode.Line {
	if r.Scan() {
		return r.Line()
	}
	return nil
}

// Load reads count alignment records starting at the current line of r.
// The R (complement) and D (diffs) lines of each record are applied; trace
// lines and other annotations are skipped.  Reading stops before the
// (count+1)'th record.
func Load(r *onecode.Reader, count int) ([]Overlap, error) {
	olaps := make([]Overlap, 0, count)
	for l := current(r); l != nil; l = next(r) {
		switch l.Type {
		case 'A':
			if len(olaps) == count {
				return olaps, nil
			}
			o := Overlap{
				AID: int(l.Int(0)),
				BID: int(l.Int(3)),
				Path: Path{
					ABegin: l.Int(1),
					AEnd:   l.Int(2),
					BBegin: l.Int(4),
					BEnd:   l.Int(5),
				},
			}
			if o.AID < 0 || o.BID < 0 {
				return nil, formatErr(r, l, fmt.Sprintf("negative sequence id in alignment %d", len(olaps)))
			}
			if o.Path.ABegin > o.Path.AEnd || o.Path.BBegin > o.Path.BEnd {
				return nil, formatErr(r, l, fmt.Sprintf("alignment %d has begin > end", len(olaps)))
			}
			olaps = append(olaps, o)
		case 'R':
			if n := len(olaps); n > 0 {
				olaps[n-1].Flags |= Comp
			}
		case 'D':
			if n := len(olaps); n > 0 {
				olaps[n-1].Path.Diffs = l.Int(0)
			}
		}
	}
	if len(olaps) < count {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("aln.Load: %s: expected %d alignments, found %d", r.Name(), count, len(olaps)))
	}
	return olaps, nil
}

// Write writes o as an alignment record: the A line, then R if the overlap
// is complemented, then D.
func Write(w *onecode.Writer, o Overlap) error {
	w.WriteLine('A', o.AID, o.Path.ABegin, o.Path.AEnd, o.BID, o.Path.BBegin, o.Path.BEnd)
	if o.IsComp() {
		w.WriteFlag('R')
	}
	w.WriteLine('D', o.Path.Diffs)
	return w.Err()
}
