package gdb

import (
	"fmt"

	"github.com/alntools/alntools/encoding/fasta"
	"github.com/grailbio/base/errors"
)

// ContigCursor walks the sequences of a FASTA scanner forward, in index
// order, and returns the bases of requested contigs.  Contigs must be
// requested in nondecreasing id order.
type ContigCursor struct {
	g    *GDB
	s    *fasta.Scanner
	seq  int
	ctg  int
	path string
}

// NewContigCursor returns a cursor over s, whose sequences must match the
// names and lengths of g in order.  path is used in error messages.
func NewContigCursor(g *GDB, s *fasta.Scanner, path string) *ContigCursor {
	return &ContigCursor{g: g, s: s, seq: -1, ctg: -1, path: path}
}

// Advance returns the bases of contig c.  The slice is valid until the
// cursor moves to another sequence.  It fails if c precedes the previous
// request, if the source is exhausted, or if the source sequence differs from
// the index in name (errors.Invalid) or length (errors.Integrity).
func (cc *ContigCursor) Advance(c int) ([]byte, error) {
	if c < cc.ctg {
		return nil, errors.E(errors.Precondition, fmt.Sprintf("gdb.ContigCursor: contig %d requested after contig %d", c, cc.ctg))
	}
	if c < 0 || c >= cc.g.NumCtg() {
		return nil, errors.E(errors.Precondition, fmt.Sprintf("gdb.ContigCursor: contig %d out of range [0,%d)", c, cc.g.NumCtg()))
	}
	want := cc.g.CtgSeq(c)
	for cc.seq < want {
		if !cc.s.Scan() {
			if err := cc.s.Err(); err != nil {
				return nil, errors.E(err, "gdb.ContigCursor", cc.path)
			}
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gdb.ContigCursor: %s exhausted before sequence %s", cc.path, cc.g.SeqName(want)))
		}
		cc.seq++
		name := cc.g.SeqName(cc.seq)
		if cc.s.Name() != name {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gdb.ContigCursor: sequence %d of %s is %s, expected %s", cc.seq, cc.path, cc.s.Name(), name))
		}
		if n := int64(len(cc.s.Seq())); n != cc.g.SeqLen(cc.seq) {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("gdb.ContigCursor: length mismatch for %s: %d in index, %d in %s", name, cc.g.SeqLen(cc.seq), n, cc.path))
		}
	}
	cc.ctg = c
	pos := cc.g.CtgOffset(c)
	return cc.s.Seq()[pos : pos+cc.g.CtgLen(c)], nil
}
