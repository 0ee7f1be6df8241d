package aln

import (
	"context"
	"fmt"

	"github.com/alntools/alntools/encoding/onecode"
	"github.com/alntools/alntools/gdb"
	"github.com/alntools/alntools/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Reference tags of an aln file header.
const (
	RefDB1 = 1
	RefDB2 = 2
)

// File is an open aln file.  After Open, Reader is positioned at the first
// line following the embedded GDB skeletons, ready for Load.
type File struct {
	Reader *onecode.Reader
	// NOverlaps is the number of alignment records.
	NOverlaps int
	// DB1 and DB2 name the sequence files of the A and B sides.  DB2 is empty
	// for a self-alignment.
	DB1, DB2 string
	// Path is the directory for resolving relative sequence file names.
	Path string
	// GDB1 and GDB2 are the embedded indexes of the A and B sides, or nil if
	// the file has none.  For a self-alignment GDB2 == GDB1.
	GDB1, GDB2 *gdb.GDB
}

// IsSelf returns true if both sides of the alignments are the same sequence
// file.
func (f *File) IsSelf() bool { return f.DB2 == "" }

// Open reads the aln file at path with its references and embedded indexes.
func Open(ctx context.Context, path string) (*File, error) {
	r, err := onecode.Open(ctx, path, gdb.Schema, "aln")
	if err != nil {
		return nil, err
	}
	return NewFile(r)
}

// NewFile interprets the header and embedded indexes of r.
func NewFile(r *onecode.Reader) (*File, error) {
	f := &File{Reader: r, NOverlaps: int(r.Stats('A').Count)}
	var ok bool
	if f.DB1, ok = r.Reference(RefDB1); !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("aln.Open: %s: no reference to the first sequence file", r.Name()))
	}
	f.DB2, _ = r.Reference(RefDB2)
	f.Path, _ = r.Reference(gdb.RefPath)
	if f.DB2 == f.DB1 {
		log.Printf("warning: self-alignment: db1Name %s and db2Name %s are the same", f.DB1, f.DB2)
		f.DB2 = ""
	}

	nGDB := r.Stats('g').Count
	var err error
	if nGDB >= 1 {
		if f.GDB1, err = gdb.Read(r, RefDB1); err != nil {
			return nil, err
		}
	}
	switch {
	case f.IsSelf():
		f.GDB2 = f.GDB1
	case nGDB >= 2:
		if f.GDB2, err = gdb.Read(r, RefDB2); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LoadOverlaps loads all alignment records of f.
func (f *File) LoadOverlaps() ([]Overlap, error) {
	return Load(f.Reader, f.NOverlaps)
}

// ReadTanLines reads the tandem-repeat alignments that follow the current
// line of r.  Each alignment must align a contig to itself; it is converted
// to the interval [BBegin, AEnd) in coordinates of the containing sequence
// of g.  The score is 1000 * (1 - diffs/length) and the unit is taken from
// the U line.  It also returns the total length of all intervals.
func ReadTanLines(r *onecode.Reader, g *gdb.GDB) (lines []interval.TanLine, total int64, err error) {
	lines = make([]interval.TanLine, 0, r.Stats('A').Count)
	var (
		cur    *interval.TanLine
		curLen int64
	)
	for l := current(r); l != nil; l = next(r) {
		switch l.Type {
		case 'A':
			a, b := int(l.Int(0)), int(l.Int(3))
			if a != b {
				return nil, 0, formatErr(r, l, "target mismatch - not a tandem alignment file?")
			}
			if a < 0 || a >= g.NumCtg() {
				return nil, 0, formatErr(r, l, fmt.Sprintf("contig %d out of range [0,%d)", a, g.NumCtg()))
			}
			bBegin, aEnd := l.Int(4), l.Int(2)
			if bBegin > aEnd || aEnd > g.CtgLen(a) {
				return nil, 0, formatErr(r, l, fmt.Sprintf("interval [%d,%d) outside contig %d", bBegin, aEnd, a))
			}
			lines = append(lines, interval.TanLine{
				Seq:   g.CtgSeq(a),
				Start: g.CtgPos(a, bBegin),
				End:   g.CtgPos(a, aEnd),
			})
			cur = &lines[len(lines)-1]
			curLen = aEnd - bBegin
			total += curLen
		case 'D':
			if cur != nil && curLen > 0 {
				cur.Score = int(1000 * (1 - float64(l.Int(0))/float64(curLen)))
			}
		case 'U':
			if cur != nil {
				cur.Unit = int(l.Int(0))
			}
		case 'g':
			return nil, 0, formatErr(r, l, "unexpected GDB skeleton after alignments")
		}
	}
	return lines, total, nil
}
