// Package tandem handles tandem-repeat alignments: self-alignments of a
// contig to itself, shifted by the repeat unit.  It exports them as BED
// intervals and uses them to compress repeats out of sequences.
package tandem

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/alntools/alntools/aln"
	"github.com/alntools/alntools/gdb"
	"github.com/alntools/alntools/interval"
	"github.com/grailbio/base/errors"
)

// Repeats is the set of tandem repeats read from an alignment file.
type Repeats struct {
	// Path is the alignment file the repeats were read from.
	Path string
	GDB  *gdb.GDB
	// Lines holds the repeats in sequence coordinates, sorted by
	// interval.CompareTanLines.
	Lines []interval.TanLine
	// Total is the summed length of all repeats.
	Total int64
}

// Read reads the tandem alignments at path.  The file must embed the index
// of the aligned sequences.
func Read(ctx context.Context, path string) (*Repeats, error) {
	f, err := aln.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if f.GDB1 == nil {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("tandem.Read: %s has no embedded index", path))
	}
	if l := f.Reader.Line(); l != nil && l.Type != 'A' {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("tandem.Read: %s line %d: unexpected line type %c", path, l.Number, l.Type))
	}
	lines, total, err := aln.ReadTanLines(f.Reader, f.GDB1)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lines, func(i, j int) bool { return interval.CompareTanLines(lines[i], lines[j]) < 0 })
	return &Repeats{Path: path, GDB: f.GDB1, Lines: lines, Total: total}, nil
}

// WriteBED writes the repeats as 5-column BED lines: sequence name, start,
// end, unit, score.
func (rp *Repeats) WriteBED(w io.Writer) error {
	return interval.WriteTanBED(w, rp.Lines, rp.GDB.SeqName)
}

// Summary returns a one-line description of the repeat coverage.
func (rp *Repeats) Summary() string {
	totSeq := rp.GDB.TotSeq()
	var pct float64
	if totSeq > 0 {
		pct = float64(rp.Total) / (0.01 * float64(totSeq))
	}
	return fmt.Sprintf("processed %d alignments total length %d from %s length %d (%.1f %%)",
		len(rp.Lines), rp.Total, rp.Path, totSeq, pct)
}

// seqLines returns the repeats on sequence s.
func (rp *Repeats) seqLines(s int) []interval.TanLine {
	lo := sort.Search(len(rp.Lines), func(i int) bool { return rp.Lines[i].Seq >= s })
	hi := sort.Search(len(rp.Lines), func(i int) bool { return rp.Lines[i].Seq > s })
	return rp.Lines[lo:hi]
}
