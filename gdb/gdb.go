// Package gdb implements the genome position index: an ordered set of named
// sequences (scaffolds), each built from contigs separated by gaps, with
// optional mask intervals per contig.  It maps contig-local coordinates, as
// used by alignments, to sequence-global coordinates.
//
// A GDB is built in one forward pass over a record stream, either a
// standalone gdb file or a skeleton embedded in an aln file, and is
// immutable afterwards except for ReplaceMasks.
package gdb

import (
	"fmt"

	"github.com/alntools/alntools/encoding/onecode"
	"github.com/grailbio/base/errors"
)

// maskView addresses the masks of one contig in GDB.mask.
type maskView struct {
	start, count int
	// read is set once an M line for the contig has been read.
	read bool
}

// GDB is a genome position index.  Sequences and contigs are addressed by
// dense 0-based ids.
type GDB struct {
	// SeqFile is the sequence file the index describes, if known.
	SeqFile string
	// SeqPath is the directory against which SeqFile is resolved, if known.
	SeqPath string
	// Freq holds the base frequencies of A, C, G and T.
	Freq [4]float64
	// IsUpper is set if unmasked sequence is displayed in upper case.
	IsUpper bool

	seqNames []string
	seqIndex map[string]int
	seqLen   []int64
	// seqCtg[s] is the id of the first contig of sequence s; seqCtg has a
	// trailing sentinel.
	seqCtg []int

	ctgSeq  []int
	ctgLen  []int64
	ctgPos  []int64
	ctgMask []maskView
	mask    []int64

	nGap                    int
	totSeq, totCtg, totMask int64

	// end is the running length of the current sequence during construction.
	end int64
}

func newGDB(nSeq, nCtg, nMask int64) *GDB {
	return &GDB{
		seqNames: make([]string, 0, nSeq),
		seqIndex: make(map[string]int, nSeq),
		seqLen:   make([]int64, 0, nSeq),
		seqCtg:   make([]int, 0, nSeq+1),
		ctgSeq:   make([]int, 0, nCtg),
		ctgLen:   make([]int64, 0, nCtg),
		ctgPos:   make([]int64, 0, nCtg),
		ctgMask:  make([]maskView, 0, nCtg),
		mask:     make([]int64, 0, nMask),
	}
}

func formatErr(r *onecode.Reader, l *onecode.Line, msg string) error {
	return errors.E(errors.Invalid, fmt.Sprintf("gdb.Read: %s line %d: %s", r.Name(), l.Number, msg))
}

// closeSeq records the length of the current sequence.
func (g *GDB) closeSeq() {
	if n := len(g.seqNames); n > len(g.seqLen) {
		g.seqLen = append(g.seqLen, g.end)
	}
}

func (g *GDB) addSeq(name string) error {
	if _, ok := g.seqIndex[name]; ok {
		return fmt.Errorf("duplicate sequence name %s", name)
	}
	g.closeSeq()
	g.seqIndex[name] = len(g.seqNames)
	g.seqNames = append(g.seqNames, name)
	g.seqCtg = append(g.seqCtg, len(g.ctgLen))
	g.end = 0
	return nil
}

func (g *GDB) addGap(n int64) error {
	if len(g.seqNames) == 0 {
		return fmt.Errorf("G line before S line")
	}
	if n < 0 {
		return fmt.Errorf("negative gap length %d", n)
	}
	g.end += n
	g.totSeq += n
	g.nGap++
	return nil
}

func (g *GDB) addContig(n int64) error {
	if len(g.seqNames) == 0 {
		return fmt.Errorf("C line before S line")
	}
	if n < 0 {
		return fmt.Errorf("negative contig length %d", n)
	}
	g.ctgSeq = append(g.ctgSeq, len(g.seqNames)-1)
	g.ctgLen = append(g.ctgLen, n)
	g.ctgPos = append(g.ctgPos, g.end)
	g.ctgMask = append(g.ctgMask, maskView{})
	g.end += n
	g.totSeq += n
	g.totCtg += n
	return nil
}

func (g *GDB) setMask(m []int64) error {
	c := len(g.ctgLen) - 1
	if c < 0 || g.ctgSeq[c] != len(g.seqNames)-1 {
		return fmt.Errorf("M line before C line")
	}
	if len(m)%2 != 0 {
		return fmt.Errorf("size of mask list must be even, got %d", len(m))
	}
	if g.ctgMask[c].read {
		return fmt.Errorf("more than one M line for contig %d", c)
	}
	for i := 0; i < len(m); i += 2 {
		if m[i] < 0 || m[i] > m[i+1] || m[i+1] > g.ctgLen[c] {
			return fmt.Errorf("mask [%d,%d) outside contig %d of length %d", m[i], m[i+1], c, g.ctgLen[c])
		}
		g.totMask += m[i+1] - m[i]
	}
	g.ctgMask[c] = maskView{start: len(g.mask), count: len(m), read: true}
	g.mask = append(g.mask, m...)
	return nil
}

// finish closes the last sequence.
func (g *GDB) finish() {
	g.closeSeq()
	g.seqCtg = append(g.seqCtg, len(g.ctgLen))
}

// Read builds an index from r.  If r is a standalone gdb file, reading starts
// at its first data line and k selects the reference naming the sequence
// file.  Otherwise reading starts after the k'th (1-based) 'g' line.  Reading
// stops at the first line that is not part of the index; that line remains
// current in r (r.Line() is nil at the end of the stream).
func Read(r *onecode.Reader, k int) (*GDB, error) {
	g := newGDB(r.Stats('S').Count, r.Stats('C').Count, r.Stats('M').Total)
	for _, ref := range r.References() {
		switch ref.Count {
		case int64(k):
			g.SeqFile = ref.Filename
		case RefPath:
			g.SeqPath = ref.Filename
		}
	}
	if r.FileType() == "gdb" {
		r.Rewind()
	} else {
		if !r.Goto('g', int64(k)) {
			return nil, errors.E(errors.NotExist, fmt.Sprintf("gdb.Read: no GDB %d in %s", k, r.Name()))
		}
		r.Scan()
	}
	for r.Scan() {
		l := r.Line()
		var err error
		switch l.Type {
		case 'f':
			for i := range g.Freq {
				g.Freq[i] = l.Real(i)
			}
		case 'u':
			g.IsUpper = true
		case 'S':
			err = g.addSeq(l.Str())
		case 'G':
			err = g.addGap(l.Int(0))
		case 'C':
			err = g.addContig(l.Int(0))
		case 'M':
			err = g.setMask(l.IntList())
		default:
			g.finish()
			return g, nil
		}
		if err != nil {
			return nil, formatErr(r, l, err.Error())
		}
	}
	g.finish()
	return g, nil
}

// NumSeq returns the number of sequences.
func (g *GDB) NumSeq() int { return len(g.seqNames) }

// NumCtg returns the number of contigs.
func (g *GDB) NumCtg() int { return len(g.ctgLen) }

// NumGap returns the number of gaps.
func (g *GDB) NumGap() int { return g.nGap }

// SeqID returns the id of the named sequence.
func (g *GDB) SeqID(name string) (int, error) {
	id, ok := g.seqIndex[name]
	if !ok {
		return -1, errors.E(errors.NotExist, fmt.Sprintf("gdb.SeqID: sequence %s not found", name))
	}
	return id, nil
}

// SeqName returns the name of sequence s.
func (g *GDB) SeqName(s int) string { return g.seqNames[s] }

// SeqLen returns the length of sequence s, including gaps.
func (g *GDB) SeqLen(s int) int64 { return g.seqLen[s] }

// SeqContigs returns the range [begin, end) of ids of the contigs of
// sequence s.
func (g *GDB) SeqContigs(s int) (begin, end int) { return g.seqCtg[s], g.seqCtg[s+1] }

// CtgSeq returns the id of the sequence containing contig c.
func (g *GDB) CtgSeq(c int) int { return g.ctgSeq[c] }

// CtgLen returns the length of contig c.
func (g *GDB) CtgLen(c int) int64 { return g.ctgLen[c] }

// CtgOffset returns the offset of contig c within its sequence.
func (g *GDB) CtgOffset(c int) int64 { return g.ctgPos[c] }

// CtgPos maps position x of contig c, 0 <= x <= CtgLen(c), to a position in
// the containing sequence.
func (g *GDB) CtgPos(c int, x int64) int64 { return g.ctgPos[c] + x }

// Masks returns the mask intervals of contig c as a flat list of
// [start, end) pairs in contig coordinates.  The result must not be
// modified.
func (g *GDB) Masks(c int) []int64 {
	v := g.ctgMask[c]
	return g.mask[v.start : v.start+v.count]
}

// TotSeq returns the total length of all sequences, including gaps.
func (g *GDB) TotSeq() int64 { return g.totSeq }

// TotCtg returns the total length of all contigs.
func (g *GDB) TotCtg() int64 { return g.totCtg }

// TotMask returns the total masked length.
func (g *GDB) TotMask() int64 { return g.totMask }

// Summary returns a one-line description of the index sizes.
func (g *GDB) Summary() string {
	s := fmt.Sprintf("%d seqs %d contigs (%d gaps), totSeq %d totCtg %d (%.3f%%)",
		g.NumSeq(), g.NumCtg(), g.nGap, g.totSeq, g.totCtg, percent(g.totCtg, g.totSeq))
	if g.totMask > 0 {
		s += fmt.Sprintf(", %d masks totMask %d (%.1f%%)", len(g.mask)/2, g.totMask, percent(g.totMask, g.totSeq))
	}
	return s
}

func percent(n, d int64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / (0.01 * float64(d))
}

// Release drops all arrays held by the index.  The index must not be used
// afterwards.
func (g *GDB) Release() {
	*g = GDB{}
}
