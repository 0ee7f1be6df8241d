package svfind

import (
	"fmt"

	"github.com/alntools/alntools/aln"
	"github.com/alntools/alntools/encoding/onecode"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// WriteThresholds writes the global threshold lines of opts.
func WriteThresholds(w *onecode.Writer, opts *Opts) error {
	w.WriteLine('o', opts.MaxOverhang)
	w.WriteLine('s', opts.MinSize)
	w.WriteLine('m', opts.MaxSize)
	w.WriteLine('f', opts.MinFlank)
	w.WriteLine('x', opts.VarExtSize)
	w.WriteLine('q', opts.TermSeqSize)
	return w.Err()
}

// Emit writes one V object per candidate.  ins must be sorted by A; the A
// contigs are read from as.  The S line holds A[ABegin-lx, AEnd+rx), where
// lx and rx extend the insertion by up to VarExtSize bases within the contig.
func Emit(w *onecode.Writer, ins []Insertion, term []byte, as SeqSource, opts *Opts) error {
	for i := range ins {
		in := &ins[i]
		w.WriteLine('V', in.A, in.ABegin, in.AEnd)
		w.WriteLine('B', in.B, in.BMatchBegin, in.BMatchEnd)
		if in.Comp {
			w.WriteFlag('C')
		}
		seq, err := as.Advance(in.A)
		if err != nil {
			return err
		}
		sLen := int64(len(seq))
		if in.AEnd > sLen {
			return errors.E(errors.Integrity, fmt.Sprintf("svfind: insertion %s ends beyond length %d of contig %d", in.ID(), sLen, in.A))
		}
		w.WriteLine('F', in.LeftFlank, in.RightFlank)
		lx := min64(in.ABegin, opts.VarExtSize)
		rx := opts.VarExtSize
		if in.AEnd+rx > sLen {
			rx = sLen - in.AEnd
		}
		w.WriteLine('X', lx, rx)
		w.WriteLine('Q', term[in.TermOffset:in.TermOffset+in.TermLen])
		w.WriteLine('S', seq[in.ABegin-lx:in.AEnd+rx])
		w.WriteLine('I', in.ID())
		if err := w.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Report finds the insertion candidates of olaps, which must be sorted by
// aln.Sort, and writes them to w.  B contigs are read from bs and A contigs
// from as.  It returns the number of candidates written.
func Report(w *onecode.Writer, olaps []aln.Overlap, as, bs SeqSource, opts *Opts) (int, error) {
	ins, err := FindInsertions(olaps, opts)
	if err != nil {
		return 0, err
	}
	log.Debug.Printf("svfind: %d raw candidates from %d overlaps", len(ins), len(olaps))
	term, err := AddTermSeqs(ins, bs, opts)
	if err != nil {
		return 0, err
	}
	ins = Dedup(ins)
	if err := WriteThresholds(w, opts); err != nil {
		return 0, err
	}
	if err := Emit(w, ins, term, as, opts); err != nil {
		return 0, err
	}
	return len(ins), nil
}
