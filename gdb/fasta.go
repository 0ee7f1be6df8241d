package gdb

import (
	"fmt"

	"github.com/alntools/alntools/biosimd"
	"github.com/alntools/alntools/encoding/fasta"
	"github.com/grailbio/base/errors"
)

// FromFasta builds an index from the sequences of s.  Each sequence becomes
// a scaffold whose contigs are its maximal runs of non-N bases; runs of N or
// n are gaps.  Base frequencies are computed over all contigs, and IsUpper is
// set if no lowercase base occurs.  seqFile names the FASTA file in the
// index.
func FromFasta(s *fasta.Scanner, seqFile string) (*GDB, error) {
	g := newGDB(0, 0, 0)
	g.SeqFile = seqFile
	var (
		counts [4]int64
		lower  bool
	)
	for s.Scan() {
		if err := g.addSeq(s.Name()); err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gdb.FromFasta: %s: %v", seqFile, err))
		}
		seq := s.Seq()
		for i := 0; i < len(seq); {
			j := i
			if biosimd.IsN(seq[i]) {
				for j < len(seq) && biosimd.IsN(seq[j]) {
					j++
				}
				_ = g.addGap(int64(j - i))
			} else {
				for j < len(seq) && !biosimd.IsN(seq[j]) {
					if !lower && seq[j] >= 'a' && seq[j] <= 'z' {
						lower = true
					}
					j++
				}
				biosimd.CountACGT(seq[i:j], &counts)
				_ = g.addContig(int64(j - i))
			}
			i = j
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.E(err, "gdb.FromFasta", seqFile)
	}
	g.finish()
	if tot := counts[0] + counts[1] + counts[2] + counts[3]; tot > 0 {
		for i, n := range counts {
			g.Freq[i] = float64(n) / float64(tot)
		}
	}
	g.IsUpper = g.totCtg > 0 && !lower
	return g, nil
}
