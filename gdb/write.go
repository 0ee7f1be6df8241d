package gdb

import (
	"github.com/alntools/alntools/encoding/onecode"
)

// Write writes the index to w.  k tags the reference to the sequence file.
// Unless w is a gdb file, the index is introduced by a 'g' line so that it
// can be read back with Read(r, k) when it is the k'th index in the file.
// Gaps are reconstructed from contig offsets, and a trailing gap closes any
// sequence whose contigs do not reach its end.
func (g *GDB) Write(w *onecode.Writer, k int) error {
	if g.SeqFile != "" {
		w.AddReference(g.SeqFile, int64(k))
	}
	if g.SeqPath != "" {
		w.AddReference(g.SeqPath, RefPath)
	}
	if w.FileType() != "gdb" {
		w.WriteFlag('g')
	}
	// Skeletons embedded in other file types carry no display attributes.
	if g.Freq[0]+g.Freq[1]+g.Freq[2]+g.Freq[3] != 0 && w.Declares('f') {
		w.WriteLine('f', g.Freq[0], g.Freq[1], g.Freq[2], g.Freq[3])
	}
	if g.IsUpper && w.Declares('u') {
		w.WriteFlag('u')
	}
	c := 0
	for s, name := range g.seqNames {
		w.WriteLine('S', name)
		var end int64
		for ; c < len(g.ctgLen) && g.ctgSeq[c] == s; c++ {
			if g.ctgPos[c] > end {
				w.WriteLine('G', g.ctgPos[c]-end)
				end = g.ctgPos[c]
			}
			w.WriteLine('C', g.ctgLen[c])
			end += g.ctgLen[c]
			if m := g.Masks(c); len(m) > 0 {
				w.WriteLine('M', m)
			}
		}
		if end < g.seqLen[s] {
			w.WriteLine('G', g.seqLen[s]-end)
		}
	}
	return w.Err()
}
