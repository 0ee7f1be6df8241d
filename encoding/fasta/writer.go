package fasta

import (
	"io"
)

var newline = []byte{'\n'}

// DefaultLineWidth is the number of bases per line written by NewWriter.
const DefaultLineWidth = 100

// Writer is a FASTA file writer.
type Writer struct {
	w         io.Writer
	lineWidth int
	err       error
}

// NewWriter constructs a new FASTA writer that writes sequences to w,
// wrapping them at lineWidth bases.  A lineWidth <= 0 disables wrapping.
func NewWriter(w io.Writer, lineWidth int) *Writer {
	return &Writer{w: w, lineWidth: lineWidth}
}

// Write writes one named sequence.  An error is returned if the write
// failed; errors are sticky.
func (w *Writer) Write(name string, seq []byte) error {
	w.writeln([]byte(">" + name))
	if w.lineWidth <= 0 {
		w.writeln(seq)
		return w.err
	}
	for len(seq) > w.lineWidth {
		w.writeln(seq[:w.lineWidth])
		seq = seq[w.lineWidth:]
	}
	if len(seq) > 0 {
		w.writeln(seq)
	}
	return w.err
}

func (w *Writer) writeln(line []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}
