package tandem

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alntools/alntools/encoding/fasta"
	"github.com/alntools/alntools/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// CompactOpts configures Compact.
type CompactOpts struct {
	// AlnPath holds the tandem alignments, SeqPath the sequences they were
	// computed from.
	AlnPath string
	SeqPath string
	// OutPath receives the compressed sequences as FASTA, gzipped if it ends
	// in .gz.  If empty, DefaultCompactPath(SeqPath) is used.
	OutPath string
	// LineWidth is the FASTA line width of the output.
	LineWidth int
}

// DefaultCompactOpts are the default compaction options.
var DefaultCompactOpts = CompactOpts{
	LineWidth: fasta.DefaultLineWidth,
}

// DefaultCompactPath returns seqPath with any .gz suffix and its extension
// replaced by "-taco.fa.gz".
func DefaultCompactPath(seqPath string) string {
	stem := strings.TrimSuffix(seqPath, ".gz")
	return strings.TrimSuffix(stem, filepath.Ext(stem)) + "-taco.fa.gz"
}

// CompactSeq appends to dst the sequence seq, named name, with every tandem
// repeat in lines reduced to a single copy of its unit.  lines must be the
// repeats of this sequence sorted by interval.CompareTanLines.  Repeats that
// start before the end of the previous repeat are skipped; a warning is
// logged if such a repeat was not fully covered by it.
func CompactSeq(dst []byte, name string, seq []byte, lines []interval.TanLine) []byte {
	var nOld int64
	for _, t := range lines {
		if t.Start < nOld {
			if nOld+int64(t.Unit) > t.End {
				log.Printf("warning: buried repeat %s size %d ending %d when last ended at %d", name, t.Unit, t.End, nOld)
			}
			continue
		}
		keep := t.Start + int64(t.Unit)
		if keep > t.End {
			keep = t.End
		}
		dst = append(dst, seq[nOld:keep]...)
		nOld = t.End
	}
	return append(dst, seq[nOld:]...)
}

// createFasta creates a FASTA writer on path.  The returned function closes
// the output.
func createFasta(ctx context.Context, path string, lineWidth int) (*fasta.Writer, func() error, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "tandem: creating", path)
	}
	w := io.Writer(out.Writer(ctx))
	var gz *gzip.Writer
	if fileio.DetermineType(path) == fileio.Gzip {
		gz = gzip.NewWriter(w)
		w = gz
	}
	closer := func() error {
		var err error
		if gz != nil {
			err = gz.Close()
		}
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
		return err
	}
	return fasta.NewWriter(w, lineWidth), closer, nil
}

// Compact writes the sequences of opts.SeqPath with their tandem repeats
// compressed.  Every sequence must be present in the index of the alignment
// file with the same length.  It returns the path written.
func Compact(ctx context.Context, opts CompactOpts) (outPath string, err error) {
	rp, err := Read(ctx, opts.AlnPath)
	if err != nil {
		return "", err
	}
	log.Printf("%s", rp.Summary())
	path := opts.OutPath
	if path == "" {
		path = DefaultCompactPath(opts.SeqPath)
	}

	in, err := fasta.Open(ctx, opts.SeqPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	w, closeOut, err := createFasta(ctx, path, opts.LineWidth)
	if err != nil {
		return "", err
	}
	defer func() {
		if e := closeOut(); e != nil && err == nil {
			err = e
		}
		if err != nil {
			if e := file.Remove(ctx, path); e != nil {
				log.Error.Printf("tandem: removing %s: %v", path, e)
			}
		}
	}()

	var (
		buf          []byte
		nSeq         int
		oldLen, nLen int64
	)
	for in.Scan() {
		name := in.Name()
		s, err := rp.GDB.SeqID(name)
		if err != nil {
			return "", errors.E(fmt.Sprintf("tandem.Compact: %s in %s", name, opts.SeqPath), err)
		}
		seq := in.Seq()
		if n := int64(len(seq)); n != rp.GDB.SeqLen(s) {
			return "", errors.E(errors.Integrity, fmt.Sprintf("tandem.Compact: length mismatch for %s: %d in %s, %d in %s",
				name, rp.GDB.SeqLen(s), opts.AlnPath, n, opts.SeqPath))
		}
		buf = CompactSeq(buf[:0], name, seq, rp.seqLines(s))
		if err := w.Write(name, buf); err != nil {
			return "", errors.E(err, "tandem.Compact: writing", path)
		}
		nSeq++
		oldLen += int64(len(seq))
		nLen += int64(len(buf))
	}
	if err := in.Err(); err != nil {
		return "", err
	}
	log.Printf("compressed %d sequences from %d to %d bases in %s", nSeq, oldLen, nLen, path)
	return path, nil
}
