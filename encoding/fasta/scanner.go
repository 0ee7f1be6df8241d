// Package fasta contains code for reading and writing FASTA files.
// Briefly, FASTA files consist of a number of named sequences that may be
// interrupted by newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Scanner reads the sequences of a FASTA file in order, one at a time.
// Scanners are not threadsafe.
type Scanner struct {
	r       *bufio.Reader
	lineBuf []byte
	lineNo  int
	started bool
	hasNext bool
	next    string
	name    string
	seq     []byte
	err     error
}

// NewScanner constructs a scanner that reads FASTA data from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 1<<20)}
}

// Scan reads the next sequence.  It returns false at the end of the input or
// on error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.started {
		s.started = true
		for {
			line, eof := s.readLine()
			if len(line) > 0 {
				if line[0] != '>' {
					s.err = errors.Errorf("fasta: line %d: sequence data before the first header", s.lineNo)
					return false
				}
				s.next, s.hasNext = headerName(line), true
				break
			}
			if eof {
				return false
			}
		}
	}
	if !s.hasNext {
		return false
	}
	s.name, s.hasNext = s.next, false
	s.seq = s.seq[:0]
	for {
		line, eof := s.readLine()
		if s.err != nil {
			return false
		}
		if len(line) > 0 && line[0] == '>' {
			s.next, s.hasNext = headerName(line), true
			return true
		}
		s.seq = append(s.seq, line...)
		if eof {
			return true
		}
	}
}

// readLine returns the next line without its terminator, and whether the end
// of the input was reached.  The line is only valid until the next call.
func (s *Scanner) readLine() (line []byte, eof bool) {
	line, err := s.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		s.lineBuf = append(s.lineBuf[:0], line...)
		for err == bufio.ErrBufferFull {
			line, err = s.r.ReadSlice('\n')
			s.lineBuf = append(s.lineBuf, line...)
		}
		line = s.lineBuf
	}
	if err != nil && err != io.EOF {
		s.err = errors.Wrap(err, "couldn't read FASTA data")
		return nil, true
	}
	if len(line) > 0 {
		s.lineNo++
	}
	return bytes.TrimRight(line, "\r\n"), err == io.EOF
}

func headerName(line []byte) string {
	name := line[1:]
	if i := bytes.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// Name returns the name of the current sequence.
func (s *Scanner) Name() string { return s.name }

// Seq returns the bases of the current sequence.  The slice is only valid
// until the next call to Scan.
func (s *Scanner) Seq() []byte { return s.seq }

// Err returns the first error encountered by the scanner.
func (s *Scanner) Err() error { return s.err }

// File is a Scanner over a (possibly gzipped) FASTA file.
type File struct {
	*Scanner
	in file.File
	gz *gzip.Reader
}

// Open opens the FASTA file at path for scanning.  Paths ending in .gz are
// decompressed.
func Open(ctx context.Context, path string) (*File, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "fasta.Open %s", path)
	}
	f := &File{in: in}
	r := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if f.gz, err = gzip.NewReader(r); err != nil {
			_ = in.Close(ctx)
			return nil, errors.Wrapf(err, "fasta.Open %s", path)
		}
		r = f.gz
	}
	f.Scanner = NewScanner(r)
	return f, nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.in.Name() }

// Close closes the underlying file.
func (f *File) Close(ctx context.Context) error {
	if f.gz != nil {
		_ = f.gz.Close()
	}
	return f.in.Close(ctx)
}
