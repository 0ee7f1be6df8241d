package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// SeqLookup resolves sequence names and lengths for BED input.
type SeqLookup interface {
	// SeqID returns the id of the named sequence, or an errors.NotExist
	// error.
	SeqID(name string) (int, error)
	// SeqLen returns the length of sequence id.
	SeqLen(id int) int64
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// ReadTanBED reads 5-column BED lines "name start end unit score".  Names are
// resolved through lookup; intervals must satisfy 0 <= start <= end <= the
// sequence length.  Blank lines are skipped.  The lines are returned in file
// order.
func ReadTanBED(r io.Reader, lookup SeqLookup) ([]TanLine, error) {
	scanner := bufio.NewScanner(r)
	var (
		tokens [5][]byte
		lines  []TanLine
	)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if nToken != 5 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.ReadTanBED: line %d has %d tokens, expected 5", lineIdx, nToken))
		}
		var (
			l    TanLine
			vals [4]int64
			err  error
		)
		for i := range vals {
			if vals[i], err = strconv.ParseInt(gunsafe.BytesToString(tokens[i+1]), 10, 64); err != nil {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.ReadTanBED: line %d column %d", lineIdx, i+2), err)
			}
		}
		if l.Seq, err = lookup.SeqID(gunsafe.BytesToString(tokens[0])); err != nil {
			return nil, errors.E(fmt.Sprintf("interval.ReadTanBED: line %d", lineIdx), err)
		}
		l.Start, l.End, l.Unit, l.Score = vals[0], vals[1], int(vals[2]), int(vals[3])
		if l.Start < 0 || l.Start > l.End {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.ReadTanBED: illegal start %d end %d on line %d", l.Start, l.End, lineIdx))
		}
		if seqLen := lookup.SeqLen(l.Seq); l.End > seqLen {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("interval.ReadTanBED: end %d off the end %d of sequence %s on line %d", l.End, seqLen, tokens[0], lineIdx))
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "interval.ReadTanBED")
	}
	return lines, nil
}

// ReadTanBEDFromPath is a wrapper for ReadTanBED that takes a path instead of
// an io.Reader.  Gzipped input is decompressed.
func ReadTanBEDFromPath(ctx context.Context, path string, lookup SeqLookup) (lines []TanLine, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "interval.ReadTanBEDFromPath", path)
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, "interval.ReadTanBEDFromPath", path)
		}
		defer gz.Close()
		reader = gz
	}
	return ReadTanBED(reader, lookup)
}

// WriteTanBED writes lines as 5-column BED, naming sequences with name.
func WriteTanBED(w io.Writer, lines []TanLine, name func(seq int) string) error {
	out := tsv.NewWriter(w)
	for _, l := range lines {
		out.WriteString(name(l.Seq))
		out.WriteInt64(l.Start)
		out.WriteInt64(l.End)
		out.WriteInt64(int64(l.Unit))
		out.WriteInt64(int64(l.Score))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
