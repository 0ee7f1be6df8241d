package onecode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// Writer writes a stream.  The body is buffered in memory; the header,
// including per-type statistics, is written by Close.  Writers are not
// threadsafe.
type Writer struct {
	out        io.Writer
	closer     func() error
	spec       *FileSpec
	subType    string
	references []Reference
	provenance []Provenance
	body       bytes.Buffer
	stats      [256]Stats
	err        error
}

// NewWriter creates a writer of the given primary or secondary file type.
func NewWriter(out io.Writer, schema *Schema, fileType string) (*Writer, error) {
	spec, ok := schema.File(fileType)
	if !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("onecode.NewWriter: unknown file type %q", fileType))
	}
	w := &Writer{out: out, spec: spec}
	if fileType != spec.Primary {
		w.subType = fileType
	}
	return w, nil
}

// Create creates path and returns a writer to it.  Paths ending in .gz are
// gzip compressed.
func Create(ctx context.Context, path string, schema *Schema, fileType string) (*Writer, error) {
	outfile, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "onecode.Create", path)
	}
	out := io.Writer(outfile.Writer(ctx))
	var gz *gzip.Writer
	if fileio.DetermineType(path) == fileio.Gzip {
		gz = gzip.NewWriter(out)
		out = gz
	}
	w, err := NewWriter(out, schema, fileType)
	if err != nil {
		_ = outfile.Close(ctx)
		return nil, err
	}
	w.closer = func() error {
		var err error
		if gz != nil {
			err = gz.Close()
		}
		if e := outfile.Close(ctx); e != nil && err == nil {
			err = e
		}
		return err
	}
	return w, nil
}

// AddReference records a reference to another file, tagged with count.
// Repeated identical references are recorded once.
func (w *Writer) AddReference(filename string, count int64) {
	for _, ref := range w.references {
		if ref.Filename == filename && ref.Count == count {
			return
		}
	}
	w.references = append(w.references, Reference{Filename: filename, Count: count})
}

// AddProvenance records the program that wrote the stream.
func (w *Writer) AddProvenance(program, version, command string) {
	w.provenance = append(w.provenance, Provenance{
		Program: program,
		Version: version,
		Command: command,
		Date:    time.Now().Format("2006-01-02_15:04:05"),
	})
}

// InheritProvenance copies the provenance records of r.
func (w *Writer) InheritProvenance(r *Reader) {
	w.provenance = append(w.provenance, r.Provenance()...)
}

// FileType returns the primary file type being written.
func (w *Writer) FileType() string { return w.spec.Primary }

// Declares returns true if the file type has line type t.
func (w *Writer) Declares(t byte) bool { return w.spec.Line(t) != nil }

// Err returns the first error encountered by WriteLine.
func (w *Writer) Err() error { return w.err }

// Count returns the number of lines of type t written so far.
func (w *Writer) Count(t byte) int64 { return w.stats[t].Count }

func (w *Writer) setErr(err error) error {
	if w.err == nil {
		w.err = err
	}
	return w.err
}

// WriteLine writes one line of type t.  args supply the fields in schema
// order: int, int64 for INT; float64 for REAL; byte for CHAR; string or
// []byte for STRING and DNA; []int64 for INT_LIST.
func (w *Writer) WriteLine(t byte, args ...interface{}) error {
	if w.err != nil {
		return w.err
	}
	spec := w.spec.Line(t)
	if spec == nil {
		return w.setErr(errors.E(errors.Invalid, fmt.Sprintf("onecode.WriteLine: line type %q not in %s schema", t, w.spec.Primary)))
	}
	if len(args) != len(spec.Fields) {
		return w.setErr(errors.E(errors.Invalid, fmt.Sprintf("onecode.WriteLine: line type %q has %d fields, got %d", t, len(spec.Fields), len(args))))
	}
	b := &w.body
	b.WriteByte(t)
	listLen := int64(-1)
	for i, ft := range spec.Fields {
		b.WriteByte(' ')
		bad := func() error {
			return w.setErr(errors.E(errors.Invalid, fmt.Sprintf("onecode.WriteLine: line type %q field %d: %T is not %v", t, i, args[i], ft)))
		}
		switch ft {
		case Int:
			switch v := args[i].(type) {
			case int:
				b.WriteString(strconv.Itoa(v))
			case int64:
				b.WriteString(strconv.FormatInt(v, 10))
			default:
				return bad()
			}
		case Real:
			v, ok := args[i].(float64)
			if !ok {
				return bad()
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case Char:
			v, ok := args[i].(byte)
			if !ok {
				return bad()
			}
			b.WriteByte(v)
		case String, DNA:
			var s []byte
			switch v := args[i].(type) {
			case string:
				s = []byte(v)
			case []byte:
				s = v
			default:
				return bad()
			}
			if bytes.IndexByte(s, '\n') >= 0 {
				return w.setErr(errors.E(errors.Invalid, fmt.Sprintf("onecode.WriteLine: line type %q field %d contains a newline", t, i)))
			}
			listLen = int64(len(s))
			b.WriteString(strconv.Itoa(len(s)))
			if len(s) > 0 {
				b.WriteByte(' ')
				b.Write(s)
			}
		case IntList:
			v, ok := args[i].([]int64)
			if !ok {
				return bad()
			}
			listLen = int64(len(v))
			b.WriteString(strconv.Itoa(len(v)))
			for _, x := range v {
				b.WriteByte(' ')
				b.WriteString(strconv.FormatInt(x, 10))
			}
		}
	}
	b.WriteByte('\n')
	st := &w.stats[t]
	st.Count++
	if listLen >= 0 {
		st.Total += listLen
		if listLen > st.MaxLen {
			st.MaxLen = listLen
		}
	}
	return nil
}

func writeStr(b *bufio.Writer, s string) {
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(' ')
	b.WriteString(s)
}

// Close writes the header and the buffered body, and closes the underlying
// file if the writer was created by Create.  Close must be called exactly
// once; nothing reaches the output unless it succeeds.
func (w *Writer) Close() error {
	err := w.err
	if err == nil {
		err = w.flush()
	}
	if w.closer != nil {
		if e := w.closer(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (w *Writer) flush() error {
	b := bufio.NewWriter(w.out)
	b.WriteByte('1')
	writeStr(b, w.spec.Primary)
	b.WriteString(" 1 0\n")
	if w.subType != "" {
		b.WriteByte('2')
		writeStr(b, w.subType)
		b.WriteByte('\n')
	}
	for _, p := range w.provenance {
		b.WriteByte('!')
		writeStr(b, p.Program)
		writeStr(b, p.Version)
		writeStr(b, p.Command)
		writeStr(b, p.Date)
		b.WriteByte('\n')
	}
	for _, ref := range w.references {
		b.WriteByte('<')
		writeStr(b, ref.Filename)
		fmt.Fprintf(b, " %d\n", ref.Count)
	}
	for t := range w.stats {
		st := w.stats[t]
		if st.Count == 0 {
			continue
		}
		fmt.Fprintf(b, "# %c %d\n", t, st.Count)
		if spec := w.spec.Line(byte(t)); spec != nil && spec.listIdx >= 0 {
			fmt.Fprintf(b, "@ %c %d\n", t, st.MaxLen)
			fmt.Fprintf(b, "+ %c %d\n", t, st.Total)
		}
	}
	if _, err := b.Write(w.body.Bytes()); err != nil {
		return err
	}
	return b.Flush()
}

// WriteFlag writes a line of type t that has no fields.
func (w *Writer) WriteFlag(t byte) error { return w.WriteLine(t) }
