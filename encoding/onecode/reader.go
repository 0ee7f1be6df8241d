package onecode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// Field holds the value of one non-list field.  For the list field of a
// line, Int holds the list length.
type Field struct {
	Int  int64
	Real float64
	Char byte
}

// Line is one parsed data line.
type Line struct {
	Type byte
	// Number is the 1-based line number in the stream.
	Number int
	fields []Field
	str    string
	list   []int64
}

// Int returns the i'th field as an integer.
func (l *Line) Int(i int) int64 { return l.fields[i].Int }

// Real returns the i'th field as a real.
func (l *Line) Real(i int) float64 { return l.fields[i].Real }

// Char returns the i'th field as a byte.
func (l *Line) Char(i int) byte { return l.fields[i].Char }

// NumFields returns the number of fields of the line, including its list
// field.
func (l *Line) NumFields() int { return len(l.fields) }

// Str returns the STRING or DNA field of the line.
func (l *Line) Str() string { return l.str }

// IntList returns the INT_LIST field of the line.
func (l *Line) IntList() []int64 { return l.list }

// Len returns the length of the list field, or 0 if the line has none.
func (l *Line) Len() int {
	if l.list != nil {
		return len(l.list)
	}
	return len(l.str)
}

// Reference is a named cross-file reference with an integer tag.
type Reference struct {
	Filename string
	Count    int64
}

// Provenance records one program that contributed to the stream.
type Provenance struct {
	Program, Version, Command, Date string
}

// Stats summarizes the lines of one type.
type Stats struct {
	// Count is the number of lines.
	Count int64
	// MaxLen is the longest list field of any line.
	MaxLen int64
	// Total is the sum of list field lengths.
	Total int64
}

// Reader provides sequential and random access to the lines of a stream.
// Readers are not threadsafe.
type Reader struct {
	name       string
	fileType   string
	subType    string
	spec       *FileSpec
	references []Reference
	provenance []Provenance
	lines      []Line
	stats      [256]Stats
	next       int
	cur        *Line
}

// NewReader parses a complete stream from in.  fileType must match the
// primary or secondary type declared in the header, unless it is empty.
func NewReader(in io.Reader, schema *Schema, fileType string) (*Reader, error) {
	r := &Reader{name: "(stream)"}
	if err := r.parse(bufio.NewReaderSize(in, 1<<20), schema, fileType); err != nil {
		return nil, err
	}
	return r, nil
}

// Open reads the stream at path, which may be gzip compressed.
func Open(ctx context.Context, path string, schema *Schema, fileType string) (r *Reader, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "onecode.Open", path)
	}
	defer func() {
		if e := infile.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	in := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(in); err != nil {
			return nil, errors.E(err, "onecode.Open", path)
		}
		defer gz.Close()
		in = gz
	}
	r = &Reader{name: path}
	if err = r.parse(bufio.NewReaderSize(in, 1<<20), schema, fileType); err != nil {
		return nil, err
	}
	return r, nil
}

// Name returns the path the stream was read from.
func (r *Reader) Name() string { return r.name }

// FileType returns the primary file type of the stream.
func (r *Reader) FileType() string { return r.fileType }

// SubType returns the secondary file type, if any.
func (r *Reader) SubType() string { return r.subType }

// References returns the cross-file references in header order.
func (r *Reader) References() []Reference { return r.references }

// Reference returns the filename of the first reference tagged count.
func (r *Reader) Reference(count int64) (string, bool) {
	for _, ref := range r.references {
		if ref.Count == count {
			return ref.Filename, true
		}
	}
	return "", false
}

// Provenance returns the provenance records in header order.
func (r *Reader) Provenance() []Provenance { return r.provenance }

// Stats returns the statistics for line type t.
func (r *Reader) Stats(t byte) Stats { return r.stats[t] }

// Scan advances to the next data line, which is then available via Line.
// Scan returns false at the end of the stream.
func (r *Reader) Scan() bool {
	if r.next >= len(r.lines) {
		r.cur = nil
		return false
	}
	r.cur = &r.lines[r.next]
	r.next++
	return true
}

// Line returns the current line, or nil before the first Scan and after the
// end of the stream.  The line must not be modified.
func (r *Reader) Line() *Line { return r.cur }

// Goto positions the reader so that the next Scan returns the k'th (1-based)
// line of type t.  It returns false if there is no such line.
func (r *Reader) Goto(t byte, k int64) bool {
	var n int64
	for i := range r.lines {
		if r.lines[i].Type == t {
			if n++; n == k {
				r.next = i
				r.cur = nil
				return true
			}
		}
	}
	return false
}

// Rewind positions the reader before the first data line.
func (r *Reader) Rewind() {
	r.next = 0
	r.cur = nil
}

func (r *Reader) formatError(lineNum int, format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf("onecode: %s line %d: %s", r.name, lineNum, fmt.Sprintf(format, args...)))
}

func (r *Reader) parse(in *bufio.Reader, schema *Schema, fileType string) error {
	inHeader := true
	for lineNum := 1; ; lineNum++ {
		raw, err := in.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return errors.E(err, "onecode: reading", r.name)
		}
		eof := err == io.EOF
		raw = bytes.TrimRight(raw, "\r\n")
		if len(raw) > 0 {
			if e := r.parseLine(raw, lineNum, schema, fileType, &inHeader); e != nil {
				return e
			}
		}
		if eof {
			break
		}
	}
	if r.spec == nil {
		return r.formatError(1, "missing header")
	}
	return nil
}

func (r *Reader) parseLine(raw []byte, lineNum int, schema *Schema, fileType string, inHeader *bool) error {
	p := lineParser{b: raw, pos: 1}
	t := raw[0]
	if t == '.' {
		return nil
	}
	if r.spec == nil && t != '1' {
		return r.formatError(lineNum, "stream does not start with a header line")
	}
	if *inHeader {
		switch t {
		case '1':
			name, err := p.str()
			if err != nil {
				return r.formatError(lineNum, "bad file type: %v", err)
			}
			spec, ok := schema.File(name)
			if !ok || spec.Primary != name {
				return r.formatError(lineNum, "unknown primary file type %q", name)
			}
			r.spec = spec
			r.fileType = name
			if fileType != "" && fileType != name && !spec.hasSecondary(fileType) {
				return r.formatError(lineNum, "file type %q, expected %q", name, fileType)
			}
			return nil
		case '2':
			name, err := p.str()
			if err != nil || !r.spec.hasSecondary(name) {
				return r.formatError(lineNum, "bad secondary file type")
			}
			r.subType = name
			if fileType != "" && fileType != r.fileType && fileType != name {
				return r.formatError(lineNum, "file type %q, expected %q", name, fileType)
			}
			return nil
		case '<', '>':
			name, err := p.str()
			if err != nil {
				return r.formatError(lineNum, "bad reference: %v", err)
			}
			count, err := p.int()
			if err != nil {
				return r.formatError(lineNum, "bad reference count: %v", err)
			}
			r.references = append(r.references, Reference{Filename: name, Count: count})
			return nil
		case '!':
			var fields [4]string
			for i := range fields {
				s, err := p.str()
				if err != nil {
					return r.formatError(lineNum, "bad provenance: %v", err)
				}
				fields[i] = s
			}
			r.provenance = append(r.provenance, Provenance{fields[0], fields[1], fields[2], fields[3]})
			return nil
		case '#', '@', '+', '%', '~':
			return nil
		}
		*inHeader = false
	}
	spec := r.spec.Line(t)
	if spec == nil {
		return r.formatError(lineNum, "unknown line type %q", t)
	}
	line := Line{Type: t, Number: lineNum, fields: make([]Field, len(spec.Fields))}
	for i, ft := range spec.Fields {
		var err error
		switch ft {
		case Int:
			line.fields[i].Int, err = p.int()
		case Real:
			line.fields[i].Real, err = p.real()
		case Char:
			line.fields[i].Char, err = p.char()
		case String, DNA:
			line.str, err = p.str()
			line.fields[i].Int = int64(len(line.str))
		case IntList:
			line.list, err = p.intList()
			line.fields[i].Int = int64(len(line.list))
		}
		if err != nil {
			return r.formatError(lineNum, "%c field %d (%v): %v", t, i, ft, err)
		}
	}
	st := &r.stats[t]
	st.Count++
	if spec.listIdx >= 0 {
		n := line.fields[spec.listIdx].Int
		st.Total += n
		if n > st.MaxLen {
			st.MaxLen = n
		}
	}
	r.lines = append(r.lines, line)
	return nil
}

// lineParser tokenizes the fields of one line.  Any byte <= ' ' separates
// tokens, except inside length-prefixed strings.
type lineParser struct {
	b   []byte
	pos int
}

var errMissingField = fmt.Errorf("missing field")

func (p *lineParser) token() ([]byte, error) {
	for p.pos < len(p.b) && p.b[p.pos] <= ' ' {
		p.pos++
	}
	if p.pos == len(p.b) {
		return nil, errMissingField
	}
	start := p.pos
	for p.pos < len(p.b) && p.b[p.pos] > ' ' {
		p.pos++
	}
	return p.b[start:p.pos], nil
}

func (p *lineParser) int() (int64, error) {
	tok, err := p.token()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(gunsafe.BytesToString(tok), 10, 64)
}

func (p *lineParser) real() (float64, error) {
	tok, err := p.token()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(gunsafe.BytesToString(tok), 64)
}

func (p *lineParser) char() (byte, error) {
	tok, err := p.token()
	if err != nil {
		return 0, err
	}
	if len(tok) != 1 {
		return 0, fmt.Errorf("char field %q has length %d", tok, len(tok))
	}
	return tok[0], nil
}

func (p *lineParser) str() (string, error) {
	n, err := p.int()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d", n)
	}
	if n == 0 {
		return "", nil
	}
	// Exactly one separator precedes the string body.
	p.pos++
	if n > int64(len(p.b)-p.pos) {
		return "", fmt.Errorf("string of length %d runs off the end of the line", n)
	}
	s := string(p.b[p.pos : p.pos+int(n)])
	p.pos += int(n)
	return s, nil
}

func (p *lineParser) intList() ([]int64, error) {
	n, err := p.int()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative list length %d", n)
	}
	// Every element takes at least one byte.
	if n > int64(len(p.b)-p.pos) {
		return nil, fmt.Errorf("list of length %d runs off the end of the line", n)
	}
	list := make([]int64, n)
	for i := range list {
		if list[i], err = p.int(); err != nil {
			return nil, err
		}
	}
	return list, nil
}
