package onecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// FieldType is the type of one field of a line.
type FieldType int

const (
	// Int is a decimal integer field.
	Int FieldType = iota + 1
	// Real is a floating point field.
	Real
	// Char is a single byte field.
	Char
	// String is a length-prefixed byte string.
	String
	// DNA is a length-prefixed nucleotide string.
	DNA
	// IntList is a length-prefixed list of integers.
	IntList
)

var fieldTypeNames = map[string]FieldType{
	"INT":      Int,
	"REAL":     Real,
	"CHAR":     Char,
	"STRING":   String,
	"DNA":      DNA,
	"INT_LIST": IntList,
}

// IsList returns true for the length-prefixed field types.
func (t FieldType) IsList() bool {
	return t == String || t == DNA || t == IntList
}

func (t FieldType) String() string {
	for name, ft := range fieldTypeNames {
		if ft == t {
			return name
		}
	}
	return "FieldType(" + strconv.Itoa(int(t)) + ")"
}

// LineSpec describes one line type of a file type.
type LineSpec struct {
	Type   byte
	Fields []FieldType
	// Object is set for lines declared with 'O'.
	Object bool
	// Group is the line type grouped by this object, if declared with 'G'.
	Group byte
	// listIdx is the index of the list field in Fields, or -1.
	listIdx int
}

// FileSpec is the set of line types of one primary file type.
type FileSpec struct {
	Primary   string
	Secondary []string
	lines     [256]*LineSpec
}

// Line returns the spec for line type t, or nil if t is not declared.
func (f *FileSpec) Line(t byte) *LineSpec {
	return f.lines[t]
}

func (f *FileSpec) hasSecondary(sub string) bool {
	for _, s := range f.Secondary {
		if s == sub {
			return true
		}
	}
	return false
}

// Schema is a collection of file specs keyed by primary file type.
type Schema struct {
	files map[string]*FileSpec
}

// File returns the spec for the given primary or secondary file type.
func (s *Schema) File(fileType string) (*FileSpec, bool) {
	if f, ok := s.files[fileType]; ok {
		return f, true
	}
	for _, f := range s.files {
		if f.hasSecondary(fileType) {
			return f, true
		}
	}
	return nil, false
}

// ParseSchema parses ONEcode schema text.  Each line is a record:
//
//   P <len> <type>               start the spec of a primary file type
//   S <len> <type>               declare a secondary type of the primary
//   O <T> <n> <len> <FIELD>...   declare object line type T with n fields
//   D <T> <n> <len> <FIELD>...   declare line type T with n fields
//   G <T>                        the preceding object groups lines of type T
//
// Lines beginning with '.' or '1' and anything after the declared fields are
// comments.
func ParseSchema(text string) (*Schema, error) {
	s := &Schema{files: map[string]*FileSpec{}}
	var (
		cur     *FileSpec
		lastObj *LineSpec
	)
	for lineNum, raw := range strings.Split(text, "\n") {
		tokens := strings.Fields(raw)
		if len(tokens) == 0 {
			continue
		}
		bad := func(msg string) error {
			return errors.E(errors.Invalid, fmt.Sprintf("onecode.ParseSchema: line %d %s: %s", lineNum+1, msg, raw))
		}
		switch tokens[0] {
		case ".", "1":
			continue
		case "P", "S":
			if len(tokens) < 3 {
				return nil, bad("missing file type")
			}
			name := tokens[2]
			if tokens[0] == "P" {
				cur = &FileSpec{Primary: name}
				s.files[name] = cur
				lastObj = nil
				continue
			}
			if cur == nil {
				return nil, bad("secondary type before primary type")
			}
			cur.Secondary = append(cur.Secondary, name)
		case "O", "D":
			if cur == nil {
				return nil, bad("line type before primary type")
			}
			if len(tokens) < 3 || len(tokens[1]) != 1 {
				return nil, bad("malformed line declaration")
			}
			n, err := strconv.Atoi(tokens[2])
			if err != nil || n < 0 || len(tokens) < 3+2*n {
				return nil, bad("bad field count")
			}
			spec := &LineSpec{Type: tokens[1][0], Object: tokens[0] == "O", listIdx: -1}
			for i := 0; i < n; i++ {
				ft, ok := fieldTypeNames[tokens[4+2*i]]
				if !ok {
					return nil, bad("unknown field type " + tokens[4+2*i])
				}
				if ft.IsList() {
					if spec.listIdx >= 0 {
						return nil, bad("more than one list field")
					}
					spec.listIdx = i
				}
				spec.Fields = append(spec.Fields, ft)
			}
			cur.lines[spec.Type] = spec
			if spec.Object {
				lastObj = spec
			}
		case "G":
			if lastObj == nil || len(tokens) < 2 || len(tokens[1]) != 1 {
				return nil, bad("group without object")
			}
			lastObj.Group = tokens[1][0]
		default:
			return nil, bad("unknown schema record")
		}
	}
	if len(s.files) == 0 {
		return nil, errors.E(errors.Invalid, "onecode.ParseSchema: no file types declared")
	}
	return s, nil
}

// MustParseSchema is ParseSchema for schema text compiled into the binary.
func MustParseSchema(text string) *Schema {
	s, err := ParseSchema(text)
	if err != nil {
		panic(err)
	}
	return s
}
