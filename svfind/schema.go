package svfind

import "github.com/alntools/alntools/encoding/onecode"

// SchemaText declares the sv output file type.  The global lines record the
// thresholds of the run; each V object is one insertion candidate.
const SchemaText = `1 3 def 1 0               schema for svfind
.
P 3 seq                   SEQUENCE
S 2 sv                    structural variants
D o 1 3 INT               max overhang
D s 1 3 INT               min variant size
D m 1 3 INT               max variant size
D x 1 3 INT               variant extension size
D f 1 3 INT               min flank size
D q 1 3 INT               terminal sequence size
O V 3 3 INT 3 INT 3 INT   variant: a, a_begin, a_end
D O 1 3 INT               other variant
D B 3 3 INT 3 INT 3 INT   b, b_match_begin, b_match_end
D C 0                     b is reverse complemented
D F 2 3 INT 3 INT         left and right flank sizes
D X 2 3 INT 3 INT         left and right extension sizes in the S sequence
D Q 1 3 DNA               terminal sequence in b
D D 1 3 DNA               deleted sequence
D R 2 3 INT 3 INT         repeat unit and count
D T 2 3 INT 3 INT         tandem repeat unit and count
G S                       variants group sequences
O S 1 3 DNA               sequence of the insertion with extensions
D I 1 6 STRING            identifier
`

// Schema is the parsed SchemaText.
var Schema = onecode.MustParseSchema(SchemaText)

// FileType is the file type of svfind output.
const FileType = "sv"
