package gdb

import "github.com/alntools/alntools/encoding/onecode"

// SchemaText declares the gdb, seq and aln file types.  An aln file may embed
// one or more GDB skeletons, each introduced by a 'g' line.
const SchemaText = `1 3 def 2 1                 schema for aln and FastGA
.
P 3 gdb                             GDB
D f 4 4 REAL 4 REAL 4 REAL 4 REAL   global: base frequency vector
D u 0                               global: upper case when displayed
O S 1 6 STRING                      id for a scaffold
D G 1 3 INT                         gap of given length
D C 1 3 INT                         contig of given length
D M 1 8 INT_LIST                    mask pair list for a contig
.
P 3 seq                     SEQUENCE
O s 2 3 INT 6 STRING        length and id for group of sequences = a scaffold
G S                         scaffolds (s) group sequence objects (S)
D n 2 4 CHAR 3 INT          non-acgt chars outside (between) sequences within scaffold
O S 1 3 DNA                 sequence
D I 1 6 STRING              identifier of sequence
.
P 3 aln                     ALIGNMENTS
D t 1 3 INT                 trace point spacing in a - global
O g 0                       groups scaffolds into a GDB skeleton
G S                         collection of scaffolds constituting a GDB
O S 1 6 STRING              id for a scaffold
D G 1 3 INT                 gap of given length
D C 1 3 INT                 contig of given length
D M 1 8 INT_LIST            mask pair list for a contig
O a 0                       groups A's into a colinear chain
G A                         chains (a) group alignment objects (A)
D p 2 3 INT 3 INT           spacing in a,b between end of previous alignment and start of next
O A 6 3 INT 3 INT 3 INT 3 INT 3 INT 3 INT
D L 2 3 INT 3 INT           lengths of sequences a and b
D R 0                       flag: reverse-complement sequence b
D D 1 3 INT                 differences: number of diffs = substitions + indels
D T 1 8 INT_LIST            trace points in b
D X 1 8 INT_LIST            number of differences in alignment per trace interval
D Q 1 3 INT                 quality: alignment confidence in phred units
D E 1 3 INT                 match: number of equal bases
D Z 1 6 STRING              cigar string
D U 1 3 INT                 putative unit size of a tandem repeat alignment
`

// Schema is the parsed SchemaText.
var Schema = onecode.MustParseSchema(SchemaText)

// Reference tags used in file headers.
const (
	// RefPath tags the directory in which relative sequence file names are
	// resolved.
	RefPath = 3
)
