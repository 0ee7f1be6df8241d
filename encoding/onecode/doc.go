/*Package onecode reads and writes schema-typed record streams in the ASCII
  form of the ONEcode format used by the alignment tools.

  A stream starts with a header and continues with one record per line.  The
  first character of each line is its line type; the remaining fields are
  typed by the schema:

    1 3 seq 1 0          primary file type, major and minor version
    2 2 sv               optional secondary file type
    ! 6 svfind 3 0.1 ... provenance: program, version, command, date
    < 8 ref.1gdb 1       reference to another file, tagged with a count
    # S 12               number of S lines (ignored on read, recomputed)
    S 4 chr1             a data line with one STRING field
    C 1000               a data line with one INT field
    M 4 0 10 20 30       a data line with one INT_LIST field

  INT and REAL fields are written in decimal.  CHAR fields are a single byte.
  List fields (STRING, DNA and INT_LIST) are prefixed by their length; a line
  type may contain at most one list field.

  Reader loads a complete stream into memory, so it supports random access
  to the k'th line of a type (Goto) and exact per-type statistics (Stats)
  without a separate index.  Writer buffers the body and emits the header,
  including statistics, on Close.
*/
package onecode
