/*Package interval implements the genomic-interval line types shared by the
  index and tandem-repeat tools, together with sort-then-compress and
  5-column BED (name, start, end, unit, score) I/O.
  Coordinates are 0-based and half-open, in sequence (scaffold) space.
*/
package interval
