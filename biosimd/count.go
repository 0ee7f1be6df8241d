// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// baseIndexTable maps 'A'/'C'/'G'/'T' (either case) to 0..3, and everything
// else to 4.
var baseIndexTable [256]byte

func init() {
	for i := range baseIndexTable {
		baseIndexTable[i] = 4
	}
	for i, c := range []byte("ACGT") {
		baseIndexTable[c] = byte(i)
		baseIndexTable[c|0x20] = byte(i)
	}
}

// CountACGT adds the number of occurrences of each of A, C, G and T in
// ascii8[] (case-insensitive) to counts[0..3], and returns the number of
// other bytes.
func CountACGT(ascii8 []byte, counts *[4]int64) int {
	var tally [5]int64
	for _, b := range ascii8 {
		tally[baseIndexTable[b]]++
	}
	for i := range counts {
		counts[i] += tally[i]
	}
	return int(tally[4])
}

// IsN returns true for 'N' and 'n'.
func IsN(b byte) bool {
	return b|0x20 == 'n'
}
