// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

import (
	"github.com/grailbio/base/simd"
)

// revComp8Table maps each ASCII nucleotide to its complement, preserving
// case.  Every other byte maps to 'N' or 'n'.
var revComp8Table [256]byte

func init() {
	for i := range revComp8Table {
		revComp8Table[i] = 'N'
		if i >= 'a' && i <= 'z' {
			revComp8Table[i] = 'n'
		}
	}
	for _, pair := range [...]string{"AT", "CG", "at", "cg"} {
		revComp8Table[pair[0]] = pair[1]
		revComp8Table[pair[1]] = pair[0]
	}
}

// ReverseComp8Inplace reverse-complements ascii8[], assuming that it's using
// ASCII encoding.  'A'/'C'/'G'/'T' map to 'T'/'G'/'C'/'A', lowercase bases map
// to lowercase complements, other lowercase letters map to 'n', and
// everything else maps to 'N'.
func ReverseComp8Inplace(ascii8 []byte) {
	simd.Reverse8Inplace(ascii8)
	for i, b := range ascii8 {
		ascii8[i] = revComp8Table[b]
	}
}
