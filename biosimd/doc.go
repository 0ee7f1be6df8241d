// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides table-driven implementations of the byte-array
// operations on ASCII nucleotide sequences used by the index and variant
// tools: reverse complement and base counting.
//
// See base/simd/doc.go for the conventions followed by the exported
// functions.
package biosimd
