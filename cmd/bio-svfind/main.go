// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
bio-svfind finds candidate insertions in a pairwise alignment file.  Two
collinear alignments whose B intervals abut but whose A intervals are
separated by a gap imply an insertion in A relative to B.  With -a the
insertions in the first sequence file are written; with -b those in the
second.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alntools/alntools/svfind"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

const version = "0.1"

var (
	maxOverhang = flag.Int64("w", svfind.DefaultOpts.MaxOverhang, "Maximum distance between the B ends of two joined alignments")
	minSize     = flag.Int64("s", svfind.DefaultOpts.MinSize, "Insertions must be longer than this; negative values are treated as 0")
	maxSize     = flag.Int64("m", svfind.DefaultOpts.MaxSize, "Insertions must be shorter than this")
	minFlank    = flag.Int64("f", svfind.DefaultOpts.MinFlank, "Minimum aligned length of each flanking alignment")
	varExtSize  = flag.Int64("x", svfind.DefaultOpts.VarExtSize, "Number of A bases reported on each side of an insertion")
	termSeqSize = flag.Int64("q", svfind.DefaultOpts.TermSeqSize, "Number of B bases reported on each side of the junction")
	aOutPath    = flag.String("a", "", "Output path for insertions in the first sequence file")
	bOutPath    = flag.String("b", "", "Output path for insertions in the second sequence file; not valid for self-alignments")
	parallelism = flag.Int("parallelism", svfind.DefaultOpts.Parallelism, "Maximum number of concurrent join jobs; 0 = runtime.NumCPU()")
)

func bioSvfindUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -a out.1sv [-b out.1sv] alnpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioSvfindUsage
	shutdown := grail.Init()
	defer shutdown()

	positionalArgs := flag.Args()
	if len(positionalArgs) != 1 {
		log.Fatalf("Expected exactly one positional argument (alnpath); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
	}
	if *aOutPath == "" && *bOutPath == "" {
		log.Fatalf("At least one of -a and -b is required")
	}
	ctx := vcontext.Background()
	opts := svfind.RunOpts{
		Opts: svfind.Opts{
			MaxOverhang: *maxOverhang,
			MinSize:     *minSize,
			MaxSize:     *maxSize,
			MinFlank:    *minFlank,
			VarExtSize:  *varExtSize,
			TermSeqSize: *termSeqSize,
			Parallelism: *parallelism,
		},
		AlnPath:  positionalArgs[0],
		AOutPath: *aOutPath,
		BOutPath: *bOutPath,
		Version:  version,
		Command:  strings.Join(os.Args, " "),
	}
	if err := svfind.Run(ctx, opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
