package svfind

import (
	"bytes"
	"context"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alntools/alntools/aln"
	"github.com/alntools/alntools/biosimd"
	"github.com/alntools/alntools/encoding/fasta"
	"github.com/alntools/alntools/encoding/onecode"
	"github.com/alntools/alntools/gdb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

var testOpts = Opts{
	MaxOverhang: 5,
	MinSize:     0,
	MaxSize:     100,
	MinFlank:    10,
	VarExtSize:  3,
	TermSeqSize: 2,
	Parallelism: 1,
}

func olap(a, ab, ae, b, bb, be int64, comp bool) aln.Overlap {
	o := aln.Overlap{AID: int(a), BID: int(b), Path: aln.Path{ABegin: ab, AEnd: ae, BBegin: bb, BEnd: be}}
	if comp {
		o.Flags = aln.Comp
	}
	return o
}

type fakeSource [][]byte

func (f fakeSource) Advance(c int) ([]byte, error) { return f[c], nil }

// testSeq returns n pseudo-random bases.
func testSeq(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

func TestValidate(t *testing.T) {
	opts := DefaultOpts
	assert.NoError(t, opts.Validate())
	opts.MinSize = -5
	assert.NoError(t, opts.Validate())
	expect.EQ(t, opts.MinSize, int64(0))

	for _, test := range []struct {
		modify    func(o *Opts)
		errSubstr string
	}{
		{func(o *Opts) { o.MaxOverhang = 0 }, "max overhang"},
		{func(o *Opts) { o.MaxSize = 0 }, "max size"},
		{func(o *Opts) { o.MinFlank = -1 }, "min flank"},
		{func(o *Opts) { o.VarExtSize = -1 }, "extension"},
		{func(o *Opts) { o.TermSeqSize = -1 }, "terminal"},
		{func(o *Opts) { o.MinSize = 60000 }, "must not exceed"},
		{func(o *Opts) { o.MinFlank = 79 }, "at least"},
	} {
		opts := DefaultOpts
		test.modify(&opts)
		err := opts.Validate()
		assert.NotNil(t, err)
		expect.True(t, errors.Is(errors.Precondition, err))
		expect.HasSubstr(t, err.Error(), test.errSubstr)
	}
}

func TestJoin(t *testing.T) {
	for _, test := range []struct {
		name  string
		olaps []aln.Overlap
		want  []Insertion
	}{
		{
			"forward",
			[]aln.Overlap{olap(0, 0, 20, 0, 0, 20, false), olap(0, 30, 50, 0, 21, 41, false)},
			[]Insertion{{A: 0, ABegin: 20, AEnd: 30, B: 0, BMatchBegin: 20, BMatchEnd: 21,
				LeftFlank: 20, RightFlank: 20, TermLen: 5}},
		},
		{
			"reverse",
			[]aln.Overlap{olap(0, 60, 80, 0, 0, 20, true), olap(0, 30, 50, 0, 22, 42, true)},
			[]Insertion{{A: 0, ABegin: 50, AEnd: 60, B: 0, BMatchBegin: 20, BMatchEnd: 22, Comp: true,
				LeftFlank: 20, RightFlank: 20, TermLen: 6}},
		},
		{
			// Complemented pairs are only joined when the later alignment on B
			// precedes the earlier one on A.
			"reverse with forward layout",
			[]aln.Overlap{olap(0, 0, 20, 0, 0, 20, true), olap(0, 30, 50, 0, 21, 41, true)},
			nil,
		},
		{
			"forward with reverse layout",
			[]aln.Overlap{olap(0, 60, 80, 0, 0, 20, false), olap(0, 30, 50, 0, 22, 42, false)},
			nil,
		},
		{
			"orientation mismatch",
			[]aln.Overlap{olap(0, 0, 20, 0, 0, 20, false), olap(0, 30, 50, 0, 21, 41, true)},
			nil,
		},
		{
			"short flank",
			[]aln.Overlap{olap(0, 0, 9, 0, 11, 20, false), olap(0, 30, 50, 0, 21, 41, false)},
			nil,
		},
		{
			"gap too large",
			[]aln.Overlap{olap(0, 0, 20, 0, 0, 20, false), olap(0, 120, 140, 0, 21, 41, false)},
			nil,
		},
		{
			"gap not above min",
			[]aln.Overlap{olap(0, 0, 20, 0, 0, 20, false), olap(0, 20, 40, 0, 21, 41, false)},
			nil,
		},
		{
			// Alignments starting more than MaxOverhang before the end of the
			// first on B are skipped; the scan stops at the first one starting
			// more than MaxOverhang after it.
			"window",
			[]aln.Overlap{
				olap(0, 0, 20, 0, 0, 20, false),
				olap(0, 25, 45, 0, 14, 34, false),
				olap(0, 40, 60, 0, 18, 38, false),
				olap(0, 70, 90, 0, 30, 50, false),
			},
			[]Insertion{
				{A: 0, ABegin: 20, AEnd: 40, B: 0, BMatchBegin: 20, BMatchEnd: 18, LeftFlank: 20, RightFlank: 20, TermLen: 6},
				{A: 0, ABegin: 45, AEnd: 70, B: 0, BMatchBegin: 34, BMatchEnd: 30, LeftFlank: 20, RightFlank: 20, TermLen: 8},
			},
		},
		{
			"different contigs",
			[]aln.Overlap{olap(0, 0, 20, 0, 0, 20, false), olap(1, 30, 50, 0, 21, 41, false)},
			nil,
		},
	} {
		olaps := append([]aln.Overlap{}, test.olaps...)
		aln.Sort(olaps)
		got, err := FindInsertions(olaps, &testOpts)
		assert.NoError(t, err)
		expect.EQ(t, got, test.want, test.name)
	}
}

func TestJoinDefaultOpts(t *testing.T) {
	olaps := []aln.Overlap{
		olap(0, 1350, 2500, 0, 1210, 2360, false),
		olap(0, 0, 1200, 0, 0, 1200, false),
	}
	aln.Sort(olaps)
	opts := DefaultOpts
	opts.Parallelism = 1
	got, err := FindInsertions(olaps, &opts)
	assert.NoError(t, err)
	expect.EQ(t, got, []Insertion{{A: 0, ABegin: 1200, AEnd: 1350, B: 0, BMatchBegin: 1200, BMatchEnd: 1210,
		LeftFlank: 1200, RightFlank: 1150, TermLen: 70}})
}

func TestParallelJoin(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	var olaps []aln.Overlap
	for i := 0; i < 5000; i++ {
		ab := r.Int63n(1000)
		bb := r.Int63n(1000)
		n := 10 + r.Int63n(30)
		olaps = append(olaps, olap(r.Int63n(4), ab, ab+n, r.Int63n(4), bb, bb+n, r.Intn(2) == 0))
	}
	aln.Sort(olaps)
	opts := testOpts
	want, err := FindInsertions(olaps, &opts)
	assert.NoError(t, err)
	expect.True(t, len(want) > 0)
	for _, parallelism := range []int{0, 3, 7, 100} {
		opts.Parallelism = parallelism
		got, err := FindInsertions(olaps, &opts)
		assert.NoError(t, err)
		expect.EQ(t, got, want, "parallelism %d", parallelism)
	}
	got, err := FindInsertions(nil, &opts)
	assert.NoError(t, err)
	expect.EQ(t, len(got), 0)
}

func TestTermSeqs(t *testing.T) {
	b0, b1 := testSeq(50, 1), testSeq(60, 2)
	ins := []Insertion{
		{A: 0, B: 1, BMatchBegin: 20, BMatchEnd: 22, Comp: true, TermLen: 6},
		{A: 1, B: 0, BMatchBegin: 20, BMatchEnd: 21, TermLen: 5},
		{A: 2, B: 1, BMatchBegin: 40, BMatchEnd: 38, TermLen: 6},
	}
	term, err := AddTermSeqs(ins, fakeSource{b0, b1}, &testOpts)
	assert.NoError(t, err)
	expect.EQ(t, len(term), 17)
	expect.EQ(t, []int{ins[0].A, ins[1].A, ins[2].A}, []int{1, 0, 2})

	seq := func(in Insertion) string {
		return string(term[in.TermOffset : in.TermOffset+in.TermLen])
	}
	expect.EQ(t, seq(ins[0]), string(b0[18:23]))
	rc := append([]byte{}, b1[18:24]...)
	biosimd.ReverseComp8Inplace(rc)
	expect.EQ(t, seq(ins[1]), string(rc))
	expect.EQ(t, seq(ins[2]), string(b1[36:42]))

	for _, in := range []Insertion{
		{B: 0, BMatchBegin: 1, BMatchEnd: 3, TermLen: 6},
		{B: 0, BMatchBegin: 49, BMatchEnd: 47, TermLen: 6},
	} {
		_, err := AddTermSeqs([]Insertion{in}, fakeSource{b0}, &testOpts)
		expect.True(t, errors.Is(errors.Integrity, err), "insertion %+v: %v", in, err)
	}
}

func TestDedup(t *testing.T) {
	ins := []Insertion{
		{A: 1, ABegin: 5, AEnd: 9, B: 0},
		{A: 0, ABegin: 5, AEnd: 9, B: 3},
		{A: 1, ABegin: 5, AEnd: 9, B: 2},
		{A: 0, ABegin: 5, AEnd: 8, B: 1},
		{A: 0, ABegin: 5, AEnd: 9, B: 4},
	}
	expect.EQ(t, Dedup(ins), []Insertion{
		{A: 0, ABegin: 5, AEnd: 8, B: 1},
		{A: 0, ABegin: 5, AEnd: 9, B: 3},
		{A: 1, ABegin: 5, AEnd: 9, B: 0},
	})
}

func readSV(r *onecode.Reader) []string {
	var lines []string
	for r.Scan() {
		l := r.Line()
		s := string(l.Type)
		switch l.Type {
		case 'S', 'Q', 'I':
			s += " " + l.Str()
		case 'C':
		default:
			for i := 0; i < l.NumFields(); i++ {
				s += " " + strconv.FormatInt(l.Int(i), 10)
			}
		}
		lines = append(lines, s)
	}
	return lines
}

func TestReport(t *testing.T) {
	a0, b0 := testSeq(52, 3), testSeq(50, 4)
	olaps := []aln.Overlap{
		olap(0, 0, 20, 0, 0, 20, false),
		olap(0, 30, 50, 0, 21, 41, false),
		olap(0, 0, 20, 0, 0, 20, false),
		olap(0, 30, 50, 0, 21, 41, false),
	}
	aln.Sort(olaps)
	var buf bytes.Buffer
	w, err := onecode.NewWriter(&buf, Schema, FileType)
	assert.NoError(t, err)
	n, err := Report(w, olaps, fakeSource{a0}, fakeSource{b0}, &testOpts)
	assert.NoError(t, err)
	// The pair is joined four times, with a single distinct result.
	expect.EQ(t, n, 1)
	assert.NoError(t, w.Close())

	r, err := onecode.NewReader(&buf, Schema, FileType)
	assert.NoError(t, err)
	expect.EQ(t, r.SubType(), FileType)
	expect.EQ(t, readSV(r), []string{
		"o 5", "s 0", "m 100", "f 10", "x 3", "q 2",
		"V 0 20 30",
		"B 0 20 21",
		"F 20 20",
		"X 3 3",
		"Q " + string(b0[18:23]),
		"S " + string(a0[17:33]),
		"I 0:20-30_0:20-21",
	})

	// Right extension is clipped at the end of the contig.
	buf.Reset()
	w, err = onecode.NewWriter(&buf, Schema, FileType)
	assert.NoError(t, err)
	ins := []Insertion{{A: 0, ABegin: 1, AEnd: 51, B: 0, TermLen: 0}}
	assert.NoError(t, Emit(w, ins, nil, fakeSource{a0}, &testOpts))
	assert.NoError(t, w.Close())
	r, err = onecode.NewReader(&buf, Schema, FileType)
	assert.NoError(t, err)
	lines := readSV(r)
	expect.EQ(t, lines[3], "X 1 1")
	expect.EQ(t, lines[5], "S "+string(a0))

	w, err = onecode.NewWriter(&buf, Schema, FileType)
	assert.NoError(t, err)
	ins = []Insertion{{A: 0, ABegin: 40, AEnd: 53}}
	err = Emit(w, ins, nil, fakeSource{a0}, &testOpts)
	expect.True(t, errors.Is(errors.Integrity, err))
}

func writeFasta(t *testing.T, path, name string, seq []byte) {
	assert.NoError(t, ioutil.WriteFile(path, []byte(">"+name+" test\n"+string(seq)+"\n"), 0644))
}

// writeTestAln writes an alignment file; indexes, if given, are embedded as
// the indexes of db1 and db2 in order.
func writeTestAln(t *testing.T, path, db1, db2, dir string, olaps []aln.Overlap, indexes ...*gdb.GDB) {
	ctx := context.Background()
	w, err := onecode.Create(ctx, path, gdb.Schema, "aln")
	assert.NoError(t, err)
	w.AddReference(db1, aln.RefDB1)
	if db2 != "" {
		w.AddReference(db2, aln.RefDB2)
	}
	w.AddReference(dir, gdb.RefPath)
	for i, g := range indexes {
		assert.NoError(t, g.Write(w, i+1))
	}
	for _, o := range olaps {
		assert.NoError(t, aln.Write(w, o))
	}
	assert.NoError(t, w.Close())
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	a0, b0 := testSeq(60, 5), testSeq(50, 6)
	writeFasta(t, filepath.Join(tempDir, "a.fa"), "a0", a0)
	writeFasta(t, filepath.Join(tempDir, "b.fa"), "b0", b0)
	alnPath := filepath.Join(tempDir, "ab.1aln")
	writeTestAln(t, alnPath, "a.fa", "b.fa", tempDir, []aln.Overlap{
		olap(0, 30, 50, 0, 21, 41, false),
		olap(0, 0, 20, 0, 0, 20, false),
	})

	opts := RunOpts{
		Opts:     testOpts,
		AlnPath:  alnPath,
		AOutPath: filepath.Join(tempDir, "a.1sv"),
		BOutPath: filepath.Join(tempDir, "b.1sv.gz"),
		Command:  "svfind test",
	}
	assert.NoError(t, Run(ctx, opts))

	r, err := onecode.Open(ctx, opts.AOutPath, Schema, FileType)
	assert.NoError(t, err)
	expect.EQ(t, r.Stats('V').Count, int64(1))
	expect.EQ(t, r.References(), []onecode.Reference{{Filename: "a.fa", Count: 1}, {Filename: "b.fa", Count: 2}, {Filename: tempDir, Count: gdb.RefPath}})
	assert.EQ(t, len(r.Provenance()), 1)
	expect.EQ(t, r.Provenance()[0].Command, "svfind test")
	assert.True(t, r.Goto('S', 1))
	assert.True(t, r.Scan())
	expect.EQ(t, r.Line().Str(), string(a0[17:33]))

	// Seen from b, the pair is a deletion and yields nothing.
	r, err = onecode.Open(ctx, opts.BOutPath, Schema, FileType)
	assert.NoError(t, err)
	expect.EQ(t, r.Stats('V').Count, int64(0))
	expect.EQ(t, r.Stats('o').Count, int64(1))
	expect.EQ(t, r.References(), []onecode.Reference{{Filename: "b.fa", Count: 1}, {Filename: "a.fa", Count: 2}, {Filename: tempDir, Count: gdb.RefPath}})
}

func fastaIndex(t *testing.T, name string, seq []byte) *gdb.GDB {
	g, err := gdb.FromFasta(fasta.NewScanner(bytes.NewReader([]byte(">s\n"+string(seq)+"\n"))), name)
	assert.NoError(t, err)
	return g
}

func TestRunEmbeddedIndex(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	a0, b0 := testSeq(60, 5), testSeq(50, 6)
	writeFasta(t, filepath.Join(tempDir, "a.fa"), "s", a0)
	writeFasta(t, filepath.Join(tempDir, "b.fa"), "s", b0)
	olaps := []aln.Overlap{
		olap(0, 30, 50, 0, 21, 41, false),
		olap(0, 0, 20, 0, 0, 20, false),
	}
	alnPath := filepath.Join(tempDir, "ab.1aln")
	writeTestAln(t, alnPath, "a.fa", "b.fa", tempDir, olaps,
		fastaIndex(t, "a.fa", a0), fastaIndex(t, "b.fa", b0))
	outPath := filepath.Join(tempDir, "a.1sv")
	assert.NoError(t, Run(ctx, RunOpts{Opts: testOpts, AlnPath: alnPath, AOutPath: outPath}))
	r, err := onecode.Open(ctx, outPath, Schema, FileType)
	assert.NoError(t, err)
	expect.EQ(t, r.Stats('V').Count, int64(1))

	// The embedded index, not the FASTA, defines the expected lengths.
	writeTestAln(t, alnPath, "a.fa", "b.fa", tempDir, olaps,
		fastaIndex(t, "a.fa", a0), fastaIndex(t, "b.fa", append(append([]byte{}, b0...), 'A')))
	assert.NoError(t, os.Remove(outPath))
	err = Run(ctx, RunOpts{Opts: testOpts, AlnPath: alnPath, AOutPath: outPath})
	expect.True(t, errors.Is(errors.Integrity, err), "%v", err)
	_, err = os.Stat(outPath)
	expect.True(t, os.IsNotExist(err))
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	writeFasta(t, filepath.Join(tempDir, "a.fa"), "a0", testSeq(60, 7))
	writeFasta(t, filepath.Join(tempDir, "short.fa"), "s0", testSeq(22, 8))
	olaps := []aln.Overlap{olap(0, 0, 20, 0, 0, 20, false), olap(0, 30, 50, 0, 21, 41, false)}

	selfPath := filepath.Join(tempDir, "self.1aln")
	writeTestAln(t, selfPath, "a.fa", "", tempDir, olaps)
	err := Run(ctx, RunOpts{Opts: testOpts, AlnPath: selfPath, BOutPath: filepath.Join(tempDir, "x.1sv")})
	expect.True(t, errors.Is(errors.Precondition, err))

	opts := testOpts
	opts.MaxOverhang = 0
	err = Run(ctx, RunOpts{Opts: opts, AlnPath: selfPath, AOutPath: filepath.Join(tempDir, "x.1sv")})
	expect.True(t, errors.Is(errors.Precondition, err))

	// The terminal sequence runs off the end of the short contig; no partial
	// output is left behind.
	shortPath := filepath.Join(tempDir, "short.1aln")
	writeTestAln(t, shortPath, "a.fa", "short.fa", tempDir, olaps)
	outPath := filepath.Join(tempDir, "short.1sv")
	err = Run(ctx, RunOpts{Opts: testOpts, AlnPath: shortPath, AOutPath: outPath})
	expect.True(t, errors.Is(errors.Integrity, err))
	_, err = os.Stat(outPath)
	expect.True(t, os.IsNotExist(err))
}

func TestRunSelf(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	a0 := testSeq(60, 9)
	writeFasta(t, filepath.Join(tempDir, "a.fa"), "a0", a0)
	alnPath := filepath.Join(tempDir, "self.1aln")
	// Relative names are resolved against the path reference.
	writeTestAln(t, alnPath, "a.fa", "a.fa", tempDir, []aln.Overlap{
		olap(0, 0, 20, 0, 0, 20, false),
		olap(0, 30, 50, 0, 21, 41, false),
	})
	outPath := filepath.Join(tempDir, "self.1sv")
	assert.NoError(t, Run(ctx, RunOpts{Opts: testOpts, AlnPath: alnPath, AOutPath: outPath}))
	r, err := onecode.Open(ctx, outPath, Schema, FileType)
	assert.NoError(t, err)
	// Only the unflipped direction of the pair is an insertion.
	expect.EQ(t, r.Stats('V').Count, int64(1))
	expect.EQ(t, r.References(), []onecode.Reference{{Filename: "a.fa", Count: 1}, {Filename: tempDir, Count: gdb.RefPath}})
}
