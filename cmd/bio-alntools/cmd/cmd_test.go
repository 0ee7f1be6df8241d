package cmd

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/alntools/alntools/encoding/onecode"
	"github.com/alntools/alntools/gdb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func readGDB(t *testing.T, path string) (*onecode.Reader, *gdb.GDB) {
	r, err := onecode.Open(context.Background(), path, gdb.Schema, "gdb")
	assert.NoError(t, err)
	g, err := gdb.Read(r, 1)
	assert.NoError(t, err)
	return r, g
}

func TestDefaultGDBPath(t *testing.T) {
	expect.EQ(t, defaultGDBPath("/a/seqs.fa.gz"), "/a/seqs.1gdb")
	expect.EQ(t, defaultGDBPath("seqs.fasta"), "seqs.1gdb")
}

func TestFatogdbAndMask(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	seqPath := filepath.Join(tempDir, "seqs.fa")
	assert.NoError(t, ioutil.WriteFile(seqPath, []byte(">chr1\nACGTNNNNACGT\n>chr2\nAAAA\n"), 0644))
	assert.NoError(t, fatogdb(ctx, seqPath, ""))

	gdbPath := filepath.Join(tempDir, "seqs.1gdb")
	_, g := readGDB(t, gdbPath)
	expect.EQ(t, g.NumSeq(), 2)
	expect.EQ(t, g.NumCtg(), 3)
	expect.EQ(t, g.TotSeq(), int64(16))
	expect.EQ(t, g.TotCtg(), int64(12))
	expect.EQ(t, g.SeqFile, "seqs.fa")
	expect.EQ(t, g.SeqPath, tempDir)

	bedPath := filepath.Join(tempDir, "tan.bed")
	assert.NoError(t, ioutil.WriteFile(bedPath, []byte("chr2\t1\t3\t1\t0\nchr1\t2\t10\t2\t900\n"), 0644))
	outPath := filepath.Join(tempDir, "masked.1gdb")
	assert.NoError(t, gdbmask(ctx, gdbPath, bedPath, outPath))
	r, g := readGDB(t, outPath)
	expect.EQ(t, g.Masks(0), []int64{2, 4})
	expect.EQ(t, g.Masks(1), []int64{0, 2})
	expect.EQ(t, g.Masks(2), []int64{1, 3})
	expect.EQ(t, g.TotMask(), int64(6))
	var progs []string
	for _, p := range r.Provenance() {
		progs = append(progs, p.Program)
	}
	expect.EQ(t, progs, []string{"fatogdb", "gdbmask"})

	// Without -o the input is replaced.
	assert.NoError(t, ioutil.WriteFile(bedPath, []byte("chr1\t0\t1\t1\t0\n"), 0644))
	assert.NoError(t, gdbmask(ctx, outPath, bedPath, ""))
	_, g = readGDB(t, outPath)
	expect.EQ(t, g.Masks(0), []int64{0, 1})
	expect.EQ(t, len(g.Masks(1)), 0)
	expect.EQ(t, g.TotMask(), int64(1))

	assert.NoError(t, ioutil.WriteFile(bedPath, []byte("chrX\t0\t1\t1\t0\n"), 0644))
	err := gdbmask(ctx, outPath, bedPath, "")
	expect.True(t, errors.Is(errors.NotExist, err), "%v", err)
	assert.NoError(t, ioutil.WriteFile(bedPath, []byte("chr2\t0\t5\t1\t0\n"), 0644))
	err = gdbmask(ctx, outPath, bedPath, "")
	expect.True(t, errors.Is(errors.Integrity, err), "%v", err)
}

func TestTanbed(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	alnPath := filepath.Join(tempDir, "tan.1aln")
	aln := `1 3 aln 1 0
< 7 seqs.fa 1
g
S 4 chr1
C 20
A 0 4 12 0 0 8
D 3
U 4
`
	assert.NoError(t, ioutil.WriteFile(alnPath, []byte(aln), 0644))
	var buf bytes.Buffer
	assert.NoError(t, tanbed(ctx, alnPath, "", &buf))
	expect.EQ(t, buf.String(), "chr1\t0\t12\t4\t750\n")

	bedPath := filepath.Join(tempDir, "tan.bed")
	assert.NoError(t, tanbed(ctx, alnPath, bedPath, nil))
	data, err := ioutil.ReadFile(bedPath)
	assert.NoError(t, err)
	expect.EQ(t, string(data), buf.String())
}
