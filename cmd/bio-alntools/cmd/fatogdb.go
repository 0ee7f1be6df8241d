package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/alntools/alntools/encoding/fasta"
	"github.com/alntools/alntools/encoding/onecode"
	"github.com/alntools/alntools/gdb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// defaultGDBPath returns seqPath with any .gz suffix and its extension
// replaced by ".1gdb".
func defaultGDBPath(seqPath string) string {
	stem := strings.TrimSuffix(seqPath, ".gz")
	return strings.TrimSuffix(stem, filepath.Ext(stem)) + ".1gdb"
}

// fatogdb indexes the FASTA file at seqPath and writes the index to
// outPath, or next to the input if outPath is empty.
func fatogdb(ctx context.Context, seqPath, outPath string) (err error) {
	if outPath == "" {
		outPath = defaultGDBPath(seqPath)
	}
	in, err := fasta.Open(ctx, seqPath)
	if err != nil {
		return err
	}
	g, err := gdb.FromFasta(in.Scanner, filepath.Base(seqPath))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}
	g.SeqPath = filepath.Dir(seqPath)

	w, err := onecode.Create(ctx, outPath, gdb.Schema, "gdb")
	if err != nil {
		return err
	}
	w.AddProvenance("fatogdb", version, command())
	if err := g.Write(w, 1); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.E(err, "fatogdb: writing", outPath)
	}
	log.Printf("%s", g.Summary())
	return nil
}
