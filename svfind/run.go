package svfind

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alntools/alntools/aln"
	"github.com/alntools/alntools/encoding/fasta"
	"github.com/alntools/alntools/encoding/onecode"
	"github.com/alntools/alntools/gdb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// RunOpts configures Run.
type RunOpts struct {
	Opts
	// AlnPath is the input alignment file.
	AlnPath string
	// AOutPath, if set, receives insertions in the first sequence file
	// relative to the second.
	AOutPath string
	// BOutPath, if set, receives insertions in the second sequence file
	// relative to the first.  Not valid for self-alignments.
	BOutPath string
	// Version and Command are recorded as provenance of the outputs.
	Version string
	Command string
}

// side is one sequence file of an alignment.
type side struct {
	name string
	g    *gdb.GDB
}

// seqSource is an open sequence file together with a cursor over its
// contigs.
type seqSource struct {
	*gdb.ContigCursor
	f *fasta.File
}

// resolve returns the path of sequence file name.  Relative names that do
// not exist are looked up in dir.
func resolve(ctx context.Context, name, dir string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	if _, err := file.Stat(ctx, name); err == nil {
		return name
	}
	return filepath.Join(dir, name)
}

// indexFasta builds the index of a FASTA file whose alignment file carries
// no embedded index.
func indexFasta(ctx context.Context, path string) (g *gdb.GDB, err error) {
	f, err := fasta.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := f.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	return gdb.FromFasta(f.Scanner, path)
}

func openSource(ctx context.Context, s side, dir string) (*seqSource, error) {
	path := resolve(ctx, s.name, dir)
	g := s.g
	if g == nil {
		var err error
		if g, err = indexFasta(ctx, path); err != nil {
			return nil, err
		}
	}
	log.Printf("%s: %s", path, g.Summary())
	f, err := fasta.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &seqSource{ContigCursor: gdb.NewContigCursor(g, f.Scanner, path), f: f}, nil
}

func (s *seqSource) close(ctx context.Context) error { return s.f.Close(ctx) }

// report writes the insertions of A relative to B to path.  The output is
// removed if anything fails.
func report(ctx context.Context, opts *RunOpts, path string, olaps []aln.Overlap, a, b side, dir string) (err error) {
	start := time.Now()
	w, err := onecode.Create(ctx, path, Schema, FileType)
	if err != nil {
		return err
	}
	defer func() {
		if e := w.Close(); e != nil && err == nil {
			err = errors.E(e, "svfind: writing", path)
		}
		if err != nil {
			if e := file.Remove(ctx, path); e != nil {
				log.Error.Printf("svfind: removing %s: %v", path, e)
			}
		}
	}()
	w.AddProvenance("svfind", opts.Version, opts.Command)
	w.AddReference(a.name, 1)
	if b.name != a.name {
		w.AddReference(b.name, 2)
	}
	if dir != "" {
		w.AddReference(dir, gdb.RefPath)
	}

	as, err := openSource(ctx, a, dir)
	if err != nil {
		return err
	}
	defer func() {
		if e := as.close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	bs, err := openSource(ctx, b, dir)
	if err != nil {
		return err
	}
	defer func() {
		if e := bs.close(ctx); e != nil && err == nil {
			err = e
		}
	}()

	n, err := Report(w, olaps, as, bs, &opts.Opts)
	if err != nil {
		return err
	}
	log.Printf("wrote %d insertions in %s to %s", n, a.name, path)
	log.Debug.Printf("svfind: report %s took %v", path, time.Since(start))
	return nil
}

// Run reads the alignments of opts.AlnPath and writes the requested
// insertion reports.
func Run(ctx context.Context, opts RunOpts) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.AOutPath == "" && opts.BOutPath == "" {
		return errors.E(errors.Precondition, "svfind: no output requested")
	}
	start := time.Now()
	f, err := aln.Open(ctx, opts.AlnPath)
	if err != nil {
		return err
	}
	if f.IsSelf() && opts.BOutPath != "" {
		return errors.E(errors.Precondition, fmt.Sprintf("svfind: %s is a self-alignment; only the first report can be written", opts.AlnPath))
	}
	olaps, err := f.LoadOverlaps()
	if err != nil {
		return err
	}
	log.Printf("read %d overlaps", len(olaps))
	db1 := side{name: f.DB1, g: f.GDB1}
	db2 := side{name: f.DB2, g: f.GDB2}
	if f.IsSelf() {
		olaps = aln.DoubleForSelfAlignment(olaps)
		log.Printf("self-alignment: doubled overlaps to %d", len(olaps))
		db2 = side{name: f.DB1, g: f.GDB1}
	}
	log.Debug.Printf("svfind: loading took %v", time.Since(start))

	if opts.AOutPath != "" {
		aln.Sort(olaps)
		if err := report(ctx, &opts, opts.AOutPath, olaps, db1, db2, f.Path); err != nil {
			return err
		}
	}
	if opts.BOutPath != "" {
		aln.FlipAll(olaps)
		aln.Sort(olaps)
		if err := report(ctx, &opts, opts.BOutPath, olaps, db2, db1, f.Path); err != nil {
			return err
		}
	}
	return nil
}
