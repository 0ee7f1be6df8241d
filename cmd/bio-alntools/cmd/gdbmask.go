package cmd

import (
	"context"
	"fmt"

	"github.com/alntools/alntools/encoding/onecode"
	"github.com/alntools/alntools/gdb"
	"github.com/alntools/alntools/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// gdbmask replaces the masks of the GDB at inPath with the BED intervals at
// bedPath and writes the result to outPath, or back to inPath if outPath is
// empty.
func gdbmask(ctx context.Context, inPath, bedPath, outPath string) error {
	r, err := onecode.Open(ctx, inPath, gdb.Schema, "gdb")
	if err != nil {
		return err
	}
	g, err := gdb.Read(r, 1)
	if err != nil {
		return err
	}
	lines, err := interval.ReadTanBEDFromPath(ctx, bedPath, g)
	if err != nil {
		return err
	}
	log.Printf("read %d bed lines from %s", len(lines), bedPath)
	g.ReplaceMasks(lines)

	overwrite := outPath == ""
	if overwrite {
		outPath = inPath
	}
	w, err := onecode.Create(ctx, outPath, gdb.Schema, "gdb")
	if err != nil {
		return err
	}
	w.InheritProvenance(r)
	w.AddProvenance("gdbmask", version, command())
	if err := g.Write(w, 1); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.E(err, "gdbmask: writing", outPath)
	}
	log.Printf("%s", g.Summary())
	if overwrite {
		fmt.Printf("!! rerun GIXmake %s to apply new mask\n", inPath)
	}
	return nil
}
