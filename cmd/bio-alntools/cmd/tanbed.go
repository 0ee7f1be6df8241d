package cmd

import (
	"context"
	"io"

	"github.com/alntools/alntools/tandem"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// tanbed writes the repeats of the tandem alignment file alnPath as BED to
// outPath, or to stdout if outPath is empty.
func tanbed(ctx context.Context, alnPath, outPath string, stdout io.Writer) error {
	rp, err := tandem.Read(ctx, alnPath)
	if err != nil {
		return err
	}
	if outPath == "" {
		if err := rp.WriteBED(stdout); err != nil {
			return err
		}
	} else if err := writeBED(ctx, rp, outPath); err != nil {
		return err
	}
	log.Printf("%s", rp.Summary())
	return nil
}

func writeBED(ctx context.Context, rp *tandem.Repeats, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "tanbed: creating", path)
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "tanbed: writing", path)
		}
	}()
	return rp.WriteBED(out.Writer(ctx))
}
