package svfind

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Opts holds the detection thresholds.
type Opts struct {
	// MaxOverhang is the largest distance on B between the end of one
	// alignment and the start of the next for them to be joined.
	MaxOverhang int64
	// MinSize and MaxSize bound the size of the unexplained gap on A,
	// exclusively.
	MinSize int64
	MaxSize int64
	// MinFlank is the minimum aligned length of each joined alignment.
	MinFlank int64
	// VarExtSize is the number of bases of A included on each side of the
	// insertion sequence.
	VarExtSize int64
	// TermSeqSize is the number of bases of B included on each side of the
	// matched junction.
	TermSeqSize int64
	// Parallelism is the number of join workers; 0 means one per CPU.
	Parallelism int
}

// DefaultOpts are the default thresholds.
var DefaultOpts = Opts{
	MaxOverhang: 50,
	MinSize:     0,
	MaxSize:     50000,
	MinFlank:    1000,
	VarExtSize:  30,
	TermSeqSize: 30,
	Parallelism: 0,
}

// Validate checks the thresholds.  A negative MinSize is clamped to 0.
func (o *Opts) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return errors.E(errors.Precondition, "svfind: "+fmt.Sprintf(format, args...))
	}
	if o.MaxOverhang <= 0 {
		return bad("max overhang %d must be positive", o.MaxOverhang)
	}
	if o.MinSize < 0 {
		o.MinSize = 0
	}
	if o.MaxSize <= 0 {
		return bad("max size %d must be positive", o.MaxSize)
	}
	if o.MinFlank < 0 {
		return bad("min flank %d must not be negative", o.MinFlank)
	}
	if o.VarExtSize < 0 {
		return bad("variant extension size %d must not be negative", o.VarExtSize)
	}
	if o.TermSeqSize < 0 {
		return bad("terminal sequence size %d must not be negative", o.TermSeqSize)
	}
	if o.MinSize > o.MaxSize {
		return bad("min size %d must not exceed max size %d", o.MinSize, o.MaxSize)
	}
	if o.MinFlank < o.TermSeqSize+o.MaxOverhang {
		return bad("min flank %d must be at least terminal sequence size %d + max overhang %d",
			o.MinFlank, o.TermSeqSize, o.MaxOverhang)
	}
	if o.Parallelism < 0 {
		return bad("parallelism %d must not be negative", o.Parallelism)
	}
	return nil
}
