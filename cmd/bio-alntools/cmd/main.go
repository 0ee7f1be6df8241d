package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alntools/alntools/tandem"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

const version = "0.1"

// command returns the command line recorded in output provenance.
func command() string { return strings.Join(os.Args, " ") }

func newCmdGdbmask() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "gdbmask",
		Short:    "Replace the masks of a GDB with the intervals of a BED file",
		ArgsName: "in.1gdb in.bed",
	}
	outFlag := cmd.Flags.String("o", "", "Output GDB path. By default the input is overwritten")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("gdbmask takes a GDB path and a BED path, but got %v", argv)
		}
		return gdbmask(vcontext.Background(), argv[0], argv[1], *outFlag)
	})
	return cmd
}

func newCmdTanbed() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "tanbed",
		Short:    "Write the tandem repeats of a tandem alignment file as BED",
		ArgsName: "tan.1aln",
	}
	outFlag := cmd.Flags.String("o", "", "Output BED path. By default BED is written to stdout")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("tanbed takes one alignment path, but got %v", argv)
		}
		return tanbed(vcontext.Background(), argv[0], *outFlag, env.Stdout)
	})
	return cmd
}

func newCmdTaco() *cmdline.Command {
	cmd := &cmdline.Command{
		Name: "taco",
		Short: `Compress tandem repeats out of a FASTA file.
Each repeat found in the tandem alignment file is replaced by one copy of its unit`,
		ArgsName: "tan.1aln seqs.fa",
	}
	opts := tandem.DefaultCompactOpts
	cmd.Flags.StringVar(&opts.OutPath, "o", "", "Output FASTA path. By default seqs-taco.fa.gz next to the input")
	cmd.Flags.IntVar(&opts.LineWidth, "w", tandem.DefaultCompactOpts.LineWidth, "Output FASTA line width")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("taco takes an alignment path and a FASTA path, but got %v", argv)
		}
		opts.AlnPath, opts.SeqPath = argv[0], argv[1]
		_, err := tandem.Compact(vcontext.Background(), opts)
		return err
	})
	return cmd
}

func newCmdFatogdb() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "fatogdb",
		Short:    "Build a GDB from a FASTA file",
		ArgsName: "seqs.fa",
	}
	outFlag := cmd.Flags.String("o", "", "Output GDB path. By default the FASTA path with its extension replaced by .1gdb")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("fatogdb takes one FASTA path, but got %v", argv)
		}
		return fatogdb(vcontext.Background(), argv[0], *outFlag)
	})
	return cmd
}

func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-alntools",
			Short:    "Tools for working with genome indexes and alignment files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdGdbmask(),
				newCmdTanbed(),
				newCmdTaco(),
				newCmdFatogdb(),
			},
		})
}
