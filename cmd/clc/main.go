// Command clc compiles a C-subset source file to AT&T x86-64 assembly.
//
// Usage: clc <path/to/file.c> [flags]
//
// Exit codes follow spec.md §6.2: wrong argument count, an unreadable file,
// a parse error, or any ERROR-severity diagnostic all exit 1 with a message
// on stderr; otherwise clc exits 0 with assembly on stdout (or the -o file).
package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"clc/internal/config"
	"clc/internal/diagnostics"
	"clc/internal/display"
	"clc/internal/lower"
	"clc/internal/parser"
	"clc/internal/trace"
)

var (
	flagConfig  string
	flagTrace   bool
	flagDumpIR  bool
	flagNoColor bool
	flagOutput  string
)

func main() {
	root := &cobra.Command{
		Use:           "clc <path/to/file.c>",
		Short:         "compile a C-subset source file to x86-64 assembly",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().StringVar(&flagConfig, "config", "", "path to clc.toml (overrides $CLC_CONFIG / default search)")
	root.Flags().BoolVar(&flagTrace, "trace", false, "enable internal trace logging to stderr")
	root.Flags().BoolVar(&flagDumpIR, "dump-ir", false, "pretty-print the lowered CFG to stderr before emitting assembly")
	root.Flags().BoolVar(&flagNoColor, "no-color", false, "force-disable colorized diagnostics even on a TTY")
	root.Flags().StringVarP(&flagOutput, "output", "o", "", "path to write assembly (default: stdout)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfgPath := config.Resolve(flagConfig)
	cc := config.Load(cfgPath)

	if flagTrace {
		cc.Trace.Enabled = true
	}
	tr := trace.New(&cc.Trace)

	// Without a loaded clc.toml, color tracks TTY detection (the "color off,
	// CLI enables it only on a detected TTY" default from internal/config);
	// an explicit [diagnostics] color setting overrides that autodetection,
	// and --no-color always wins last.
	color := term.IsTerminal(int(os.Stderr.Fd()))
	if config.Loaded() {
		color = cc.Diagnostics.Color
	}
	color = display.IsColorCapable(color, flagNoColor)
	diag := diagnostics.NewStderr(color)

	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	prog, err := parser.Parse(src)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	lw := lower.New(diag, tr, cc.Target.WSLExitCodes)
	lw.Lower(prog)

	if flagDumpIR {
		for _, b := range lw.CFG.Blocks() {
			fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(b))
		}
	}

	if diag.HasError() {
		os.Exit(1)
	}

	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return errors.Wrapf(err, "creating %s", flagOutput)
		}
		defer f.Close()
		out = f
	}

	lw.CFG.Emit(out)
	return nil
}
