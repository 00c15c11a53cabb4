// Package main provides the calc CLI entrypoint.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/joss/calc/internal/plugin/arith"
	"github.com/joss/calc/internal/repl"
)

var (
	version    = "0.1.0"
	pretty     = true
	configFile string
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return repl.ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return repl.ExitStartup
}

func rootCmd() *cobra.Command {
	root := newCommand(CommandConfig{
		Use:   "calc",
		Short: "Interactive calculator with pluggable operations and undoable history",
		Long: `calc: an interactive calculator.

Usage modes:
  calc                     Start the interactive REPL
  calc eval <op> <a> <b>   Compute one result and exit
  calc <command>           Run a specific command (see below)

Inside the REPL type 'help' for commands.`,
		Args:        cobra.NoArgs,
		LoadHistory: true,
		RunFunc:     runREPL,
	})
	root.SilenceErrors = true
	root.SilenceUsage = true

	root.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default calc.yaml, or $CALC_CONFIG)")

	root.AddCommand(replCmd())
	root.AddCommand(evalCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(opsCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())
	return root
}

// exitError carries a process exit code. A nil err means the failure was
// already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
