// Package repl runs the interactive read-dispatch-print loop.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/joss/calc/internal/dispatch"
	"github.com/joss/calc/internal/logging"
	"github.com/joss/calc/internal/render"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitStartup     = 1
	ExitPersistence = 2
)

// DefaultPrompt is shown before each line when input is a terminal.
const DefaultPrompt = "calc> "

// MaxLineLength is the longest input line, in bytes, the loop accepts.
// Longer lines are discarded and reported as invalid input.
const MaxLineLength = 64 * 1024

// Options configures a Loop.
type Options struct {
	// AutoSave saves history to the configured file when the loop ends.
	AutoSave bool
	Prompt   string
	Logger   *zap.Logger
}

// Loop reads lines, dispatches them and prints the outcome.
type Loop struct {
	dispatcher *dispatch.Dispatcher
	renderer   *render.Renderer
	opts       Options
	logger     *zap.Logger
	recovery   *logging.RecoveryHandler
}

// New creates a loop.
func New(d *dispatch.Dispatcher, r *render.Renderer, opts Options) *Loop {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logging.Component(logger, "repl")
	return &Loop{
		dispatcher: d,
		renderer:   r,
		opts:       opts,
		logger:     logger,
		recovery:   logging.NewRecoveryHandler("repl", logger),
	}
}

// input is one line read from the session, or the reason it was rejected.
type input struct {
	line string
	err  error
}

// Run processes in until exit, end of input or ctx cancellation and
// returns the process exit code. Errors from individual lines, including
// a panic while dispatching, are printed and the loop continues.
//
// Lines are read on a separate goroutine. When Run returns because ctx
// was cancelled, that goroutine stays blocked in in.Read until the reader
// returns; callers that keep running should close in.
func (l *Loop) Run(ctx context.Context, in io.Reader, out io.Writer) int {
	w := render.NewWriter(out, l.renderer)
	interactive := isTerminal(in)

	lines := make(chan input)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go scan(in, lines, readErr, done)

	l.logger.Info("repl_started", zap.Bool("interactive", interactive))
	if interactive {
		w.Println("Calculator started. Type 'help' for commands.")
	}

	for {
		if interactive {
			w.Print(l.opts.Prompt)
		}

		select {
		case <-ctx.Done():
			if interactive {
				w.Println("")
			}
			l.logger.Info("repl_interrupted")
			return l.shutdown(w)

		case err := <-readErr:
			if err != nil {
				l.logger.Error("input_read_failed", zap.Error(err))
				w.Error(err)
			}
			return l.shutdown(w)

		case item := <-lines:
			if item.err != nil {
				l.logger.Warn("input_rejected", zap.Error(item.err))
				w.Error(item.err)
				continue
			}

			var res dispatch.Result
			err := l.recovery.WrapError(func() error {
				var err error
				res, err = l.dispatcher.Dispatch(ctx, item.line)
				return err
			})
			if err != nil {
				w.Error(err)
				continue
			}
			if res.Kind == dispatch.KindExit {
				return l.shutdown(w)
			}
			w.Result(res)
		}
	}
}

// shutdown saves history when enabled and picks the exit code.
func (l *Loop) shutdown(w *render.Writer) int {
	if l.opts.AutoSave {
		n, path, err := l.dispatcher.Save("")
		if err != nil {
			w.Error(err)
			l.logger.Error("repl_shutdown", zap.Int("exit_code", ExitPersistence))
			return ExitPersistence
		}
		w.Println("History saved to %s (%d record(s))", path, n)
	}
	w.Println("Goodbye!")
	l.logger.Info("repl_shutdown", zap.Int("exit_code", ExitOK))
	return ExitOK
}

func scan(in io.Reader, lines chan<- input, readErr chan<- error, done <-chan struct{}) {
	r := bufio.NewReader(in)
	for {
		line, tooLong, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			readErr <- err
			return
		}

		item := input{line: line}
		if tooLong {
			item.err = &dispatch.InvalidArgumentError{
				Command: "input",
				Reason:  fmt.Sprintf("line longer than %d bytes was discarded", MaxLineLength),
			}
		}
		select {
		case lines <- item:
		case <-done:
			return
		}
	}
}

// readLine returns the next line without its line ending. A line longer
// than MaxLineLength is consumed up to its end and reported as tooLong.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineLength {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
