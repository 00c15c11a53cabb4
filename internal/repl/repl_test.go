package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joss/calc/internal/config"
	"github.com/joss/calc/internal/dispatch"
	"github.com/joss/calc/internal/history"
	"github.com/joss/calc/internal/operation"
	"github.com/joss/calc/internal/plugin/arith"
	"github.com/joss/calc/internal/render"
)

type fixture struct {
	env    *config.Env
	ledger *history.Ledger
	loop   *Loop
}

func newFixture(t *testing.T, autoSave bool, extra ...operation.Operation) *fixture {
	t.Helper()

	reg := operation.NewRegistry()
	require.NoError(t, reg.Register(operation.NewFunc("add", "", arith.Add)))
	require.NoError(t, reg.Register(operation.NewFunc("subtract", "", arith.Subtract)))
	require.NoError(t, reg.Register(operation.NewFunc("multiply", "", arith.Multiply)))
	require.NoError(t, reg.Register(operation.NewFunc("divide", "", arith.Divide)))
	for _, op := range extra {
		require.NoError(t, reg.Register(op))
	}

	env := config.Default()
	env.DataDir = t.TempDir()
	env.HistoryFile = filepath.Join(env.DataDir, config.DefaultHistoryName)
	env.AutoSave = autoSave

	ledger := history.NewLedger(env.MaxHistorySize)
	d := dispatch.New(reg, ledger, env)
	loop := New(d, render.New(false, env.Precision), Options{AutoSave: autoSave})
	return &fixture{env: env, ledger: ledger, loop: loop}
}

func (f *fixture) run(t *testing.T, input string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := f.loop.Run(context.Background(), strings.NewReader(input), &out)
	return code, out.String()
}

func TestSessionScenario(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	input := strings.Join([]string{
		"add 2 3",
		"divide 10 0",
		"multiply 4 5",
		"subtract 9 1",
		"history",
		"undo",
		"history",
		"unknownop 1 2",
		"",
		"add 1 1",
		"exit",
	}, "\n") + "\n"

	code, out := f.run(t, input)
	assert.Equal(t, ExitOK, code)

	want := strings.Join([]string{
		"5",
		"Error: divide 10 0: division by zero",
		"20",
		"8",
		"1. 2 + 3 = 5",
		"2. 4 * 5 = 20",
		"3. 9 - 1 = 8",
		"Undone: 9 - 1 = 8",
		"1. 2 + 3 = 5",
		"2. 4 * 5 = 20",
		`Error: unknown command "unknownop" (type 'help' for commands)`,
		"2",
		"Goodbye!",
	}, "\n") + "\n"
	assert.Equal(t, want, out)
}

func TestLinesAfterExitAreIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	code, _ := f.run(t, "add 1 1\nexit\nadd 2 2\nadd 3 3\n")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, 1, f.ledger.Len())
}

func TestAutoSaveOnExit(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, true)

	code, out := f.run(t, "add 2 3\nmultiply 2 2\nexit\n")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "History saved to "+f.env.HistoryFile+" (2 record(s))")

	records, err := history.NewStore(f.env.HistoryFile).Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "add", records[0].Operation)
}

func TestAutoSaveOnEOF(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, true)

	code, _ := f.run(t, "add 2 3")
	assert.Equal(t, ExitOK, code)
	assert.FileExists(t, f.env.HistoryFile)
}

func TestNoAutoSave(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	code, _ := f.run(t, "add 2 3\n")
	assert.Equal(t, ExitOK, code)
	assert.NoFileExists(t, f.env.HistoryFile)
}

func TestAutoSaveFailureExitCode(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, true)

	blocker := filepath.Join(f.env.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	f.env.HistoryFile = filepath.Join(blocker, "history.csv")

	code, out := f.run(t, "add 2 3\nexit\n")
	assert.Equal(t, ExitPersistence, code)
	assert.Contains(t, out, "Error:")
	assert.NotContains(t, out, "Goodbye!")
}

func TestCancelledContextEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	code := f.loop.Run(ctx, pr, &out)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Goodbye!\n", out.String())
}

func TestNoPromptWhenNotTerminal(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	_, out := f.run(t, "exit\n")
	assert.NotContains(t, out, DefaultPrompt)
}

func TestOverlongLineIsRejected(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	input := "add " + strings.Repeat("1", 70*1024) + " 1\nadd 2 3\nhistory\nexit\n"
	code, out := f.run(t, input)
	assert.Equal(t, ExitOK, code)

	want := "Error: input: line longer than 65536 bytes was discarded\n" +
		"5\n" +
		"1. 2 + 3 = 5\n" +
		"Goodbye!\n"
	assert.Equal(t, want, out)
	assert.Equal(t, 1, f.ledger.Len())
}

func TestLineAtLimitIsAccepted(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, false)

	prefix, suffix := "add 1 ", "2"
	line := prefix + strings.Repeat("0", MaxLineLength-len(prefix)-len(suffix)) + suffix
	require.Len(t, line, MaxLineLength)

	code, out := f.run(t, line+"\r\nexit\n")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "3\nGoodbye!\n", out)
}

func TestPanickingOperationDoesNotEndSession(t *testing.T) {
	defer goleak.VerifyNone(t)
	boom := operation.NewFunc("boom", "", func(a, b float64) (float64, error) {
		panic("kaboom")
	})
	f := newFixture(t, false, boom)

	code, out := f.run(t, "boom 1 2\nadd 2 3\nexit\n")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Error: panic in repl: kaboom\n5\nGoodbye!\n", out)
	assert.Equal(t, 1, f.ledger.Len())
}
