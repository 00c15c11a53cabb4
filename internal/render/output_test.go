package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joss/calc/internal/dispatch"
	"github.com/joss/calc/internal/history"
	"github.com/joss/calc/internal/metrics"
)

func TestNumber(t *testing.T) {
	r := New(false, 10)
	tests := []struct {
		in   float64
		want string
	}{
		{5, "5"},
		{-2.5, "-2.5"},
		{0.1 + 0.2, "0.3"},
		{1.0 / 3, "0.3333333333"},
		{1e20, "1e+20"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Number(tt.in))
	}

	a, b := 0.1, 0.2
	assert.Equal(t, "0.3", r.Number(a+b))

	exact := New(false, 0)
	assert.Equal(t, "0.30000000000000004", exact.Number(a+b))
}

func TestResultValue(t *testing.T) {
	r := New(false, 10)
	assert.Equal(t, "5", r.Result(dispatch.Result{Kind: dispatch.KindValue, Value: 5}))
	assert.Equal(t, "", r.Result(dispatch.Result{Kind: dispatch.KindNone}))
	assert.Equal(t, "", r.Result(dispatch.Result{Kind: dispatch.KindExit}))
	assert.Equal(t, "History cleared", r.Result(dispatch.Result{Kind: dispatch.KindMessage, Message: "History cleared"}))
}

func TestHistory(t *testing.T) {
	r := New(false, 10)
	assert.Equal(t, "No calculations in history", r.History(nil))

	records := []history.Record{
		{Operation: "add", Left: 2, Right: 3, Result: 5},
		{Operation: "divide", Left: 1, Right: 3, Result: 1.0 / 3},
		{Operation: "root", Left: 27, Right: 3, Result: 3},
	}
	want := "1. 2 + 3 = 5\n" +
		"2. 1 / 3 = 0.3333333333\n" +
		"3. root(27, 3) = 3"
	assert.Equal(t, want, r.History(records))
}

func TestHistoryDetail(t *testing.T) {
	r := New(false, 10)
	assert.Equal(t, "No calculations in history", r.HistoryDetail(nil))

	at := func(sec int) time.Time { return time.Date(2024, 1, 2, 3, 4, sec, 0, time.UTC) }
	records := []history.Record{
		{Operation: "add", Left: 2, Right: 3, Result: 5, Timestamp: at(5)},
		{Operation: "divide", Left: 1, Right: 3, Result: 1.0 / 3, Timestamp: at(6)},
		{Operation: "root", Left: -8, Right: 3, Result: -2, Timestamp: at(7)},
	}
	want := "#  Timestamp            Operation  A   B  Result\n" +
		"1  2024-01-02 03:04:05  add        2   3  5\n" +
		"2  2024-01-02 03:04:06  divide     1   3  0.3333333333\n" +
		"3  2024-01-02 03:04:07  root       -8  3  -2"
	assert.Equal(t, want, r.HistoryDetail(records))
	assert.Equal(t, want, r.Result(dispatch.Result{Kind: dispatch.KindHistoryDetail, Records: records}))

	pretty := New(true, 10).HistoryDetail(records)
	assert.Contains(t, pretty, "Timestamp")
	assert.Contains(t, pretty, "2024-01-02 03:04:06")
	assert.Contains(t, pretty, "0.3333333333")
}

func TestOps(t *testing.T) {
	r := New(false, 10)
	assert.Equal(t, "No operations available", r.Ops(nil))

	out := r.Ops([]dispatch.OpInfo{
		{Name: "add", Description: "Add two numbers"},
		{Name: "divide", Description: "Divide a by b"},
		{Name: "hypot"},
	})
	want := "Operations:\n" +
		"  add     Add two numbers\n" +
		"  divide  Divide a by b\n" +
		"  hypot"
	assert.Equal(t, want, out)
}

func TestHelp(t *testing.T) {
	r := New(false, 10)
	out := r.Help(
		[]dispatch.Command{{Name: "history", Usage: "history [limit]", Description: "Show history"}},
		[]dispatch.OpInfo{{Name: "add"}, {Name: "divide"}},
	)
	assert.Contains(t, out, "Commands:\n")
	assert.Contains(t, out, "  history [limit]  Show history")
	assert.Contains(t, out, "<op> <a> <b>")
	assert.Contains(t, out, "Operations: add, divide")
}

func TestPrettyPanels(t *testing.T) {
	r := New(true, 10)
	out := r.Ops([]dispatch.OpInfo{{Name: "add", Description: "Add two numbers"}})
	assert.Contains(t, out, "Operations")
	assert.Contains(t, out, "Add two numbers")
}

func TestError(t *testing.T) {
	r := New(false, 10)
	assert.Equal(t, "Error: boom", r.Error(errors.New("boom")))
}

func TestStats(t *testing.T) {
	r := New(false, 10)
	out := r.Stats(metrics.Snapshot{
		Uptime:       90 * time.Second,
		Calculations: 3,
		Undos:        2,
		Redos:        1,
		Saves:        1,
		SaveErrors:   1,
	}, dispatch.HistoryInfo{Visible: 2, Stored: 3, MaxSize: 100})
	assert.Contains(t, out, "Uptime:           1m30s")
	assert.Contains(t, out, "Calculations:     3")
	assert.Contains(t, out, "Undo / redo:      2 / 1")
	assert.Contains(t, out, "Saves:            1 (1 failed)")
	assert.Contains(t, out, "History:          2 of max 100 (1 undone)")

	out = r.Stats(metrics.Snapshot{}, dispatch.HistoryInfo{Visible: 4, Stored: 4})
	assert.Contains(t, out, "History:          4 of unbounded (0 undone)")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, New(false, 10))

	w.Result(dispatch.Result{Kind: dispatch.KindNone})
	assert.Empty(t, buf.String())

	w.Result(dispatch.Result{Kind: dispatch.KindValue, Value: 7})
	w.Error(errors.New("nope"))
	assert.Equal(t, "7\nError: nope\n", buf.String())
}
