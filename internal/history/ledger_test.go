package history

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(op string, a, b, r float64) Record {
	return NewRecord(op, a, b, r)
}

func ops(records []Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Operation
	}
	return names
}

func TestAppendAndVisible(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 2, 3, 5))
	l.Append(rec("subtract", 5, 1, 4))

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, l.Cursor())
	assert.Equal(t, []string{"add", "subtract"}, ops(l.Visible()))
}

func TestAppendThenUndoRestoresPriorView(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 2, 3, 5))
	before := l.Visible()

	l.Append(rec("multiply", 2, 3, 6))
	undone, err := l.Undo()
	require.NoError(t, err)
	assert.Equal(t, "multiply", undone.Operation)
	assert.Equal(t, before, l.Visible())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("add", 2, 2, 4))
	before := l.Visible()

	_, err := l.Undo()
	require.NoError(t, err)
	assert.True(t, l.CanRedo())

	redone, err := l.Redo()
	require.NoError(t, err)
	assert.Equal(t, 4.0, redone.Result)
	assert.Equal(t, before, l.Visible())
	assert.False(t, l.CanRedo())
}

func TestUndoEmpty(t *testing.T) {
	l := NewLedger(10)
	_, err := l.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.False(t, l.CanUndo())
}

func TestRedoAtEnd(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	_, err := l.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestAppendAfterUndoDiscardsRedo(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("subtract", 3, 1, 2))
	l.Append(rec("multiply", 2, 2, 4))

	_, err := l.Undo()
	require.NoError(t, err)
	_, err = l.Undo()
	require.NoError(t, err)
	assert.Equal(t, 3, l.Size())

	l.Append(rec("divide", 8, 2, 4))
	assert.Equal(t, 2, l.Size())
	assert.Equal(t, []string{"add", "divide"}, ops(l.Visible()))

	_, err = l.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestEvictionIsFIFO(t *testing.T) {
	l := NewLedger(3)
	for i := 1; i <= 5; i++ {
		l.Append(rec("add", float64(i), 0, float64(i)))
	}

	visible := l.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, 3.0, visible[0].Left)
	assert.Equal(t, 5.0, visible[2].Left)
	assert.Equal(t, 3, l.Size())
}

func TestEvictionReturnsCount(t *testing.T) {
	l := NewLedger(1)
	assert.Equal(t, 0, l.Append(rec("add", 1, 1, 2)))
	assert.Equal(t, 1, l.Append(rec("add", 2, 2, 4)))
}

func TestUnboundedLedger(t *testing.T) {
	l := NewLedger(0)
	for i := 0; i < 500; i++ {
		l.Append(rec("add", 1, 1, 2))
	}
	assert.Equal(t, 500, l.Len())
}

func TestClear(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("add", 2, 2, 4))
	_, _ = l.Undo()

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Size())
	assert.False(t, l.CanRedo())
}

func TestViewIsRestartableSnapshot(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("subtract", 5, 2, 3))

	view := l.View()
	first := slices.Collect(view)
	second := slices.Collect(view)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"add", "subtract"}, ops(first))

	// Later mutations do not change an existing view
	l.Append(rec("multiply", 2, 2, 4))
	assert.Len(t, slices.Collect(view), 2)
	assert.Len(t, slices.Collect(l.View()), 3)
}

func TestViewStopsEarly(t *testing.T) {
	l := NewLedger(10)
	for i := 0; i < 5; i++ {
		l.Append(rec("add", float64(i), 0, float64(i)))
	}

	count := 0
	for range l.View() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestViewExcludesUndone(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("subtract", 5, 2, 3))
	_, _ = l.Undo()

	assert.Equal(t, []string{"add"}, ops(slices.Collect(l.View())))
}

func TestTail(t *testing.T) {
	l := NewLedger(10)
	for i := 1; i <= 4; i++ {
		l.Append(rec("add", float64(i), 0, float64(i)))
	}

	tail := l.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, 3.0, tail[0].Left)
	assert.Equal(t, 4.0, tail[1].Left)
	assert.Len(t, l.Tail(0), 4)
	assert.Len(t, l.Tail(99), 4)
}

func TestDelete(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("subtract", 5, 2, 3))
	l.Append(rec("multiply", 2, 2, 4))

	deleted, err := l.Delete(1)
	require.NoError(t, err)
	assert.Equal(t, "subtract", deleted.Operation)
	assert.Equal(t, []string{"add", "multiply"}, ops(l.Visible()))

	_, err = l.Delete(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.Delete(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeleteDropsRedoTail(t *testing.T) {
	l := NewLedger(10)
	l.Append(rec("add", 1, 1, 2))
	l.Append(rec("subtract", 5, 2, 3))
	l.Append(rec("multiply", 2, 2, 4))
	_, _ = l.Undo()

	_, err := l.Delete(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"subtract"}, ops(l.Visible()))
	assert.False(t, l.CanRedo())
}

func TestReplaceKeepsNewest(t *testing.T) {
	l := NewLedger(2)
	l.Append(rec("divide", 1, 1, 1))

	l.Replace([]Record{
		rec("add", 1, 1, 2),
		rec("subtract", 5, 2, 3),
		rec("multiply", 2, 2, 4),
	})
	assert.Equal(t, []string{"subtract", "multiply"}, ops(l.Visible()))
	assert.Equal(t, 2, l.Cursor())
}

func TestConcurrentAppend(t *testing.T) {
	l := NewLedger(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Append(rec("add", 1, 1, 2))
				if j%3 == 0 {
					_, _ = l.Undo()
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, l.Size(), 50)
	assert.LessOrEqual(t, l.Cursor(), l.Size())
}

func TestRecordString(t *testing.T) {
	assert.Equal(t, "2 + 3 = 5", rec("add", 2, 3, 5).String())
	assert.Equal(t, "10 / 4 = 2.5", rec("divide", 10, 4, 2.5).String())
	assert.Equal(t, "root(27, 3) = 3", rec("root", 27, 3, 3).String())
}
