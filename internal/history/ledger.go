package history

import (
	"iter"
	"slices"
	"sync"
)

// Ledger is an ordered sequence of records plus a cursor. Records before the
// cursor are visible; records at or after it have been undone and can be
// redone until the next Append.
//
// Invariant: 0 <= cursor <= len(records), and len(records) <= maxSize when
// maxSize > 0.
type Ledger struct {
	mu      sync.Mutex
	records []Record
	cursor  int
	maxSize int
}

// NewLedger creates a ledger bounded to maxSize records. A maxSize of zero
// or less leaves the ledger unbounded.
func NewLedger(maxSize int) *Ledger {
	return &Ledger{maxSize: maxSize}
}

// Append adds rec after the cursor, discarding any undone records, and
// evicts the oldest records when the bound is exceeded. It returns the
// number of evicted records.
func (l *Ledger) Append(rec Record) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records[:l.cursor], rec)
	l.cursor = len(l.records)
	return l.evict()
}

// evict drops records from the front until the bound holds. Caller holds mu.
func (l *Ledger) evict() int {
	if l.maxSize <= 0 || len(l.records) <= l.maxSize {
		return 0
	}
	n := len(l.records) - l.maxSize
	l.records = slices.Clone(l.records[n:])
	l.cursor = max(l.cursor-n, 0)
	return n
}

// Undo moves the cursor back by one and returns the record that is no
// longer visible.
func (l *Ledger) Undo() (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor == 0 {
		return Record{}, ErrNothingToUndo
	}
	l.cursor--
	return l.records[l.cursor], nil
}

// Redo moves the cursor forward by one and returns the restored record.
func (l *Ledger) Redo() (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor == len(l.records) {
		return Record{}, ErrNothingToRedo
	}
	rec := l.records[l.cursor]
	l.cursor++
	return rec, nil
}

// Clear removes every record, including undone ones.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	l.cursor = 0
}

// Delete removes the visible record at index (0-based, oldest first).
// Pending redo records are discarded.
func (l *Ledger) Delete(index int) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= l.cursor {
		return Record{}, ErrIndexOutOfRange
	}
	rec := l.records[index]
	l.records = slices.Delete(l.records[:l.cursor], index, index+1)
	l.cursor = len(l.records)
	return rec, nil
}

// Replace discards the current contents and loads records, oldest first.
// Only the newest maxSize records are kept. The cursor ends at the end.
func (l *Ledger) Replace(records []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = slices.Clone(records)
	l.cursor = len(l.records)
	l.evict()
}

// View returns a restartable sequence over the visible records, oldest
// first. The sequence reads a snapshot taken when View is called.
func (l *Ledger) View() iter.Seq[Record] {
	snapshot := l.Visible()
	return func(yield func(Record) bool) {
		for _, rec := range snapshot {
			if !yield(rec) {
				return
			}
		}
	}
}

// Visible returns a copy of the visible records, oldest first.
func (l *Ledger) Visible() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.records[:l.cursor])
}

// Tail returns up to n of the most recent visible records, oldest first.
// n <= 0 returns every visible record.
func (l *Ledger) Tail(n int) []Record {
	visible := l.Visible()
	if n <= 0 || n >= len(visible) {
		return visible
	}
	return visible[len(visible)-n:]
}

// Len returns the number of visible records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Size returns the number of stored records, including undone ones.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Cursor returns the cursor position.
func (l *Ledger) Cursor() int {
	return l.Len()
}

// MaxSize returns the configured bound.
func (l *Ledger) MaxSize() int {
	return l.maxSize
}

// CanUndo reports whether Undo would succeed.
func (l *Ledger) CanUndo() bool {
	return l.Len() > 0
}

// CanRedo reports whether Redo would succeed.
func (l *Ledger) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor < len(l.records)
}
