// Package history keeps the ordered, bounded ledger of calculations with
// linear undo/redo and persists it as a flat CSV file.
package history

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one completed calculation. Records are values and are never
// mutated after creation.
type Record struct {
	Operation string
	Left      float64
	Right     float64
	Result    float64
	Timestamp time.Time
}

// NewRecord creates a record stamped with the current time.
func NewRecord(op string, left, right, result float64) Record {
	return Record{
		Operation: op,
		Left:      left,
		Right:     right,
		Result:    result,
		Timestamp: time.Now(),
	}
}

var symbols = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "*",
	"divide":   "/",
	"power":    "^",
	"modulo":   "%",
}

// String formats the record as an equation, e.g. "2 + 3 = 5".
func (r Record) String() string {
	return r.Equation(formatFloat)
}

// Equation formats the record with format applied to every number.
// Operations without an infix symbol render as "op(a, b) = result".
func (r Record) Equation(format func(float64) string) string {
	l, rt, res := format(r.Left), format(r.Right), format(r.Result)
	if sym, ok := symbols[r.Operation]; ok {
		return fmt.Sprintf("%s %s %s = %s", l, sym, rt, res)
	}
	return fmt.Sprintf("%s(%s, %s) = %s", r.Operation, l, rt, res)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
