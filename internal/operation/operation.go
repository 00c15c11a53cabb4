// Package operation defines the binary arithmetic contract and the registry
// that maps operation names to implementations.
package operation

import (
	"math"
	"strings"
)

// Operation is a named binary function over float64 operands.
type Operation interface {
	Name() string
	Apply(a, b float64) (float64, error)
}

// Describer is implemented by operations that carry a one-line description
// for the ops listing.
type Describer interface {
	Description() string
}

// Func adapts a plain function to the Operation interface.
type Func struct {
	name string
	desc string
	fn   func(a, b float64) (float64, error)
}

// NewFunc creates an Operation from fn.
func NewFunc(name, description string, fn func(a, b float64) (float64, error)) *Func {
	return &Func{name: strings.ToLower(name), desc: description, fn: fn}
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Description() string { return f.desc }

func (f *Func) Apply(a, b float64) (float64, error) {
	return f.fn(a, b)
}

// Describe returns op's description, or an empty string.
func Describe(op Operation) string {
	if d, ok := op.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Apply runs op and normalizes its failures into *DomainError.
// A NaN or infinite result is reported as ErrNonFinite.
func Apply(op Operation, a, b float64) (float64, error) {
	result, err := op.Apply(a, b)
	if err != nil {
		return 0, asDomainError(op.Name(), a, b, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, &DomainError{Op: op.Name(), A: a, B: b, Err: ErrNonFinite}
	}
	return result, nil
}
