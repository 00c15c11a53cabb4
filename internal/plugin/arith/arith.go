// Package arith provides the built-in arithmetic operation plugins. Import
// it for its side effect of registering them:
//
//	import _ "github.com/joss/calc/internal/plugin/arith"
package arith

import (
	"math"

	"github.com/joss/calc/internal/operation"
	"github.com/joss/calc/internal/plugin"
)

func init() {
	plugin.RegisterFunc("add", "Add b to a", Add)
	plugin.RegisterFunc("subtract", "Subtract b from a", Subtract)
	plugin.RegisterFunc("multiply", "Multiply a by b", Multiply)
	plugin.RegisterFunc("divide", "Divide a by b", Divide)
	plugin.RegisterFunc("power", "Raise a to the power b", Power)
	plugin.RegisterFunc("root", "The b-th root of a", Root)
	plugin.RegisterFunc("modulo", "Remainder of a divided by b", Modulo)
	plugin.RegisterFunc("intdivide", "Floor of a divided by b", IntDivide)
	plugin.RegisterFunc("percent", "a percent of b", Percent)
}

func Add(a, b float64) (float64, error)      { return a + b, nil }
func Subtract(a, b float64) (float64, error) { return a - b, nil }
func Multiply(a, b float64) (float64, error) { return a * b, nil }

func Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, operation.ErrDivisionByZero
	}
	return a / b, nil
}

// Power returns a**b. Overflow and complex results surface as
// operation.ErrNonFinite through operation.Apply.
func Power(a, b float64) (float64, error) {
	return math.Pow(a, b), nil
}

// Root returns the b-th root of a. Odd integer roots of negative numbers
// are real and allowed.
func Root(a, b float64) (float64, error) {
	if b == 0 {
		return 0, operation.ErrZeroRoot
	}
	if a >= 0 {
		return math.Pow(a, 1/b), nil
	}
	if b != math.Trunc(b) || math.Mod(b, 2) == 0 {
		return 0, operation.ErrNegativeRoot
	}
	return -math.Pow(-a, 1/b), nil
}

func Modulo(a, b float64) (float64, error) {
	if b == 0 {
		return 0, operation.ErrDivisionByZero
	}
	return math.Mod(a, b), nil
}

func IntDivide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, operation.ErrDivisionByZero
	}
	return math.Floor(a / b), nil
}

func Percent(a, b float64) (float64, error) {
	return a / 100 * b, nil
}
