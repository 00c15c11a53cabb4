package operation

import (
	"errors"
	"fmt"
	"strconv"
)

// Common operation errors.
var (
	// ErrDuplicate indicates an operation name is already registered.
	ErrDuplicate = errors.New("operation already registered")

	// ErrUnknown indicates no operation is registered under a name.
	ErrUnknown = errors.New("unknown operation")

	// ErrInvalidName indicates an operation reported an empty name.
	ErrInvalidName = errors.New("invalid operation name")

	// ErrDivisionByZero is returned by operations that divide by their right operand.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrNegativeRoot indicates an even root of a negative number.
	ErrNegativeRoot = errors.New("even root of a negative number")

	// ErrZeroRoot indicates a zeroth root.
	ErrZeroRoot = errors.New("zeroth root is undefined")

	// ErrNonFinite indicates the result is NaN or infinite.
	ErrNonFinite = errors.New("result is not a finite number")

	// ErrPluginFault marks failures of the plugin itself, such as a panic,
	// which are not domain errors.
	ErrPluginFault = errors.New("plugin fault")
)

// DuplicateOperationError wraps ErrDuplicate with the colliding name.
type DuplicateOperationError struct {
	Name string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("operation %q already registered", e.Name)
}

func (e *DuplicateOperationError) Unwrap() error {
	return ErrDuplicate
}

// UnknownOperationError wraps ErrUnknown with the requested name.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

func (e *UnknownOperationError) Unwrap() error {
	return ErrUnknown
}

// DomainError is a failure inherent to the mathematics of an operation,
// such as division by zero. It is an expected outcome, not a fault.
type DomainError struct {
	Op  string
	A   float64
	B   float64
	Err error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, formatOperand(e.A), formatOperand(e.B), e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomain reports whether err is a *DomainError.
func IsDomain(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// IsUnknown reports whether err is an unknown operation error.
func IsUnknown(err error) bool {
	return errors.Is(err, ErrUnknown)
}

func asDomainError(name string, a, b float64, err error) error {
	if errors.Is(err, ErrPluginFault) {
		return err
	}
	var de *DomainError
	if errors.As(err, &de) {
		if de.Op == "" {
			de.Op = name
		}
		return de
	}
	return &DomainError{Op: name, A: a, B: b, Err: err}
}

func formatOperand(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
