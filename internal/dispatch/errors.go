package dispatch

import (
	"errors"
	"fmt"
	"strconv"
)

// Dispatch errors. Ledger boundary errors (history.ErrNothingToUndo,
// history.ErrNothingToRedo) and *history.PersistenceError are returned
// unchanged.
var (
	ErrCommandNotFound = errors.New("command not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOperationDomain = errors.New("operation domain error")
)

// CommandNotFoundError is returned when a name is neither a meta-command
// nor a registered operation.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("unknown command %q (type 'help' for commands)", e.Name)
}

func (e *CommandNotFoundError) Unwrap() error {
	return ErrCommandNotFound
}

// InvalidArgumentError reports a malformed operand count or value.
type InvalidArgumentError struct {
	Command string
	Reason  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalidArg(command, format string, args ...any) error {
	return &InvalidArgumentError{Command: command, Reason: fmt.Sprintf(format, args...)}
}

// OperationDomainError is an expected arithmetic failure, such as division
// by zero. Err is the operation's reason and matches the operation package
// sentinels with errors.Is.
type OperationDomainError struct {
	Op  string
	A   float64
	B   float64
	Err error
}

func (e *OperationDomainError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op,
		strconv.FormatFloat(e.A, 'g', -1, 64),
		strconv.FormatFloat(e.B, 'g', -1, 64),
		e.Err)
}

func (e *OperationDomainError) Unwrap() []error {
	return []error{ErrOperationDomain, e.Err}
}
