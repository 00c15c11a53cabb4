package logging

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// PanicError is returned by WrapError when fn panicked.
type PanicError struct {
	Component string
	Value     interface{}
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Component, e.Value)
}

// RecoveryHandler converts panics into logged errors.
type RecoveryHandler struct {
	Component string
	Logger    *zap.Logger
}

// NewRecoveryHandler creates a recovery handler for a component.
func NewRecoveryHandler(component string, logger *zap.Logger) *RecoveryHandler {
	if logger == nil {
		logger = Nop()
	}
	return &RecoveryHandler{
		Component: component,
		Logger:    logger,
	}
}

// WrapError executes fn with panic recovery, returning *PanicError on panic
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.handlePanic(rec, string(debug.Stack()))
		}
	}()
	return fn()
}

func (r *RecoveryHandler) handlePanic(rec interface{}, stack string) error {
	r.Logger.Error("panic_recovered",
		zap.String("component", r.Component),
		zap.Any("panic", rec),
		zap.String("stack", stack),
	)

	return &PanicError{Component: r.Component, Value: rec, Stack: stack}
}
