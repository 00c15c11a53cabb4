package history

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToUndo is returned by Undo when no visible record remains.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when no undone record is pending.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrIndexOutOfRange is returned by Delete for an invalid index.
	ErrIndexOutOfRange = errors.New("history index out of range")

	// ErrPersistence is the sentinel wrapped by every *PersistenceError.
	ErrPersistence = errors.New("history persistence failed")
)

// PersistenceError describes a failed read or write of the history file.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s history %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// IsPersistence reports whether err came from history persistence.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
