package store

import (
	"errors"
	"fmt"
)

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)

// Error is an I/O failure of a store backend, as opposed to one of the
// sentinel outcomes above. Callers may retry it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *Error for op unless it is nil, a sentinel outcome or
// already a *Error.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrIdempotencyConflict) {
		return err
	}
	var sErr *Error
	if errors.As(err, &sErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}
