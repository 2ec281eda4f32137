package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds for failures surfaced by the chat engine. Match them with
// errors.Is; the concrete value is usually an *Error.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("requested resource not found")
	ErrPersistence = errors.New("persistence failed")
)

// Error is a failure of one operation, classified by Kind.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match on the kind as well as on the wrapped chain.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Validation reports a malformed input. No side effects happened.
func Validation(op, reason string) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: reason}
}

// NotFound reports a missing referenced resource, such as an unknown group.
func NotFound(op, what string) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: what + " not found"}
}

// Persistence reports a failed durable write or read.
func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Op: op, Err: err}
}
