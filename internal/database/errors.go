package database

import (
	"errors"
	"strings"
)

// ErrNoResult is returned when a statement that must produce a record produced none.
var ErrNoResult = errors.New("query returned no result")

// QueryError carries the failing SurrealQL statement alongside the cause.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return "surrealdb: " + compact(e.Query) + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// compact folds a multi-line statement onto one line for logs.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
