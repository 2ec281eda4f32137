package database

import (
	"context"

	"github.com/surrealdb/surrealdb.go"
)

// Query runs a SurrealQL statement and returns the rows of its first result set.
//
//	rows, err := Query[messageRow](ctx, db, "SELECT * FROM chat_message WHERE kind = $kind", map[string]any{"kind": "public"})
func Query[T any](ctx context.Context, db *surrealdb.DB, query string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, query, vars)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// First returns the first row, or nil when the statement produced none.
func First[T any](ctx context.Context, db *surrealdb.DB, query string, vars map[string]any) (*T, error) {
	rows, err := Query[T](ctx, db, query, vars)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// MustOne is First for statements that always yield a record (CREATE, UPSERT).
// An empty result is an ErrNoResult.
func MustOne[T any](ctx context.Context, db *surrealdb.DB, query string, vars map[string]any) (T, error) {
	row, err := First[T](ctx, db, query, vars)
	if err != nil {
		var zero T
		return zero, err
	}
	if row == nil {
		var zero T
		return zero, &QueryError{Query: query, Err: ErrNoResult}
	}
	return *row, nil
}

// Exec runs a statement whose rows are not needed (DELETE, UPDATE ...).
func Exec(ctx context.Context, db *surrealdb.DB, query string, vars map[string]any) error {
	if _, err := surrealdb.Query[any](ctx, db, query, vars); err != nil {
		return &QueryError{Query: query, Err: err}
	}
	return nil
}
