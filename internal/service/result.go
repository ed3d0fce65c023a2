package service

import (
	"fmt"
	"strings"
)

// Result is the envelope every service operation returns. On failure Errors
// holds every human readable message found, not just the first.
type Result[T any] struct {
	Success bool     `json:"success"`
	Data    T        `json:"data"`
	Errors  []string `json:"errors"`

	cause error
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, Errors: []string{}}
}

func fail[T any](cause error, msgs ...string) Result[T] {
	return Result[T]{Errors: msgs, cause: cause}
}

// Err returns nil for a successful result, otherwise an error wrapping one
// of the package sentinels (ErrValidation, ErrNotFound, ...).
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", r.cause, strings.Join(r.Errors, "; "))
}

// Cause is the sentinel behind a failed result, nil on success.
func (r Result[T]) Cause() error { return r.cause }

func notFound[T any](what string) Result[T] {
	return fail[T](ErrNotFound, what+" not found.")
}
