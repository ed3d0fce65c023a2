// Package repository is the data access layer shared by every service. It
// exposes one generic Repository per record type and a UnitOfWork that stages
// writes from any number of repositories and applies them in a single
// transaction.
package repository

import (
	"errors"
	"fmt"
)

// ErrNoRecord is reported when a staged update or delete matched no row.
// It is always wrapped in a PersistenceError returned by SaveChanges.
var ErrNoRecord = errors.New("no record matched")

// PersistenceError is returned by SaveChanges when the store rejected the
// change set. Op names the statement that failed (e.g. "insert trips") and
// Err is the driver error. The transaction has been rolled back by the time
// the caller sees it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
