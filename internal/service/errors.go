// Package service holds the application services. Domain failures
// (validation, missing records, conflicts) come back inside a Result;
// only infrastructure failures are returned as Go errors.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

var (
	// ErrValidation marks a request with missing or malformed fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup by id that found nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks a natural key already held by another active record.
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict marks a request the current state does not allow, such as
	// an out of order status change or deleting a referenced record.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a caller acting outside its scope.
	ErrForbidden = errors.New("forbidden")
	// ErrMenuCycle reports a stored menu hierarchy whose parent links form a
	// loop. It is a data integrity error, not a request error.
	ErrMenuCycle = errors.New("menu hierarchy contains a cycle")
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store  repository.Factory
	Events queue.Publisher
	Log    logger.ILogger
	Now    func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) logger() logger.ILogger {
	if d.Log == nil {
		return logger.NewNop()
	}
	return d.Log
}

// publish sends an event after a commit. Delivery failures are logged and
// never fail the request.
func (d Deps) publish(ctx context.Context, queueName string, event any) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(ctx, queueName, event); err != nil {
		d.logger().Warning("event not published", logger.String("queue", queueName), logger.Error(err))
	}
}
