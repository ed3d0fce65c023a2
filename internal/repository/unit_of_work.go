package repository

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// SystemActor is recorded in audit columns when no user is attached to the
// unit of work, e.g. during seeding or from the audit consumer.
const SystemActor = "system"

// Auditable records get their audit columns filled in when staged.
type Auditable interface {
	StampCreated(by string, at time.Time)
	StampModified(by string, at time.Time)
}

type change struct {
	op string
	// strict changes fail the save when they affect no row.
	strict bool
	build  func(sq.StatementBuilderType) sq.Sqlizer
}

// UnitOfWork scopes the repositories used by one logical operation. It is
// not safe for concurrent use and should not outlive the request that
// created it.
type UnitOfWork struct {
	db    *sql.DB
	sb    sq.StatementBuilderType
	actor string
	now   func() time.Time

	repos   map[reflect.Type]any
	changes []change
}

// Option customises a UnitOfWork.
type Option func(*UnitOfWork)

// WithActor sets the name written to created_by / modified_by.
func WithActor(actor string) Option {
	return func(u *UnitOfWork) {
		if actor != "" {
			u.actor = actor
		}
	}
}

// WithClock overrides time.Now for audit stamps.
func WithClock(now func() time.Time) Option {
	return func(u *UnitOfWork) { u.now = now }
}

// NewUnitOfWork returns an empty unit bound to db. sb decides the
// placeholder format of every generated statement.
func NewUnitOfWork(db *sql.DB, sb sq.StatementBuilderType, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		db:    db,
		sb:    sb,
		actor: SystemActor,
		now:   time.Now,
		repos: make(map[reflect.Type]any),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Repo returns the repository for T on u, creating it on first use. Every
// call for the same T on the same unit returns the same instance.
func Repo[T any, P recordPtr[T]](u *UnitOfWork) *Repository[T, P] {
	key := reflect.TypeFor[T]()
	if r, ok := u.repos[key]; ok {
		return r.(*Repository[T, P])
	}
	r := newRepository[T, P](u)
	u.repos[key] = r
	return r
}

// Actor is the name stamped on records staged through u.
func (u *UnitOfWork) Actor() string { return u.actor }

// Pending is the number of staged changes not yet saved.
func (u *UnitOfWork) Pending() int { return len(u.changes) }

func (u *UnitOfWork) stage(c change) { u.changes = append(u.changes, c) }

// SaveChanges applies every staged change in staging order inside one
// transaction and returns the total number of affected rows. If any
// statement fails, or an update/delete matches nothing, the transaction is
// rolled back, the staged changes are kept and a *PersistenceError is
// returned. On success the change set is cleared.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	if len(u.changes) == 0 {
		return 0, nil
	}
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Op: "begin", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var total int64
	for _, c := range u.changes {
		query, args, err := c.build(u.sb).ToSql()
		if err != nil {
			return 0, &PersistenceError{Op: c.op, Err: err}
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, &PersistenceError{Op: c.op, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &PersistenceError{Op: c.op, Err: err}
		}
		if c.strict && n == 0 {
			return 0, &PersistenceError{Op: c.op, Err: ErrNoRecord}
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit", Err: err}
	}
	committed = true
	u.changes = nil
	return total, nil
}

type actorKey struct{}

// ContextWithActor attaches the acting user's name to ctx.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the name stored by ContextWithActor or SystemActor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return SystemActor
}

// Factory hands out a fresh UnitOfWork per logical operation.
type Factory interface {
	UnitOfWork(ctx context.Context) *UnitOfWork
}
