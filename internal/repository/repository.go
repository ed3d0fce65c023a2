package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Record is implemented by every persisted model type. Columns and Values
// (and ScanDest) must be index aligned; KeyColumns is a subset of Columns.
type Record interface {
	TableName() string
	Columns() []string
	KeyColumns() []string
	KeyValues() []any
	Values() []any
	ScanDest() []any
}

// recordPtr ties a struct type to its pointer so a Repository can allocate
// fresh values with new(T) while calling the Record methods on *T.
type recordPtr[T any] interface {
	*T
	Record
}

// Repository reads records of one type and stages writes for them on its
// UnitOfWork. Reads go straight to the database; writes are deferred until
// SaveChanges.
type Repository[T any, P recordPtr[T]] struct {
	uow  *UnitOfWork
	meta P
}

func newRepository[T any, P recordPtr[T]](u *UnitOfWork) *Repository[T, P] {
	return &Repository[T, P]{uow: u, meta: P(new(T))}
}

// Query returns a SELECT over every column of the table. Columns are
// qualified with the table name so callers may add joins.
func (r *Repository[T, P]) Query() sq.SelectBuilder {
	table := r.meta.TableName()
	cols := r.meta.Columns()
	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = table + "." + c
	}
	return r.uow.sb.Select(qualified...).From(table)
}

// Select runs q, which must project the columns returned by Query, and scans
// every row.
func (r *Repository[T, P]) Select(ctx context.Context, q sq.SelectBuilder) ([]*T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", r.meta.TableName(), err)
	}
	rows, err := r.uow.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		item := new(T)
		if err := rows.Scan(P(item).ScanDest()...); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// GetByID loads the record with the given key values (one per KeyColumns
// entry). A missing record is not an error: both results are nil.
func (r *Repository[T, P]) GetByID(ctx context.Context, key ...any) (*T, error) {
	pred, err := r.keyPredicate(key)
	if err != nil {
		return nil, err
	}
	items, err := r.Select(ctx, r.Query().Where(pred).Limit(1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// GetAll returns every row. Order is unspecified.
func (r *Repository[T, P]) GetAll(ctx context.Context) ([]*T, error) {
	return r.Select(ctx, r.Query())
}

// Find returns every row matching pred, e.g. sq.Eq{"is_active": true}.
func (r *Repository[T, P]) Find(ctx context.Context, pred sq.Sqlizer) ([]*T, error) {
	if pred == nil {
		return r.GetAll(ctx)
	}
	return r.Select(ctx, r.Query().Where(pred))
}

// Exists reports whether at least one row matches pred.
func (r *Repository[T, P]) Exists(ctx context.Context, pred sq.Sqlizer) (bool, error) {
	items, err := r.Select(ctx, r.Query().Where(pred).Limit(1))
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// Add stages an insert. Auditable records are stamped with the unit's actor.
func (r *Repository[T, P]) Add(e *T) {
	p := P(e)
	if a, ok := any(p).(Auditable); ok {
		a.StampCreated(r.uow.actor, r.uow.now())
	}
	r.uow.stage(change{
		op: "insert " + p.TableName(),
		build: func(sb sq.StatementBuilderType) sq.Sqlizer {
			return sb.Insert(p.TableName()).Columns(p.Columns()...).Values(p.Values()...)
		},
	})
}

// Update stages a full row update keyed by the record's key columns.
func (r *Repository[T, P]) Update(e *T) {
	p := P(e)
	if a, ok := any(p).(Auditable); ok {
		a.StampModified(r.uow.actor, r.uow.now())
	}
	r.uow.stage(change{
		op:     "update " + p.TableName(),
		strict: true,
		build: func(sb sq.StatementBuilderType) sq.Sqlizer {
			keys := make(map[string]bool, len(p.KeyColumns()))
			for _, k := range p.KeyColumns() {
				keys[k] = true
			}
			set := make(map[string]any, len(p.Columns()))
			vals := p.Values()
			for i, c := range p.Columns() {
				if !keys[c] {
					set[c] = vals[i]
				}
			}
			return sb.Update(p.TableName()).SetMap(set).Where(keyEq(p.KeyColumns(), p.KeyValues()))
		},
	})
}

// Delete stages removal of e.
func (r *Repository[T, P]) Delete(e *T) {
	p := P(e)
	r.stageDelete(keyEq(p.KeyColumns(), p.KeyValues()))
}

// DeleteByID stages removal of the row with the given key values.
func (r *Repository[T, P]) DeleteByID(key ...any) error {
	pred, err := r.keyPredicate(key)
	if err != nil {
		return err
	}
	r.stageDelete(pred)
	return nil
}

func (r *Repository[T, P]) stageDelete(pred sq.Eq) {
	table := r.meta.TableName()
	r.uow.stage(change{
		op:     "delete " + table,
		strict: true,
		build: func(sb sq.StatementBuilderType) sq.Sqlizer {
			return sb.Delete(table).Where(pred)
		},
	})
}

func (r *Repository[T, P]) keyPredicate(key []any) (sq.Eq, error) {
	cols := r.meta.KeyColumns()
	if len(key) != len(cols) {
		return nil, fmt.Errorf("%s: expected %d key values, got %d", r.meta.TableName(), len(cols), len(key))
	}
	return keyEq(cols, key), nil
}

func keyEq(cols []string, vals []any) sq.Eq {
	eq := make(sq.Eq, len(cols))
	for i, c := range cols {
		eq[c] = vals[i]
	}
	return eq
}
