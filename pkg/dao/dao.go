// Package dao provides a typed view of a Store for one entity type.
package dao

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// Dao runs Store operations for entities of type *T.
type Dao[T any] struct {
	store types.Store
	table string
}

// New binds store to the table registered for *T.
func New[T any](store types.Store, reg *schema.Registry) (*Dao[T], error) {
	t, err := reg.Lookup((*T)(nil))
	if err != nil {
		return nil, err
	}
	return &Dao[T]{store: store, table: t.Name}, nil
}

// Table returns the table name of T.
func (d *Dao[T]) Table() string { return d.table }

// Store returns the underlying store.
func (d *Dao[T]) Store() types.Store { return d.store }

func (d *Dao[T]) Save(ctx context.Context, e *T) (int64, error) {
	return d.store.Save(ctx, e)
}

func (d *Dao[T]) SaveAll(ctx context.Context, es []*T) (int64, error) {
	return d.store.SaveAll(ctx, anys(es))
}

func (d *Dao[T]) Insert(ctx context.Context, e *T, opts ...types.WriteOption) (int64, error) {
	return d.store.Insert(ctx, e, opts...)
}

func (d *Dao[T]) InsertAll(ctx context.Context, es []*T, opts ...types.WriteOption) (int64, error) {
	return d.store.InsertAll(ctx, anys(es), opts...)
}

func (d *Dao[T]) Update(ctx context.Context, e *T, opts ...types.WriteOption) (int64, error) {
	return d.store.Update(ctx, e, opts...)
}

func (d *Dao[T]) UpdateAll(ctx context.Context, es []*T, opts ...types.WriteOption) (int64, error) {
	return d.store.UpdateAll(ctx, anys(es), opts...)
}

func (d *Dao[T]) Delete(ctx context.Context, e *T, opts ...types.WriteOption) (int64, error) {
	return d.store.Delete(ctx, e, opts...)
}

func (d *Dao[T]) DeleteAll(ctx context.Context, es []*T, opts ...types.WriteOption) (int64, error) {
	return d.store.DeleteAll(ctx, anys(es), opts...)
}

func (d *Dao[T]) DeleteWhere(ctx context.Context, where types.Predicate) (int64, error) {
	return d.store.DeleteWhere(ctx, d.table, where)
}

// DeleteRange removes rows start..end (1-based, inclusive) ordered by
// orderColumn.
func (d *Dao[T]) DeleteRange(ctx context.Context, start, end int64, orderColumn string) (int64, error) {
	return d.store.DeleteRange(ctx, d.table, start, end, orderColumn)
}

func (d *Dao[T]) DeleteEvery(ctx context.Context) (int64, error) {
	return d.store.DeleteEvery(ctx, d.table)
}

// Query runs q against T's table; q.Table is overwritten.
func (d *Dao[T]) Query(ctx context.Context, q types.Query) ([]*T, error) {
	q.Table = d.table
	rows, err := d.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		e, err := d.cast(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Find returns every entity matching where; nil matches all.
func (d *Dao[T]) Find(ctx context.Context, where types.Predicate, orderBy ...string) ([]*T, error) {
	return d.Query(ctx, types.Query{Where: where, OrderBy: orderBy})
}

// Get returns the entity keyed key, or an error wrapping types.ErrNotFound.
func (d *Dao[T]) Get(ctx context.Context, key any) (*T, error) {
	r, err := d.store.QueryByKey(ctx, d.table, key)
	if err != nil {
		return nil, err
	}
	return d.cast(r)
}

func (d *Dao[T]) cast(r any) (*T, error) {
	e, ok := r.(*T)
	if !ok {
		return nil, &types.SchemaError{Table: d.table, Err: fmt.Errorf("got %T, want %T: %w", r, (*T)(nil), types.ErrMixedCollection)}
	}
	return e, nil
}

func anys[T any](es []*T) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
