package types

import (
	"context"
	"errors"
)

// Store is the CRUD surface shared by the single and cascade engines.
// Entities are pointers to structs registered in a schema.Registry;
// collections are homogeneous slices of such pointers passed as []any.
//
// Write calls on one Store run synchronously inside one transaction each.
// Callers must serialize write calls that touch overlapping object graphs;
// the engine relies on SQLite's own isolation and adds no locking.
type Store interface {
	// Save inserts or replaces the entity and returns its row id.
	Save(ctx context.Context, entity any) (int64, error)

	// SaveAll inserts or replaces every entity in one transaction and
	// returns the number of root rows affected.
	SaveAll(ctx context.Context, entities []any) (int64, error)

	// Insert inserts the entity and returns its row id. WithConflict
	// selects the conflict policy.
	Insert(ctx context.Context, entity any, opts ...WriteOption) (int64, error)

	// InsertAll inserts every entity in one transaction.
	InsertAll(ctx context.Context, entities []any, opts ...WriteOption) (int64, error)

	// Update updates the entity's row. WithColumns restricts the update to
	// the given columns.
	Update(ctx context.Context, entity any, opts ...WriteOption) (int64, error)

	// UpdateAll updates every entity in one transaction.
	UpdateAll(ctx context.Context, entities []any, opts ...WriteOption) (int64, error)

	// Delete removes the entity's row and its links.
	Delete(ctx context.Context, entity any, opts ...WriteOption) (int64, error)

	// DeleteAll removes every entity in one transaction.
	DeleteAll(ctx context.Context, entities []any, opts ...WriteOption) (int64, error)

	// DeleteWhere removes the rows of the named table matching where.
	DeleteWhere(ctx context.Context, table string, where Predicate) (int64, error)

	// DeleteRange removes the rows ranked start..end (inclusive, 1-based)
	// when ordered ascending by orderColumn. end == ToLastRow removes every
	// row from start onward.
	DeleteRange(ctx context.Context, table string, start, end int64, orderColumn string) (int64, error)

	// DeleteEvery removes every row of the named table.
	DeleteEvery(ctx context.Context, table string) (int64, error)

	// Query returns the entities matching q.
	Query(ctx context.Context, q Query) ([]any, error)

	// QueryByKey returns the entity with the given primary key.
	// Returns ErrNotFound if no such row exists.
	QueryByKey(ctx context.Context, table string, key any) (any, error)
}

// Store errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrNoPrimaryKey    = errors.New("primary key is not set")
	ErrNotRegistered   = errors.New("entity type is not registered")
	ErrMixedCollection = errors.New("collection mixes entity types")
	ErrBadRelation     = errors.New("malformed relation")
	ErrDuplicateTable  = errors.New("table name already registered")
	ErrJunctionClash   = errors.New("junction name shared by two table pairs")
	ErrUnknownColumn   = errors.New("unknown column")
)
