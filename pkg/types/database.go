package types

import (
	"context"
	"errors"
)

// Database is the connection owner. Single and Cascade return the two Store
// implementations over one shared handle.
type Database interface {
	// Single returns the Store that touches root rows only.
	Single() Store

	// Cascade returns the Store that follows relations.
	Cascade() Store

	// InTx runs fn in one transaction. Store calls made with the context
	// passed to fn join that transaction instead of opening their own.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases the owner reference. The database is closed once all
	// in-flight calls have released theirs. Idempotent.
	Close() error
}

// Lifecycle errors.
var (
	ErrClosed        = errors.New("database is closed")
	ErrInvalidConfig = errors.New("invalid config")
)
