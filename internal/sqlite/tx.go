package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// txState is the transaction a context carries. pending holds the tables
// created in it; they become known only after commit.
type txState struct {
	tx      *sql.Tx
	pending map[string]struct{}
}

// txKey scopes a carried transaction to the DB that opened it.
type txKey struct{ db *DB }

func (d *DB) txFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{db: d}).(*txState)
	return st
}

// InTx runs fn in one transaction. Store calls on d made with the context
// passed to fn join it. A nested InTx on d joins the outer transaction;
// calls on another DB run in a transaction of their own.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if d.txFrom(ctx) != nil {
		return fn(ctx)
	}
	db, err := d.h.acquire()
	if err != nil {
		return err
	}
	defer d.h.release()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &types.EngineError{Op: "begin", Err: err}
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.log.Warn("rollback failed", "err", rbErr)
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	st := &txState{tx: tx, pending: make(map[string]struct{})}
	if err := fn(context.WithValue(ctx, txKey{db: d}, st)); err != nil {
		rollback()
		return err
	}
	if err := d.tables.commit(tx, st.pending); err != nil {
		return &types.EngineError{Op: "commit", Err: err}
	}
	return nil
}

// write runs fn in a new session inside the caller's transaction, or a
// transaction of its own.
func (d *DB) write(ctx context.Context, mode mode, opts types.WriteOptions, fn func(ctx context.Context, s *session) error) error {
	return d.InTx(ctx, func(ctx context.Context) error {
		st := d.txFrom(ctx)
		s := d.newSession(st.tx, st, mode, opts)
		defer s.close()
		return fn(ctx, s)
	})
}

// read runs fn in a new session. Reads join the caller's transaction when
// there is one and run directly on the pool otherwise.
func (d *DB) read(ctx context.Context, mode mode, fn func(ctx context.Context, s *session) error) error {
	if st := d.txFrom(ctx); st != nil {
		s := d.newSession(st.tx, st, mode, types.WriteOptions{})
		defer s.close()
		return fn(ctx, s)
	}
	db, err := d.h.acquire()
	if err != nil {
		return err
	}
	defer d.h.release()
	s := d.newSession(db, nil, mode, types.WriteOptions{})
	defer s.close()
	return fn(ctx, s)
}
