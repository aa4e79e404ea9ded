package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// mode selects whether a session follows relations.
type mode int

const (
	single mode = iota
	cascade
)

// entityKey identifies one row: table plus primary key rendered as text.
type entityKey struct {
	table string
	key   string
}

func keyOf(t *schema.EntityTable, obj any) entityKey {
	return entityKey{table: t.Name, key: t.KeyString(obj)}
}

// session is the state of one top-level Store call. The visited set and the
// identity map live and die with it.
type session struct {
	db   *DB
	q    querier
	tx   *txState
	mode mode
	opts types.WriteOptions

	visited  map[entityKey]struct{}
	ident    map[entityKey]any
	hydrated map[entityKey]struct{}

	// batch makes root statements go through prepared statements, one per
	// distinct SQL text.
	batch bool
	stmts map[string]*sql.Stmt
	bound map[boundKey]boundStatement
}

type boundKey struct {
	table string
	kind  writeKind
}

func (d *DB) newSession(q querier, tx *txState, m mode, opts types.WriteOptions) *session {
	return &session{
		db:       d,
		q:        q,
		tx:       tx,
		mode:     m,
		opts:     opts,
		visited:  make(map[entityKey]struct{}),
		ident:    make(map[entityKey]any),
		hydrated: make(map[entityKey]struct{}),
		stmts:    make(map[string]*sql.Stmt),
		bound:    make(map[boundKey]boundStatement),
	}
}

func (s *session) close() {
	for _, st := range s.stmts {
		st.Close()
	}
}

func (s *session) cascading() bool { return s.mode == cascade }

func (s *session) exec(ctx context.Context, op string, st statement) (sql.Result, error) {
	s.db.trace(op, st)
	res, err := s.q.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, &types.EngineError{Op: op, Err: err}
	}
	return res, nil
}

// execBound runs a root statement for obj, prepared once per session when
// batching.
func (s *session) execBound(ctx context.Context, op string, bs boundStatement, obj any) (sql.Result, error) {
	st, err := bs.with(obj)
	if err != nil {
		return nil, err
	}
	if !s.batch {
		return s.exec(ctx, op, st)
	}
	prepared, ok := s.stmts[st.SQL]
	if !ok {
		prepared, err = s.q.PrepareContext(ctx, st.SQL)
		if err != nil {
			return nil, &types.EngineError{Op: "prepare", Err: err}
		}
		s.stmts[st.SQL] = prepared
	}
	s.db.trace(op, st)
	res, err := prepared.ExecContext(ctx, st.Args...)
	if err != nil {
		return nil, &types.EngineError{Op: op, Err: err}
	}
	return res, nil
}

func (s *session) query(ctx context.Context, op string, st statement) (*sql.Rows, error) {
	s.db.trace(op, st)
	rows, err := s.q.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, &types.EngineError{Op: op, Err: err}
	}
	return rows, nil
}

// queryStrings reads a single-column result, dropping duplicates.
func (s *session) queryStrings(ctx context.Context, op string, st statement) ([]string, error) {
	rows, err := s.query(ctx, op, st)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	seen := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &types.EngineError{Op: op, Err: err}
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.EngineError{Op: op, Err: err}
	}
	return out, nil
}

// rowsAffected reads the affected count of res.
func rowsAffected(op string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &types.EngineError{Op: op, Err: err}
	}
	return n, nil
}

// collection resolves the table of a homogeneous collection.
func (s *session) collection(entities []any) (*schema.EntityTable, error) {
	var t *schema.EntityTable
	for i, e := range entities {
		et, err := s.db.reg.Lookup(e)
		if err != nil {
			return nil, err
		}
		if t == nil {
			t = et
			continue
		}
		if et != t {
			return nil, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("element %d is %s: %w", i, et.Name, types.ErrMixedCollection)}
		}
	}
	return t, nil
}
