package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/lattice/pkg/schema"
)

// tableRegistry remembers which tables exist. Names are loaded once from
// sqlite_master at open and only grow afterwards. DDL issued inside a
// transaction stays in that transaction's pending set until commit.
type tableRegistry struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

func newTableRegistry() *tableRegistry {
	return &tableRegistry{known: make(map[string]struct{})}
}

// load reads the tables created by earlier processes.
func (r *tableRegistry) load(ctx context.Context, q querier) error {
	rows, err := q.QueryContext(ctx, listTablesSQL)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		r.known[name] = struct{}{}
	}
	return rows.Err()
}

func (r *tableRegistry) isKnown(name string) bool {
	r.mu.RLock()
	_, ok := r.known[name]
	r.mu.RUnlock()
	return ok
}

// commit commits tx and marks the DDL it ran as known. The registry stays
// locked until both are done, so the next transaction on the connection
// sees the tables as known and issues no DDL for them.
func (r *tableRegistry) commit(tx *sql.Tx, pending map[string]struct{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := tx.Commit(); err != nil {
		return err
	}
	for name := range pending {
		r.known[name] = struct{}{}
	}
	return nil
}

// ensureTable creates t's table on first use in s.
func (s *session) ensureTable(ctx context.Context, t *schema.EntityTable) error {
	return s.ensure(ctx, t.Name, createTableSQL(t))
}

// ensureJunction creates j on first use in s.
func (s *session) ensureJunction(ctx context.Context, j schema.Junction) error {
	return s.ensure(ctx, j.Name, createJunctionSQL(j))
}

func (s *session) ensure(ctx context.Context, name, ddl string) error {
	if s.known(name) {
		return nil
	}
	if _, err := s.exec(ctx, "create", statement{SQL: ddl}); err != nil {
		return err
	}
	s.tx.pending[name] = struct{}{}
	return nil
}

// known reports whether name exists for this call: committed, or created
// earlier in the same transaction.
func (s *session) known(name string) bool {
	if s.tx != nil {
		if _, ok := s.tx.pending[name]; ok {
			return true
		}
	}
	return s.db.tables.isKnown(name)
}
