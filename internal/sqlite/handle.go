package sqlite

import (
	"database/sql"
	"sync"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// handle reference-counts the *sql.DB shared by both stores. It starts with
// the owner's reference; the database is closed when the count drops to
// zero, so in-flight calls finish before Close takes effect.
type handle struct {
	mu   sync.Mutex
	db   *sql.DB
	refs int
}

func newHandle(db *sql.DB) *handle {
	return &handle{db: db, refs: 1}
}

// acquire adds a reference. Returns ErrClosed once the handle is closed.
func (h *handle) acquire() (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs == 0 {
		return nil, types.ErrClosed
	}
	h.refs++
	return h.db, nil
}

// release drops a reference and closes the database on the last one.
func (h *handle) release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs == 0 {
		return nil
	}
	h.refs--
	if h.refs == 0 {
		return h.db.Close()
	}
	return nil
}

func (h *handle) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}
