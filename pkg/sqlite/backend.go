// Package sqlite opens lattice databases. The engine itself lives in an
// internal package; this package exposes the constructors.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/mesh-intelligence/lattice/internal/sqlite"
	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// DB is an open database with a single and a cascade store over one
// connection pool.
type DB = sqlite.DB

// Open opens or creates the database described by cfg.
//
// Example:
//
//	reg, _ := schema.NewRegistry(personTable, tagTable)
//	db, err := sqlite.Open(ctx, types.Config{Path: "app.db"}, reg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	id, err := db.Cascade().Save(ctx, person)
func Open(ctx context.Context, cfg types.Config, reg *schema.Registry) (*DB, error) {
	return sqlite.Open(ctx, cfg, reg)
}

// OpenDB wraps a pool opened by the caller. The DB takes ownership of it.
func OpenDB(ctx context.Context, db *sql.DB, reg *schema.Registry, cfg types.Config) (*DB, error) {
	return sqlite.OpenDB(ctx, db, reg, cfg)
}

// Driver reports the database/sql driver name compiled into this build.
func Driver() string {
	return sqlite.DriverName()
}
