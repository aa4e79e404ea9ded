package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// DB owns one SQLite database and the two stores over it.
type DB struct {
	h      *handle
	reg    *schema.Registry
	tables *tableRegistry
	cfg    types.Config
	log    *slog.Logger

	single  *singleStore
	cascade *cascadeStore

	closeOnce sync.Once
	closeErr  error
}

var _ types.Database = (*DB)(nil)

// Open opens the database at cfg.Path, creating the file and its parent
// directory when missing, and stamps cfg.Version.
func Open(ctx context.Context, cfg types.Config, reg *schema.Registry) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	if !cfg.IsMemory() {
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		cfg.Logger.Info("DB mode: persistent", "path", cfg.Path)
	} else {
		cfg.Logger.Info("DB mode: in-memory")
	}

	dsn := buildDSN(cfg.Path, pragmasFor(cfg))
	cfg.Logger.Debug("opening database", "driver", driverName, "dsn", dsn)
	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	success := false
	defer func() {
		if !success {
			sqldb.Close()
		}
	}()

	// single writer
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := stampVersion(ctx, sqldb, cfg); err != nil {
		return nil, err
	}

	d, err := OpenDB(ctx, sqldb, reg, cfg)
	if err != nil {
		return nil, err
	}
	success = true
	return d, nil
}

// OpenDB wraps an already opened pool. The DB takes ownership of sqldb.
func OpenDB(ctx context.Context, sqldb *sql.DB, reg *schema.Registry, cfg types.Config) (*DB, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil schema registry", types.ErrInvalidConfig)
	}
	cfg = cfg.WithDefaults()
	d := &DB{
		h:      newHandle(sqldb),
		reg:    reg,
		tables: newTableRegistry(),
		cfg:    cfg,
		log:    cfg.Logger,
	}
	if err := d.tables.load(ctx, sqldb); err != nil {
		return nil, err
	}
	d.single = &singleStore{db: d}
	d.cascade = &cascadeStore{db: d}
	return d, nil
}

// Single returns the store that ignores relations.
func (d *DB) Single() types.Store { return d.single }

// Cascade returns the store that follows relations.
func (d *DB) Cascade() types.Store { return d.cascade }

// Registry returns the schema registry the DB was opened with.
func (d *DB) Registry() *schema.Registry { return d.reg }

// Close releases the owner's reference. The pool closes once running calls
// have finished. Idempotent.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.log.Info("closing database", "path", d.cfg.Path)
		d.closeErr = d.h.release()
	})
	return d.closeErr
}

func (d *DB) trace(op string, st statement) {
	if d.cfg.Debug {
		d.log.Debug("sql", "op", op, "query", st.SQL, "args", st.Args)
	}
}
