package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// userVersion reads PRAGMA user_version.
func userVersion(ctx context.Context, q querier) (int, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA user_version")
	if err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	defer rows.Close()
	var v int
	if rows.Next() {
		if err := rows.Scan(&v); err != nil {
			return 0, fmt.Errorf("read user_version: %w", err)
		}
	}
	return v, rows.Err()
}

// stampVersion records cfg.Version. An existing database at a lower
// version goes through cfg.OnUpgrade in the same transaction.
func stampVersion(ctx context.Context, db *sql.DB, cfg types.Config) error {
	if cfg.Version == 0 {
		return nil
	}
	current, err := userVersion(ctx, db)
	if err != nil {
		return err
	}
	switch {
	case current == cfg.Version:
		return nil
	case current > cfg.Version:
		cfg.Logger.Warn("database is newer than configured version", "stored", current, "configured", cfg.Version)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &types.EngineError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if current > 0 && cfg.OnUpgrade != nil {
		cfg.Logger.Info("upgrading database", "from", current, "to", cfg.Version)
		if err := cfg.OnUpgrade(ctx, tx, current, cfg.Version); err != nil {
			return fmt.Errorf("upgrade %d -> %d: %w", current, cfg.Version, err)
		}
	}
	// PRAGMA takes no bound parameters; Version is an int.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", cfg.Version)); err != nil {
		return &types.EngineError{Op: "version", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &types.EngineError{Op: "commit", Err: err}
	}
	return nil
}
