package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// Export writes every table to <dir>/<table>.jsonl, one JSON object per
// row in rowid order, and reports what it wrote. Each file is replaced
// atomically.
func (d *DB) Export(ctx context.Context, dir string) ([]types.TableInfo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	var out []types.TableInfo
	err := d.read(ctx, single, func(ctx context.Context, s *session) error {
		names, err := s.queryStrings(ctx, "tables", statement{SQL: listTablesSQL})
		if err != nil {
			return err
		}
		slices.Sort(names)
		for _, name := range names {
			records, err := s.dumpTable(ctx, name)
			if err != nil {
				return err
			}
			if err := writeJSONL(filepath.Join(dir, name+".jsonl"), records); err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}
			out = append(out, types.TableInfo{Name: name, Junction: schema.IsJunctionName(name), Rows: int64(len(records))})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// dumpTable renders every row of table as a JSON object keyed by column.
func (s *session) dumpTable(ctx context.Context, table string) ([]json.RawMessage, error) {
	st, err := toStatement(sq.Select("*").From(quote(table)).OrderBy("rowid"))
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, "export", st)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, &types.EngineError{Op: "export", Err: err}
	}

	var records []json.RawMessage
	for rows.Next() {
		vals := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &types.EngineError{Op: "export", Err: err}
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			rec[c] = vals[i]
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode %s row: %w", table, err)
		}
		records = append(records, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.EngineError{Op: "export", Err: err}
	}
	return records, nil
}

// writeJSONL writes records to path through a synced temp file and a
// rename.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
