package sqlite

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// Import loads every <table>.jsonl file in dir, as written by Export, in one
// transaction. Registered tables and the junctions between them are
// created when missing; other files load only into tables that already
// exist and are skipped otherwise. Rows replace rows with the same key,
// duplicate links are ignored, malformed lines and unknown fields are
// skipped.
func (d *DB) Import(ctx context.Context, dir string) ([]types.TableInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	slices.Sort(files)
	junctions := d.junctions()

	var out []types.TableInfo
	err = d.write(ctx, single, types.WriteOptions{}, func(ctx context.Context, s *session) error {
		for _, path := range files {
			name := strings.TrimSuffix(filepath.Base(path), ".jsonl")
			t, _ := d.reg.Table(name)
			j, isJunction := junctions[name]
			switch {
			case t != nil:
				if err := s.ensureTable(ctx, t); err != nil {
					return err
				}
			case isJunction:
				if err := s.ensureJunction(ctx, j); err != nil {
					return err
				}
			case !s.known(name):
				d.log.Warn("skipping unknown table", "file", path)
				continue
			}

			records, err := readJSONL(path)
			if err != nil {
				return err
			}
			n, err := s.loadRecords(ctx, name, t, records)
			if err != nil {
				return fmt.Errorf("loading %s: %w", filepath.Base(path), err)
			}
			out = append(out, types.TableInfo{Name: name, Junction: schema.IsJunctionName(name), Rows: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// junctions returns every junction implied by the registered relations.
func (d *DB) junctions() map[string]schema.Junction {
	out := make(map[string]schema.Junction)
	for _, t := range d.reg.Tables() {
		for _, peer := range d.reg.Peers(t.Name) {
			j := schema.JunctionOf(t.Name, peer)
			out[j.Name] = j
		}
	}
	return out
}

// loadRecords inserts records into table. t is nil for tables without a
// registered descriptor.
func (s *session) loadRecords(ctx context.Context, table string, t *schema.EntityTable, records []map[string]any) (int64, error) {
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return 0, err
	}
	policy := "OR REPLACE"
	if schema.IsJunctionName(table) {
		policy = "OR IGNORE"
	}

	var total int64
	for _, rec := range records {
		b := sq.Insert(quote(table)).Options(policy)
		var names []string
		var vals []any
		for _, c := range cols {
			v, ok := rec[c]
			if !ok {
				continue
			}
			if v, err = columnValue(t, c, v); err != nil {
				return 0, err
			}
			names = append(names, quote(c))
			vals = append(vals, v)
		}
		if len(names) == 0 {
			continue
		}
		st, err := toStatement(b.Columns(names...).Values(vals...))
		if err != nil {
			return 0, err
		}
		n, err := s.execCount(ctx, "import", st)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// columnValue converts a decoded JSON value to its bound form. Numbers bind
// as their text and SQLite applies the column affinity. The base64 text
// Export writes for BLOB columns turns back into bytes.
func columnValue(t *schema.EntityTable, column string, v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		return n.String(), nil
	}
	if t == nil {
		return v, nil
	}
	c, ok := t.Column(column)
	str, isString := v.(string)
	if !ok || c.SQLType != schema.SQLBlob || !isString {
		return v, nil
	}
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, &types.MappingError{Table: t.Name, Err: fmt.Errorf("column %s: %w", column, err)}
	}
	return b, nil
}

// readJSONL decodes one JSON object per line. Blank and malformed lines are
// skipped. Numbers stay json.Number so integers survive unchanged.
func readJSONL(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil || rec == nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}
