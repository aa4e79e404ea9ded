package sqlite

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// Inspection works from the catalog alone, so it also serves databases
// whose Go types are not registered.

// Tables lists the tables of the database with their row counts.
func (d *DB) Tables(ctx context.Context) ([]types.TableInfo, error) {
	var out []types.TableInfo
	err := d.read(ctx, single, func(ctx context.Context, s *session) error {
		names, err := s.queryStrings(ctx, "tables", statement{SQL: listTablesSQL})
		if err != nil {
			return err
		}
		slices.Sort(names)
		for _, name := range names {
			n, err := s.count(ctx, name)
			if err != nil {
				return err
			}
			out = append(out, types.TableInfo{Name: name, Junction: schema.IsJunctionName(name), Rows: n})
		}
		return nil
	})
	return out, err
}

func (s *session) count(ctx context.Context, table string) (int64, error) {
	st, err := toStatement(sq.Select("COUNT(*)").From(quote(table)))
	if err != nil {
		return 0, err
	}
	rows, err := s.query(ctx, "count", st)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, &types.EngineError{Op: "count", Err: err}
		}
	}
	return n, rows.Err()
}

// Links lists the keys of table b linked to key of table a.
func (d *DB) Links(ctx context.Context, a, b, key string) ([]types.Link, error) {
	j := schema.JunctionOf(a, b)
	var out []types.Link
	err := d.read(ctx, single, func(ctx context.Context, s *session) error {
		if !s.known(j.Name) {
			return nil
		}
		own, other := j.Columns(a)
		st, err := selectLinksStatement(j, own, other, key)
		if err != nil {
			return err
		}
		peers, err := s.queryStrings(ctx, "links", st)
		if err != nil {
			return err
		}
		for _, p := range peers {
			out = append(out, types.Link{Junction: j.Name, Left: a, Right: b, From: key, To: p})
		}
		return nil
	})
	return out, err
}

// junctionColumn is one side of a junction found in the catalog.
type junctionColumn struct {
	column string
	table  string
}

// Prune deletes junction rows that reference a missing entity row and
// returns how many were removed.
func (d *DB) Prune(ctx context.Context) (int64, error) {
	var total int64
	err := d.write(ctx, single, types.WriteOptions{}, func(ctx context.Context, s *session) error {
		names, err := s.queryStrings(ctx, "tables", statement{SQL: listTablesSQL})
		if err != nil {
			return err
		}
		for _, name := range names {
			if !schema.IsJunctionName(name) {
				continue
			}
			n, err := s.pruneJunction(ctx, name)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *session) pruneJunction(ctx context.Context, name string) (int64, error) {
	cols, err := s.tableColumns(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(cols) != 2 {
		s.db.log.Warn("skipping malformed junction", "table", name, "columns", len(cols))
		return 0, nil
	}
	or := squirrel.Or{}
	for _, c := range []junctionColumn{
		{column: cols[0], table: cols[0]},
		{column: cols[1], table: strings.TrimSuffix(cols[1], "_peer")},
	} {
		if !s.known(c.table) {
			// every key points at a table that does not exist
			or = append(or, squirrel.Expr("1 = 1"))
			continue
		}
		pk, err := s.primaryKey(ctx, c.table)
		if err != nil {
			return 0, err
		}
		or = append(or, squirrel.Expr(fmt.Sprintf("%s NOT IN (SELECT CAST(%s AS TEXT) FROM %s)",
			quote(c.column), quote(pk), quote(c.table))))
	}
	st, err := toStatement(sq.Delete(quote(name)).Where(or))
	if err != nil {
		return 0, err
	}
	return s.execCount(ctx, "prune", st)
}

// tableColumns returns the column names of table in declaration order.
func (s *session) tableColumns(ctx context.Context, table string) ([]string, error) {
	cols, _, err := s.tableInfo(ctx, table)
	return cols, err
}

// primaryKey returns the primary key column of table.
func (s *session) primaryKey(ctx context.Context, table string) (string, error) {
	_, pk, err := s.tableInfo(ctx, table)
	if err != nil {
		return "", err
	}
	if pk == "" {
		return "rowid", nil
	}
	return pk, nil
}

func (s *session) tableInfo(ctx context.Context, table string) (cols []string, pk string, err error) {
	st := statement{SQL: "SELECT name, pk FROM pragma_table_info(?) ORDER BY cid", Args: []any{table}}
	rows, err := s.query(ctx, "table_info", st)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var isPK int
		if err := rows.Scan(&name, &isPK); err != nil {
			return nil, "", &types.EngineError{Op: "table_info", Err: err}
		}
		cols = append(cols, name)
		if isPK == 1 {
			pk = name
		}
	}
	return cols, pk, rows.Err()
}
