package sqlite

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

var sq = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// statement is one parameterized SQL statement.
type statement struct {
	SQL  string
	Args []any
}

func toStatement(b squirrel.Sqlizer) (statement, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return statement{}, fmt.Errorf("build statement: %w", err)
	}
	return statement{SQL: q, Args: args}, nil
}

// boundStatement is a statement template whose arguments are recomputed
// per entity. SQL is identical for every entity of the table, so batch
// callers prepare it once.
type boundStatement struct {
	SQL  string
	bind func(obj any) ([]any, error)
}

func (b boundStatement) with(obj any) (statement, error) {
	args, err := b.bind(obj)
	if err != nil {
		return statement{}, err
	}
	return statement{SQL: b.SQL, Args: args}, nil
}

func placeholders(n int) []any {
	return make([]any, n)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return out
}

func keyEq(t *schema.EntityTable) string {
	return quote(t.Key.Column) + " = ?"
}

// insertStatement writes every column. replace selects INSERT OR REPLACE
// (save); otherwise policy picks the conflict clause.
func insertStatement(t *schema.EntityTable, policy types.ConflictPolicy, replace bool) (boundStatement, error) {
	cols := t.ColumnNames()
	b := sq.Insert(quote(t.Name)).Columns(quoteAll(cols)...).Values(placeholders(len(cols))...)
	switch {
	case replace:
		b = b.Options("OR REPLACE")
	case policy.SQL() != "":
		b = b.Options("OR " + policy.SQL())
	}
	st, err := toStatement(b)
	if err != nil {
		return boundStatement{}, err
	}
	return boundStatement{SQL: st.SQL, bind: t.Values}, nil
}

// updateStatement writes every scalar column, or only cv's columns. With
// explicit values in cv, those are bound instead of the entity's fields.
func updateStatement(t *schema.EntityTable, cv *types.ColumnsValue, policy types.ConflictPolicy) (boundStatement, error) {
	cols := make([]string, 0, len(t.Columns))
	if cv != nil {
		if err := cv.Check(); err != nil {
			return boundStatement{}, err
		}
		for _, c := range cv.Columns {
			if _, ok := t.Column(c); !ok {
				return boundStatement{}, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("%s: %w", c, types.ErrUnknownColumn)}
			}
			cols = append(cols, c)
		}
	} else {
		for _, c := range t.Columns {
			cols = append(cols, c.Name)
		}
	}
	if len(cols) == 0 {
		return boundStatement{}, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("no columns to update: %w", types.ErrUnknownColumn)}
	}

	table := quote(t.Name)
	if p := policy.SQL(); p != "" {
		table = "OR " + p + " " + table
	}
	b := sq.Update(table)
	for _, c := range cols {
		b = b.Set(quote(c), nil)
	}
	b = b.Where(keyEq(t), nil)
	st, err := toStatement(b)
	if err != nil {
		return boundStatement{}, err
	}

	bind := func(obj any) ([]any, error) {
		var vals []any
		if cv.HasValues() {
			vals = append(make([]any, 0, len(cols)+1), cv.Values...)
		} else {
			var err error
			if vals, err = t.ColumnValues(obj, cols); err != nil {
				return nil, err
			}
		}
		return append(vals, t.KeyValue(obj)), nil
	}
	return boundStatement{SQL: st.SQL, bind: bind}, nil
}

func deleteByKeyStatement(t *schema.EntityTable) (boundStatement, error) {
	st, err := toStatement(sq.Delete(quote(t.Name)).Where(keyEq(t), nil))
	if err != nil {
		return boundStatement{}, err
	}
	return boundStatement{SQL: st.SQL, bind: func(obj any) ([]any, error) {
		return []any{t.KeyValue(obj)}, nil
	}}, nil
}

func deleteByKeysStatement(t *schema.EntityTable, keys []any) (statement, error) {
	return toStatement(sq.Delete(quote(t.Name)).Where(squirrel.Eq{quote(t.Key.Column): keys}))
}

// deleteWhereStatement deletes rows matching where; nil deletes every row.
func deleteWhereStatement(table string, where types.Predicate) (statement, error) {
	b := sq.Delete(quote(table))
	if where != nil {
		b = b.Where(where)
	}
	return toStatement(b)
}

// rangeWindow converts an inclusive 1-based window into LIMIT and OFFSET.
// start 0 counts as 1; limit -1 means no limit.
func rangeWindow(start, end int64) (limit, offset int64, err error) {
	if start < 0 || end < start {
		return 0, 0, &types.InvalidRangeError{Start: start, End: end}
	}
	if start == 0 {
		start = 1
	}
	offset = start - 1
	if end == types.ToLastRow {
		return -1, offset, nil
	}
	return end - start + 1, offset, nil
}

// rangeKeysQuery selects the keys ranked start..end by orderColumn.
func rangeKeysQuery(t *schema.EntityTable, start, end int64, orderColumn string) (squirrel.SelectBuilder, error) {
	if !t.HasColumn(orderColumn) {
		return squirrel.SelectBuilder{}, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("order column %s: %w", orderColumn, types.ErrUnknownColumn)}
	}
	limit, offset, err := rangeWindow(start, end)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return sq.Select(quote(t.Key.Column)).
		From(quote(t.Name)).
		OrderBy(quote(orderColumn) + " ASC").
		Suffix("LIMIT ? OFFSET ?", limit, offset), nil
}

// deleteRangeStatement deletes the rows ranked start..end by orderColumn:
// DELETE FROM t WHERE key IN (SELECT key FROM t ORDER BY col ASC LIMIT n OFFSET m)
func deleteRangeStatement(t *schema.EntityTable, start, end int64, orderColumn string) (statement, error) {
	sub, err := rangeKeysQuery(t, start, end, orderColumn)
	if err != nil {
		return statement{}, err
	}
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return statement{}, fmt.Errorf("build statement: %w", err)
	}
	return toStatement(sq.Delete(quote(t.Name)).
		Where(squirrel.Expr(quote(t.Key.Column)+" IN ("+subSQL+")", subArgs...)))
}

// orderTerm validates "column" or "column ASC|DESC".
func orderTerm(t *schema.EntityTable, term string) (string, error) {
	fields := strings.Fields(term)
	if len(fields) == 0 || len(fields) > 2 || !t.HasColumn(fields[0]) {
		return "", &types.SchemaError{Table: t.Name, Err: fmt.Errorf("order by %q: %w", term, types.ErrUnknownColumn)}
	}
	out := quote(fields[0])
	if len(fields) == 2 {
		dir := strings.ToUpper(fields[1])
		if dir != "ASC" && dir != "DESC" {
			return "", &types.SchemaError{Table: t.Name, Err: fmt.Errorf("order by %q: bad direction", term)}
		}
		out += " " + dir
	}
	return out, nil
}

func selectRows(t *schema.EntityTable) squirrel.SelectBuilder {
	return sq.Select(quoteAll(t.ColumnNames())...).From(quote(t.Name))
}

// selectStatement builds the root query of Query.
func selectStatement(t *schema.EntityTable, q types.Query) (statement, error) {
	b := selectRows(t)
	if q.Where != nil {
		b = b.Where(q.Where)
	}
	for _, term := range q.OrderBy {
		o, err := orderTerm(t, term)
		if err != nil {
			return statement{}, err
		}
		b = b.OrderBy(o)
	}
	switch {
	case q.Limit > 0:
		b = b.Limit(q.Limit).Offset(q.Offset)
	case q.Offset > 0:
		b = b.Suffix("LIMIT -1 OFFSET ?", q.Offset)
	}
	return toStatement(b)
}

func selectByKeyStatement(t *schema.EntityTable, key any) (statement, error) {
	return toStatement(selectRows(t).Where(keyEq(t), key))
}

func selectByKeysStatement(t *schema.EntityTable, keys []any) (statement, error) {
	return toStatement(selectRows(t).Where(squirrel.Eq{quote(t.Key.Column): keys}))
}

// selectKeysStatement selects the keys of the rows matching where.
func selectKeysStatement(t *schema.EntityTable, where types.Predicate) (statement, error) {
	b := sq.Select(quote(t.Key.Column)).From(quote(t.Name))
	if where != nil {
		b = b.Where(where)
	}
	return toStatement(b)
}

// Junction statements. own is the column holding the owner's key.

func selectLinksStatement(j schema.Junction, own, other, key string) (statement, error) {
	return toStatement(sq.Select(quote(other)).From(quote(j.Name)).Where(quote(own)+" = ?", key).OrderBy("rowid"))
}

func deleteLinksStatement(j schema.Junction, own, key string) (statement, error) {
	return toStatement(sq.Delete(quote(j.Name)).Where(quote(own)+" = ?", key))
}

// unlinkStatement removes every row holding one of keys in any of cols.
func unlinkStatement(j schema.Junction, cols []string, keys []string) (statement, error) {
	or := squirrel.Or{}
	for _, c := range cols {
		or = append(or, squirrel.Eq{quote(c): keys})
	}
	return toStatement(sq.Delete(quote(j.Name)).Where(or))
}

// insertLinksStatements links key to every target, chunked so no statement
// binds more than limit parameters. Duplicate links are ignored.
func insertLinksStatements(j schema.Junction, own, other, key string, targets []string, limit int) ([]statement, error) {
	perStmt := max(limit/2, 1)
	var out []statement
	for start := 0; start < len(targets); start += perStmt {
		end := min(start+perStmt, len(targets))
		b := sq.Insert(quote(j.Name)).Options("OR IGNORE").Columns(quote(own), quote(other))
		for _, tk := range targets[start:end] {
			b = b.Values(key, tk)
		}
		st, err := toStatement(b)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// chunk splits keys into slices of at most n.
func chunk[K any](keys []K, n int) [][]K {
	if n <= 0 {
		n = len(keys)
	}
	var out [][]K
	for start := 0; start < len(keys); start += n {
		out = append(out, keys[start:min(start+n, len(keys))])
	}
	return out
}
