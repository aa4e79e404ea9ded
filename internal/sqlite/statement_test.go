package sqlite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

func TestInsertStatement(t *testing.T) {
	tests := []struct {
		name    string
		policy  types.ConflictPolicy
		replace bool
		prefix  string
	}{
		{"save", types.ConflictNone, true, `INSERT OR REPLACE INTO "people"`},
		{"plain", types.ConflictNone, false, `INSERT INTO "people"`},
		{"ignore", types.ConflictIgnore, false, `INSERT OR IGNORE INTO "people"`},
		{"abort", types.ConflictAbort, false, `INSERT OR ABORT INTO "people"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs, err := insertStatement(personTable, tt.policy, tt.replace)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(bs.SQL, tt.prefix), bs.SQL)
			assert.Contains(t, bs.SQL, `("id","name","age")`)
		})
	}

	bs, err := insertStatement(personTable, types.ConflictNone, true)
	require.NoError(t, err)
	st, err := bs.with(&Person{Name: "n", Age: 3})
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "n", int64(3)}, st.Args, "unset auto key binds NULL")
}

func TestUpdateStatement(t *testing.T) {
	bs, err := updateStatement(personTable, nil, types.ConflictNone)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "people" SET "name" = ?, "age" = ? WHERE "id" = ?`, bs.SQL)

	bs, err = updateStatement(personTable, &types.ColumnsValue{Columns: []string{"age"}}, types.ConflictReplace)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE OR REPLACE "people" SET "age" = ? WHERE "id" = ?`, bs.SQL)
	st, err := bs.with(&Person{ID: 9, Age: 4})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(9)}, st.Args)

	bs, err = updateStatement(personTable, &types.ColumnsValue{Columns: []string{"age"}, Values: []any{40}}, types.ConflictNone)
	require.NoError(t, err)
	st, err = bs.with(&Person{ID: 9, Age: 4})
	require.NoError(t, err)
	assert.Equal(t, []any{40, int64(9)}, st.Args, "explicit values win over fields")

	_, err = updateStatement(personTable, &types.ColumnsValue{Columns: []string{"missing"}}, types.ConflictNone)
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
	assert.True(t, types.IsSchemaError(err))
}

func TestRangeWindow(t *testing.T) {
	tests := []struct {
		name          string
		start, end    int64
		limit, offset int64
		wantErr       bool
	}{
		{"middle", 3, 5, 3, 2, false},
		{"zero start", 0, 5, 5, 0, false},
		{"single row", 2, 2, 1, 1, false},
		{"to last row", 1, types.ToLastRow, -1, 0, false},
		{"end before start", 5, 3, 0, 0, true},
		{"negative start", -1, 3, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := rangeWindow(tt.start, tt.end)
			if tt.wantErr {
				var rangeErr *types.InvalidRangeError
				assert.ErrorAs(t, err, &rangeErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.limit, limit)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestDeleteRangeStatement(t *testing.T) {
	st, err := deleteRangeStatement(personTable, 3, 5, "age")
	require.NoError(t, err)
	assert.Equal(t,
		`DELETE FROM "people" WHERE "id" IN (SELECT "id" FROM "people" ORDER BY "age" ASC LIMIT ? OFFSET ?)`,
		st.SQL)
	assert.Equal(t, []any{int64(3), int64(2)}, st.Args)

	st, err = deleteRangeStatement(personTable, 1, types.ToLastRow, "age")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(-1), int64(0)}, st.Args)

	_, err = deleteRangeStatement(personTable, 1, 2, "height")
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
}

func TestSelectStatement(t *testing.T) {
	st, err := selectStatement(personTable, types.Query{Table: "people"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name", "age" FROM "people"`, st.SQL)

	st, err = selectStatement(personTable, types.Query{Table: "people", OrderBy: []string{"name", "age desc"}, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Contains(t, st.SQL, `ORDER BY "name", "age" DESC LIMIT 10 OFFSET 20`)

	st, err = selectStatement(personTable, types.Query{Table: "people", Offset: 5})
	require.NoError(t, err)
	assert.Contains(t, st.SQL, "LIMIT -1 OFFSET ?")
	assert.Equal(t, []any{uint64(5)}, st.Args)

	for _, bad := range []string{"", "nope", "age sideways", "age asc extra"} {
		_, err := orderTerm(personTable, bad)
		assert.Error(t, err, bad)
	}
}

func TestJunctionStatements(t *testing.T) {
	j := schema.JunctionOf("people", "tags")
	own, other := j.Columns("people")

	st, err := selectLinksStatement(j, own, other, "7")
	require.NoError(t, err)
	assert.Equal(t, `SELECT "tags" FROM "junction_people_tags" WHERE "people" = ? ORDER BY rowid`, st.SQL)
	assert.Equal(t, []any{"7"}, st.Args)

	self := schema.JunctionOf("people", "people")
	st, err = unlinkStatement(self, self.KeyColumns("people"), []string{"1", "2"})
	require.NoError(t, err)
	assert.Contains(t, st.SQL, `"people" IN (?,?)`)
	assert.Contains(t, st.SQL, `"people_peer" IN (?,?)`)
	assert.Len(t, st.Args, 4)

	targets := make([]string, 11)
	for i := range targets {
		targets[i] = string(rune('a' + i))
	}
	stmts, err := insertLinksStatements(j, own, other, "7", targets, 10)
	require.NoError(t, err)
	require.Len(t, stmts, 3, "limit 10 allows five pairs per statement")
	assert.Len(t, stmts[0].Args, 10)
	assert.Len(t, stmts[2].Args, 2)
	assert.Contains(t, stmts[0].SQL, `INSERT OR IGNORE INTO "junction_people_tags" ("people","tags")`)

	stmts, err = insertLinksStatements(j, own, other, "7", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2}}, chunk([]int{1, 2}, 2))
	assert.Nil(t, chunk([]int(nil), 2))
}
