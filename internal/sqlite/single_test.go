package sqlite

import (
	"context"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

func seedAges(t *testing.T, store types.Store, ages ...int64) {
	t.Helper()
	people := make([]any, 0, len(ages))
	for _, a := range ages {
		people = append(people, &Person{Name: "p", Age: a})
	}
	_, err := store.SaveAll(context.Background(), people)
	require.NoError(t, err)
}

func ages(t *testing.T, store types.Store) []int64 {
	t.Helper()
	rows, err := store.Query(context.Background(), types.Query{Table: "people", OrderBy: []string{"age"}})
	require.NoError(t, err)
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.(*Person).Age)
	}
	return out
}

func TestSingleIgnoresRelations(t *testing.T) {
	d, h := openTestDB(t)
	ctx := context.Background()

	p := &Person{Name: "solo", Tags: []*Tag{{Label: "x"}}, Address: &Address{Street: "s"}}
	id, err := d.Single().Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p.ID, id)

	assert.Zero(t, rawCount(t, d, `SELECT COUNT(*) FROM sqlite_master WHERE name LIKE 'junction_%'`))
	assert.Zero(t, rawCount(t, d, `SELECT COUNT(*) FROM sqlite_master WHERE name IN ('tags', 'addresses')`))
	assert.Equal(t, 1, h.count(`CREATE TABLE`), "only the root table")
	assert.Empty(t, p.Address.ID, "related entities are not touched")

	// hydrate a graph written in cascade mode: single mode leaves relations nil
	q := &Person{Name: "linked", Tags: []*Tag{{Label: "y"}}}
	_, err = d.Cascade().Save(ctx, q)
	require.NoError(t, err)
	got, err := d.Single().QueryByKey(ctx, "people", q.ID)
	require.NoError(t, err)
	assert.Equal(t, "linked", got.(*Person).Name)
	assert.Nil(t, got.(*Person).Tags)
}

func TestSingleDeleteRange(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()
	store := d.Single()
	seedAges(t, store, 4, 1, 6, 3, 2, 5)

	n, err := store.DeleteRange(ctx, "people", 3, 5, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []int64{1, 2, 6}, ages(t, store))

	n, err = store.DeleteRange(ctx, "people", 0, 1, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "start 0 counts as 1")
	assert.Equal(t, []int64{2, 6}, ages(t, store))

	n, err = store.DeleteRange(ctx, "people", 1, types.ToLastRow, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, ages(t, store))
}

func TestDeleteRangeErrors(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()
	seedAges(t, d.Single(), 1, 2)

	for _, store := range []types.Store{d.Single(), d.Cascade()} {
		_, err := store.DeleteRange(ctx, "people", 5, 3, "age")
		var rangeErr *types.InvalidRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, int64(5), rangeErr.Start)

		_, err = store.DeleteRange(ctx, "people", -1, 3, "age")
		assert.ErrorAs(t, err, &rangeErr)

		_, err = store.DeleteRange(ctx, "people", 1, 2, "nope")
		assert.ErrorIs(t, err, types.ErrUnknownColumn)
	}
	assert.Equal(t, 2, rawCount(t, d, `SELECT COUNT(*) FROM people`))
}

func TestCascadeDeleteRangeUnlinks(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()
	store := d.Cascade()

	for i := range 4 {
		_, err := store.Save(ctx, &Person{Name: "p", Age: int64(i + 1), Tags: []*Tag{{Label: "t"}}})
		require.NoError(t, err)
	}
	n, err := store.DeleteRange(ctx, "people", 2, 3, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []int64{1, 4}, ages(t, d.Single()))
	assert.Equal(t, 2, rawCount(t, d, `SELECT COUNT(*) FROM junction_people_tags`))
	assert.Equal(t, 1, rawCount(t, d, `SELECT COUNT(*) FROM tags`))
}

func TestSingleDeleteAllChunks(t *testing.T) {
	d, h := openTestDB(t, withBatchLimit(2))
	ctx := context.Background()
	store := d.Single()

	people := make([]any, 0, 5)
	for range 5 {
		people = append(people, &Person{Name: "p"})
	}
	_, err := store.SaveAll(ctx, people)
	require.NoError(t, err)

	h.reset()
	n, err := store.DeleteAll(ctx, people)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, 3, h.count(`DELETE FROM "people" WHERE "id" IN`))
	assert.Zero(t, rawCount(t, d, `SELECT COUNT(*) FROM people`))

	_, err = store.DeleteAll(ctx, []any{&Person{Name: "unsaved"}})
	assert.ErrorIs(t, err, types.ErrNoPrimaryKey)
}

func TestSingleDeleteWhereAndEvery(t *testing.T) {
	d, h := openTestDB(t)
	ctx := context.Background()
	store := d.Single()
	seedAges(t, store, 10, 20, 30)

	h.reset()
	n, err := store.DeleteWhere(ctx, "people", squirrel.Gt{"age": 15})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{`DELETE FROM "people" WHERE age > ?`}, h.queries(), "one direct statement")

	n, err = store.DeleteEvery(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueryShape(t *testing.T) {
	d, _ := openTestDB(t)
	ctx := context.Background()
	store := d.Single()
	seedAges(t, store, 5, 1, 4, 2, 3)

	rows, err := store.Query(ctx, types.Query{
		Table:   "people",
		Where:   squirrel.GtOrEq{"age": 2},
		OrderBy: []string{"age DESC"},
		Limit:   2,
		Offset:  1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0].(*Person).Age)
	assert.Equal(t, int64(3), rows[1].(*Person).Age)

	rows, err = store.Query(ctx, types.Query{Table: "people", OrderBy: []string{"age"}, Offset: 3})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0].(*Person).Age)

	_, err = store.Query(ctx, types.Query{Table: "people", OrderBy: []string{"age; DROP TABLE people"}})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
}
