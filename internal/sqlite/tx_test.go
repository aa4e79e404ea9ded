package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// openMockDB wraps a sqlmock pool that reports an empty catalog.
func openMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(listTablesSQL)).WillReturnRows(sqlmock.NewRows([]string{"name"}))

	d, err := OpenDB(context.Background(), db, testRegistry(t), types.Config{
		Path:   types.MemoryPath,
		Logger: slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return d, mock
}

func TestWriteRollsBackOnEngineError(t *testing.T) {
	d, mock := openMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tags"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`)).
		WithArgs("x").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	n, err := d.Cascade().Save(context.Background(), &Tag{Label: "x"})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.True(t, types.IsEngineError(err))
	assert.False(t, d.tables.isKnown("tags"), "DDL of a rolled back call is forgotten")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitPromotesTables(t *testing.T) {
	d, mock := openMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tags"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`)).
		WithArgs("x").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := d.Cascade().Save(context.Background(), &Tag{Label: "x"})
	require.NoError(t, err)
	assert.True(t, d.tables.isKnown("tags"))

	// known now: no DDL on the next call
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`)).
		WithArgs("y").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	_, err = d.Cascade().Save(context.Background(), &Tag{Label: "y"})
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, d.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNestedInTxJoinsOuter(t *testing.T) {
	d, mock := openMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tags"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`)).
		WithArgs("a").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`)).
		WithArgs("b").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	err := d.InTx(ctx, func(ctx context.Context) error {
		if _, err := d.Single().Save(ctx, &Tag{Label: "a"}); err != nil {
			return err
		}
		return d.InTx(ctx, func(ctx context.Context) error {
			_, err := d.Single().Save(ctx, &Tag{Label: "b"})
			return err
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchPreparesOnce(t *testing.T) {
	d, mock := openMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tags"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`))
	prep.ExpectExec().WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("b").WillReturnResult(sqlmock.NewResult(2, 1))
	prep.ExpectExec().WithArgs("c").WillReturnResult(sqlmock.NewResult(3, 1))
	prep.WillBeClosed()
	mock.ExpectCommit()

	n, err := d.Single().SaveAll(context.Background(), []any{&Tag{Label: "a"}, &Tag{Label: "b"}, &Tag{Label: "c"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedCommitKeepsTablesUnknown(t *testing.T) {
	d, mock := openMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tags"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO "tags"`)).
		WithArgs("x").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	_, err := d.Cascade().Save(context.Background(), &Tag{Label: "x"})
	require.Error(t, err)
	assert.True(t, types.IsEngineError(err))
	assert.False(t, d.tables.isKnown("tags"))
	require.NoError(t, mock.ExpectationsWereMet())
}
