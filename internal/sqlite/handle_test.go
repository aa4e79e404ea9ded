package sqlite

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

func TestHandleRefCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	h := newHandle(db)
	_, err = h.acquire()
	require.NoError(t, err)
	_, err = h.acquire()
	require.NoError(t, err)
	assert.Equal(t, 3, h.count())

	// owner lets go first; the database stays open for the two callers
	require.NoError(t, h.release())
	require.NoError(t, h.release())
	assert.Equal(t, 1, h.count())

	mock.ExpectClose()
	require.NoError(t, h.release())
	assert.Equal(t, 0, h.count())
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = h.acquire()
	assert.ErrorIs(t, err, types.ErrClosed)
	assert.NoError(t, h.release(), "release after close is a no-op")
}
