package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictPolicySQL(t *testing.T) {
	assert.Equal(t, "", ConflictNone.SQL())
	assert.Equal(t, "ROLLBACK", ConflictRollback.SQL())
	assert.Equal(t, "ABORT", ConflictAbort.SQL())
	assert.Equal(t, "FAIL", ConflictFail.SQL())
	assert.Equal(t, "IGNORE", ConflictIgnore.SQL())
	assert.Equal(t, "REPLACE", ConflictReplace.SQL())
}

func TestApplyWriteOptions(t *testing.T) {
	o := ApplyWriteOptions()
	assert.Equal(t, ConflictNone, o.Conflict)
	assert.Nil(t, o.Columns)
	assert.False(t, o.Propagate)

	o = ApplyWriteOptions(
		WithConflict(ConflictIgnore),
		WithColumns(ColumnsValue{Columns: []string{"name"}}),
		PropagateDelete(),
	)
	assert.Equal(t, ConflictIgnore, o.Conflict)
	require.NotNil(t, o.Columns)
	assert.Equal(t, []string{"name"}, o.Columns.Columns)
	assert.False(t, o.Columns.HasValues())
	assert.True(t, o.Propagate)
}

func TestColumnsValueCheck(t *testing.T) {
	assert.ErrorIs(t, (&ColumnsValue{}).Check(), ErrUnknownColumn)
	assert.Error(t, (&ColumnsValue{Columns: []string{"a", "b"}, Values: []any{1}}).Check())
	assert.NoError(t, (&ColumnsValue{Columns: []string{"a"}, Values: []any{1}}).Check())

	var nilCV *ColumnsValue
	assert.False(t, nilCV.HasValues())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "auto_increment", AssignAutoIncrement.String())
	assert.Equal(t, "uuid", AssignUUID.String())
	assert.Equal(t, "to_many", ToMany.String())
	assert.Equal(t, "to_one", ToOne.String())
}
