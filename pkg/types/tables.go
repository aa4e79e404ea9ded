package types

import (
	"fmt"
	"math"

	"github.com/Masterminds/squirrel"
)

// AssignType says who assigns a primary key value.
type AssignType int

const (
	// AssignCustom keys are set by the caller and must be set before any write.
	AssignCustom AssignType = iota
	// AssignAutoIncrement keys are integer row ids chosen by SQLite on insert
	// and written back into the entity.
	AssignAutoIncrement
	// AssignUUID text keys receive a UUID v7 on insert when empty.
	AssignUUID
)

func (a AssignType) String() string {
	switch a {
	case AssignCustom:
		return "custom"
	case AssignAutoIncrement:
		return "auto_increment"
	case AssignUUID:
		return "uuid"
	default:
		return fmt.Sprintf("AssignType(%d)", int(a))
	}
}

// Cardinality of a relation field.
type Cardinality int

const (
	ToOne Cardinality = iota
	ToMany
)

func (c Cardinality) String() string {
	if c == ToMany {
		return "to_many"
	}
	return "to_one"
}

// ConflictPolicy selects SQLite's ON CONFLICT algorithm for inserts and
// updates. ConflictNone leaves the engine default (ABORT).
type ConflictPolicy int

const (
	ConflictNone ConflictPolicy = iota
	ConflictRollback
	ConflictAbort
	ConflictFail
	ConflictIgnore
	ConflictReplace
)

// SQL returns the keyword used after "OR", or "" for ConflictNone.
func (p ConflictPolicy) SQL() string {
	switch p {
	case ConflictRollback:
		return "ROLLBACK"
	case ConflictAbort:
		return "ABORT"
	case ConflictFail:
		return "FAIL"
	case ConflictIgnore:
		return "IGNORE"
	case ConflictReplace:
		return "REPLACE"
	default:
		return ""
	}
}

// ToLastRow as the end of a delete range means "through the last row".
const ToLastRow int64 = math.MaxInt64

// Predicate is a where-expression. Any squirrel expression satisfies it,
// e.g. squirrel.Eq{"name": "x"} or squirrel.Expr("age > ?", 3).
type Predicate = squirrel.Sqlizer

// Query selects rows of one table.
type Query struct {
	Table   string
	Where   Predicate // nil selects every row
	OrderBy []string
	Limit   uint64 // 0 means no limit
	Offset  uint64
}

// ColumnsValue restricts an update to Columns. When Values is non-nil it
// must have the same length as Columns and its values are written instead
// of the entity's current field values.
type ColumnsValue struct {
	Columns []string
	Values  []any
}

// HasValues reports whether explicit values were supplied.
func (cv *ColumnsValue) HasValues() bool {
	return cv != nil && cv.Values != nil
}

// Check validates the column/value pairing.
func (cv *ColumnsValue) Check() error {
	if len(cv.Columns) == 0 {
		return fmt.Errorf("columns value: %w", ErrUnknownColumn)
	}
	if cv.Values != nil && len(cv.Values) != len(cv.Columns) {
		return fmt.Errorf("columns value: %d columns but %d values", len(cv.Columns), len(cv.Values))
	}
	return nil
}

// WriteOptions carries the optional settings of a write call.
type WriteOptions struct {
	Conflict  ConflictPolicy
	Columns   *ColumnsValue
	Propagate bool
}

// WriteOption configures a write call.
type WriteOption func(*WriteOptions)

// WithConflict sets the conflict policy for inserts and updates.
func WithConflict(p ConflictPolicy) WriteOption {
	return func(o *WriteOptions) { o.Conflict = p }
}

// WithColumns restricts updates to the given columns.
func WithColumns(cv ColumnsValue) WriteOption {
	return func(o *WriteOptions) { o.Columns = &cv }
}

// PropagateDelete makes a cascade delete remove related entities as well
// as the links to them.
func PropagateDelete() WriteOption {
	return func(o *WriteOptions) { o.Propagate = true }
}

// ApplyWriteOptions folds opts into a WriteOptions value.
func ApplyWriteOptions(opts ...WriteOption) WriteOptions {
	var o WriteOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
