package types

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports a caller mistake in the entity schema: an unregistered
// type, a malformed descriptor, or a relation whose values do not match its
// target. It aborts the call before any effect.
type SchemaError struct {
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("schema: %v", e.Err)
	}
	return fmt.Sprintf("schema %s: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// InvalidRangeError reports delete-window bounds with start < 0 or end < start.
type InvalidRangeError struct {
	Start, End int64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%d, %d]: start must be >= 0 and <= end", e.Start, e.End)
}

// EngineError wraps a failure returned by the SQL engine: constraint
// violations, I/O errors, corruption. Op names the statement kind.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// MappingError reports a row that could not be converted into an entity.
// Query paths log it and skip the row.
type MappingError struct {
	Table string
	Key   string
	Err   error
}

func (e *MappingError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("mapping %s row: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("mapping %s row %s: %v", e.Table, e.Key, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// sqliteConstraint is the primary result code for SQLITE_CONSTRAINT.
const sqliteConstraint = 19

// codeError is implemented by modernc.org/sqlite errors.
type codeError interface {
	Code() int
}

// IsConstraint reports whether err resulted from a uniqueness, not-null,
// check or primary-key violation.
func IsConstraint(err error) bool {
	if err == nil {
		return false
	}
	var ce codeError
	if errors.As(err, &ce) && ce.Code()&0xff == sqliteConstraint {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "NOT NULL constraint")
}

// IsSchemaError reports whether err is a *SchemaError.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

// IsEngineError reports whether err is an *EngineError.
func IsEngineError(err error) bool {
	var e *EngineError
	return errors.As(err, &e)
}
