// Package schema describes how Go structs map to lattice tables.
//
// An EntityTable is built once per type with Define and the column and
// relation helpers, then registered in a Registry. Field access goes through
// the accessor closures captured at definition time; nothing inspects
// struct fields at runtime.
package schema

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// KeyKind is the storage type of a primary key.
type KeyKind int

const (
	KeyInt KeyKind = iota
	KeyText
)

// SQL column affinities used in DDL.
const (
	SQLInteger = "INTEGER"
	SQLText    = "TEXT"
	SQLReal    = "REAL"
	SQLBlob    = "BLOB"
)

// PrimaryKey describes the key column of an entity table.
type PrimaryKey struct {
	Column string
	Kind   KeyKind
	Assign types.AssignType

	// Get returns the key value: int64 for KeyInt, string for KeyText.
	Get func(obj any) any
	// Set stores a generated key into obj.
	Set func(obj any, v any)
	// Ptr returns the scan destination for the key column.
	Ptr func(obj any) any
}

// Column describes one scalar column.
type Column struct {
	Name    string
	SQLType string

	// Value returns the value bound for obj.
	Value func(obj any) (any, error)
	// Ptr returns a scan destination that writes into obj.
	Ptr func(obj any) any
}

// Relation describes a relation field. Target names the related table.
type Relation struct {
	Field       string
	Cardinality types.Cardinality
	Target      string

	// One returns the related object, or nil when unset. ToOne only.
	One func(obj any) any
	// SetOne assigns a hydrated related object. ToOne only.
	SetOne func(obj any, rel any) error
	// Many returns the related objects; ok is false when the field is nil.
	// ToMany only.
	Many func(obj any) (elems []any, ok bool)
	// SetMany assigns hydrated related objects. ToMany only.
	SetMany func(obj any, elems []any) error
}

// EntityTable is the immutable descriptor of one mapped type.
type EntityTable struct {
	Name      string
	Key       PrimaryKey
	Columns   []Column
	Relations []Relation

	// New returns a new zero entity, a pointer to the mapped struct.
	New func() any

	typ reflect.Type
}

// Type returns the pointer type the table maps.
func (t *EntityTable) Type() reflect.Type { return t.typ }

// ColumnNames returns the key column followed by the scalar columns.
func (t *EntityTable) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	names = append(names, t.Key.Column)
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column returns the scalar column with the given name.
func (t *EntityTable) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether name is the key or a scalar column.
func (t *EntityTable) HasColumn(name string) bool {
	if name == t.Key.Column {
		return true
	}
	_, ok := t.Column(name)
	return ok
}

// Values returns the bound values for every column of obj, key first. An
// unset auto-increment key binds NULL so SQLite assigns the row id.
func (t *EntityTable) Values(obj any) ([]any, error) {
	vals := make([]any, 0, len(t.Columns)+1)
	vals = append(vals, t.KeyValue(obj))
	for _, c := range t.Columns {
		v, err := c.Value(obj)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// ColumnValues returns the bound values of the named scalar columns.
func (t *EntityTable) ColumnValues(obj any, names []string) ([]any, error) {
	vals := make([]any, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, name, types.ErrUnknownColumn)
		}
		v, err := c.Value(obj)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// ScanDest returns scan destinations matching ColumnNames.
func (t *EntityTable) ScanDest(obj any) []any {
	dest := make([]any, 0, len(t.Columns)+1)
	dest = append(dest, t.Key.Ptr(obj))
	for _, c := range t.Columns {
		dest = append(dest, c.Ptr(obj))
	}
	return dest
}

// KeyValue returns the value bound for the key of obj.
func (t *EntityTable) KeyValue(obj any) any {
	v := t.Key.Get(obj)
	if t.Key.Kind == KeyInt && t.Key.Assign == types.AssignAutoIncrement {
		if n, _ := v.(int64); n == 0 {
			return nil
		}
	}
	return v
}

// KeySet reports whether obj has a usable key value.
func (t *EntityTable) KeySet(obj any) bool {
	switch v := t.Key.Get(obj).(type) {
	case int64:
		return v != 0 || t.Key.Assign == types.AssignCustom
	case string:
		return v != ""
	default:
		return false
	}
}

// KeyString renders the key of obj the way junction tables store it.
func (t *EntityTable) KeyString(obj any) string {
	return FormatKey(t.Key.Get(obj))
}

// ParseKey converts a junction key back to the key column's Go type.
func (t *EntityTable) ParseKey(s string) (any, error) {
	if t.Key.Kind == KeyText {
		return s, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s key %q: %w", t.Name, s, err)
	}
	return n, nil
}

// NormalizeKey converts a caller-supplied key to the key column's Go type.
func (t *EntityTable) NormalizeKey(key any) (any, error) {
	switch v := key.(type) {
	case string:
		return t.ParseKey(v)
	case int:
		return t.ParseKey(strconv.Itoa(v))
	case int32:
		return t.ParseKey(strconv.FormatInt(int64(v), 10))
	case int64:
		return t.ParseKey(strconv.FormatInt(v, 10))
	case uint32:
		return t.ParseKey(strconv.FormatUint(uint64(v), 10))
	case uint64:
		return t.ParseKey(strconv.FormatUint(v, 10))
	default:
		return nil, fmt.Errorf("%s key of type %T: %w", t.Name, key, types.ErrBadRelation)
	}
}

// Relation returns the relation declared on the named field.
func (t *EntityTable) Relation(field string) (Relation, bool) {
	for _, r := range t.Relations {
		if r.Field == field {
			return r, true
		}
	}
	return Relation{}, false
}

// FormatKey renders a key value as text.
func FormatKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case int64:
		return strconv.FormatInt(k, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(k)
	}
}
