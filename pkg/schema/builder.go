package schema

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-openapi/inflect"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// Builder assembles the EntityTable of *T. Errors are collected and
// reported by Build.
type Builder[T any] struct {
	t    *EntityTable
	errs []error
}

// Define starts the descriptor of *T stored in table name. An empty name
// uses TableName[T].
func Define[T any](name string) *Builder[T] {
	if name == "" {
		name = TableName[T]()
	}
	return &Builder[T]{
		t: &EntityTable{
			Name: name,
			New:  func() any { return new(T) },
			typ:  reflect.TypeFor[*T](),
		},
	}
}

// TableName derives the default table name of T: the snake_case plural of
// the type name, e.g. BlogPost -> blog_posts.
func TableName[T any]() string {
	return inflect.Pluralize(inflect.Underscore(reflect.TypeFor[T]().Name()))
}

func cast[T any](obj any) *T {
	return obj.(*T)
}

func (b *Builder[T]) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// IntKey declares an INTEGER primary key. assign must be AssignCustom or
// AssignAutoIncrement.
func (b *Builder[T]) IntKey(column string, acc func(*T) *int64, assign types.AssignType) *Builder[T] {
	if assign == types.AssignUUID {
		b.fail("int key %s: uuid assignment needs a text key", column)
	}
	b.t.Key = PrimaryKey{
		Column: column,
		Kind:   KeyInt,
		Assign: assign,
		Get:    func(obj any) any { return *acc(cast[T](obj)) },
		Set: func(obj any, v any) {
			if n, ok := v.(int64); ok {
				*acc(cast[T](obj)) = n
			}
		},
		Ptr: func(obj any) any { return acc(cast[T](obj)) },
	}
	return b
}

// TextKey declares a TEXT primary key. assign must be AssignCustom or
// AssignUUID.
func (b *Builder[T]) TextKey(column string, acc func(*T) *string, assign types.AssignType) *Builder[T] {
	if assign == types.AssignAutoIncrement {
		b.fail("text key %s: auto increment needs an int key", column)
	}
	b.t.Key = PrimaryKey{
		Column: column,
		Kind:   KeyText,
		Assign: assign,
		Get:    func(obj any) any { return *acc(cast[T](obj)) },
		Set: func(obj any, v any) {
			if s, ok := v.(string); ok {
				*acc(cast[T](obj)) = s
			}
		},
		Ptr: func(obj any) any { return acc(cast[T](obj)) },
	}
	return b
}

func (b *Builder[T]) column(c Column) *Builder[T] {
	if c.Name == "" {
		b.fail("column with empty name")
	}
	b.t.Columns = append(b.t.Columns, c)
	return b
}

// Text declares a TEXT column.
func (b *Builder[T]) Text(column string, acc func(*T) *string) *Builder[T] {
	return b.column(scalar(column, SQLText, acc))
}

// Int declares an INTEGER column.
func (b *Builder[T]) Int(column string, acc func(*T) *int64) *Builder[T] {
	return b.column(scalar(column, SQLInteger, acc))
}

// Real declares a REAL column.
func (b *Builder[T]) Real(column string, acc func(*T) *float64) *Builder[T] {
	return b.column(scalar(column, SQLReal, acc))
}

// Bool declares an INTEGER column holding 0 or 1.
func (b *Builder[T]) Bool(column string, acc func(*T) *bool) *Builder[T] {
	return b.column(scalar(column, SQLInteger, acc))
}

// Blob declares a BLOB column.
func (b *Builder[T]) Blob(column string, acc func(*T) *[]byte) *Builder[T] {
	return b.column(scalar(column, SQLBlob, acc))
}

// Time declares a TEXT column holding an RFC 3339 timestamp in UTC.
func (b *Builder[T]) Time(column string, acc func(*T) *time.Time) *Builder[T] {
	return b.column(Column{
		Name:    column,
		SQLType: SQLText,
		Value: func(obj any) (any, error) {
			return formatTime(*acc(cast[T](obj))), nil
		},
		Ptr: func(obj any) any { return timeScanner{dst: acc(cast[T](obj))} },
	})
}

// Encoded declares a BLOB column holding the msgpack encoding of a value,
// for nested structs, maps and slices that are not entities.
func Encoded[T, V any](b *Builder[T], column string, acc func(*T) *V) *Builder[T] {
	return b.column(Column{
		Name:    column,
		SQLType: SQLBlob,
		Value: func(obj any) (any, error) {
			return encodeValue(acc(cast[T](obj)))
		},
		Ptr: func(obj any) any { return encodedScanner[V]{dst: acc(cast[T](obj))} },
	})
}

func scalar[T, V any](column, sqlType string, acc func(*T) *V) Column {
	return Column{
		Name:    column,
		SQLType: sqlType,
		Value:   func(obj any) (any, error) { return *acc(cast[T](obj)), nil },
		Ptr:     func(obj any) any { return nullScanner[V]{dst: acc(cast[T](obj))} },
	}
}

// ToOne declares a relation to a single *R, stored in the junction table
// shared by T and R. target names R's table.
func ToOne[T, R any](b *Builder[T], field, target string, acc func(*T) **R) *Builder[T] {
	b.t.Relations = append(b.t.Relations, Relation{
		Field:       field,
		Cardinality: types.ToOne,
		Target:      target,
		One: func(obj any) any {
			if r := *acc(cast[T](obj)); r != nil {
				return r
			}
			return nil
		},
		SetOne: func(obj any, rel any) error {
			r, ok := rel.(*R)
			if !ok {
				return fmt.Errorf("%s.%s: got %T: %w", b.t.Name, field, rel, types.ErrBadRelation)
			}
			*acc(cast[T](obj)) = r
			return nil
		},
	})
	return b
}

// ToMany declares a relation to a slice of *R.
func ToMany[T, R any](b *Builder[T], field, target string, acc func(*T) *[]*R) *Builder[T] {
	b.t.Relations = append(b.t.Relations, Relation{
		Field:       field,
		Cardinality: types.ToMany,
		Target:      target,
		Many: func(obj any) ([]any, bool) {
			s := *acc(cast[T](obj))
			if s == nil {
				return nil, false
			}
			elems := make([]any, 0, len(s))
			for _, r := range s {
				if r != nil {
					elems = append(elems, r)
				}
			}
			return elems, true
		},
		SetMany: func(obj any, elems []any) error {
			s := make([]*R, 0, len(elems))
			for _, e := range elems {
				r, ok := e.(*R)
				if !ok {
					return fmt.Errorf("%s.%s: got %T: %w", b.t.Name, field, e, types.ErrBadRelation)
				}
				s = append(s, r)
			}
			*acc(cast[T](obj)) = s
			return nil
		},
	})
	return b
}

// Build validates and returns the descriptor.
func (b *Builder[T]) Build() (*EntityTable, error) {
	t := b.t
	if t.Key.Column == "" {
		b.fail("no primary key declared")
	}
	seen := map[string]bool{t.Key.Column: true}
	for _, c := range t.Columns {
		if seen[c.Name] {
			b.fail("duplicate column %s", c.Name)
		}
		seen[c.Name] = true
	}
	fields := map[string]bool{}
	targets := map[string]string{}
	for _, r := range t.Relations {
		if r.Target == "" {
			b.fail("relation %s: empty target", r.Field)
		}
		if fields[r.Field] {
			b.fail("duplicate relation %s", r.Field)
		}
		fields[r.Field] = true
		// one junction table per pair of types
		if prev, ok := targets[r.Target]; ok {
			b.fail("relations %s and %s both target %s", prev, r.Field, r.Target)
		}
		targets[r.Target] = r.Field
	}
	if len(b.errs) > 0 {
		return nil, &types.SchemaError{Table: t.Name, Err: errors.Join(b.errs...)}
	}
	return t, nil
}

// MustBuild is like Build but panics on error. For package-level
// descriptor variables.
func (b *Builder[T]) MustBuild() *EntityTable {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
