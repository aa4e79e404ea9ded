package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// writeKind is the root statement of a write call.
type writeKind int

const (
	kindSave writeKind = iota
	kindInsert
	kindUpdate
	kindDelete
)

func (k writeKind) String() string {
	switch k {
	case kindSave:
		return "save"
	case kindInsert:
		return "insert"
	case kindUpdate:
		return "update"
	default:
		return "delete"
	}
}

// outcome of one root statement.
type outcome struct {
	affected int64
	id       int64
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// assignKey fills generated keys before an insert and rejects unset
// caller-assigned ones.
func assignKey(t *schema.EntityTable, obj any) error {
	if t.KeySet(obj) {
		return nil
	}
	switch t.Key.Assign {
	case types.AssignAutoIncrement:
		return nil
	case types.AssignUUID:
		t.Key.Set(obj, newUUID())
		return nil
	default:
		return fmt.Errorf("%s: %w", t.Name, types.ErrNoPrimaryKey)
	}
}

// rootStatement returns the cached template for kind on t.
func (s *session) rootStatement(t *schema.EntityTable, kind writeKind) (boundStatement, error) {
	k := boundKey{table: t.Name, kind: kind}
	if bs, ok := s.bound[k]; ok {
		return bs, nil
	}
	var (
		bs  boundStatement
		err error
	)
	switch kind {
	case kindSave:
		bs, err = insertStatement(t, types.ConflictNone, true)
	case kindInsert:
		bs, err = insertStatement(t, s.opts.Conflict, false)
	case kindUpdate:
		bs, err = updateStatement(t, s.opts.Columns, s.opts.Conflict)
	default:
		bs, err = deleteByKeyStatement(t)
	}
	if err != nil {
		return boundStatement{}, err
	}
	s.bound[k] = bs
	return bs, nil
}

// writeRoot executes the root statement of obj. Generated row ids are
// written back into obj before returning.
func (s *session) writeRoot(ctx context.Context, t *schema.EntityTable, obj any, kind writeKind) (outcome, error) {
	switch kind {
	case kindSave, kindInsert:
		if err := assignKey(t, obj); err != nil {
			return outcome{}, err
		}
	default:
		if !t.KeySet(obj) {
			return outcome{}, fmt.Errorf("%s %s: %w", kind, t.Name, types.ErrNoPrimaryKey)
		}
	}
	if kind == kindDelete {
		if !s.known(t.Name) {
			return outcome{}, nil
		}
	} else if err := s.ensureTable(ctx, t); err != nil {
		return outcome{}, err
	}

	bs, err := s.rootStatement(t, kind)
	if err != nil {
		return outcome{}, err
	}
	res, err := s.execBound(ctx, kind.String(), bs, obj)
	if err != nil {
		return outcome{}, err
	}
	n, err := rowsAffected(kind.String(), res)
	if err != nil {
		return outcome{}, err
	}
	out := outcome{affected: n}
	if (kind == kindSave || kind == kindInsert) && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return outcome{}, &types.EngineError{Op: kind.String(), Err: err}
		}
		out.id = id
		if t.Key.Assign == types.AssignAutoIncrement && !t.KeySet(obj) {
			t.Key.Set(obj, id)
		}
	}
	return out, nil
}

// tableFor resolves a table name for the predicate, range and all deletes.
func (s *session) tableFor(name string) (*schema.EntityTable, error) {
	return s.db.reg.Table(name)
}

// deleteKeys deletes the rows whose keys st selects, and in cascade mode
// their links, in chunks of the batch limit.
func (s *session) deleteKeys(ctx context.Context, t *schema.EntityTable, st statement) (int64, error) {
	keys, err := s.queryStrings(ctx, "select", st)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, part := range chunk(keys, s.db.cfg.BatchLimit) {
		args := make([]any, 0, len(part))
		for _, k := range part {
			v, err := t.ParseKey(k)
			if err != nil {
				return 0, &types.SchemaError{Table: t.Name, Err: err}
			}
			args = append(args, v)
		}
		del, err := deleteByKeysStatement(t, args)
		if err != nil {
			return 0, err
		}
		res, err := s.exec(ctx, "delete", del)
		if err != nil {
			return 0, err
		}
		n, err := rowsAffected("delete", res)
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := s.unlink(ctx, t, keys); err != nil {
		return 0, err
	}
	return total, nil
}

// execCount runs st and returns the affected row count.
func (s *session) execCount(ctx context.Context, op string, st statement) (int64, error) {
	res, err := s.exec(ctx, op, st)
	if err != nil {
		return 0, err
	}
	return rowsAffected(op, res)
}
