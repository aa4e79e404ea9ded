package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// cascadeStore follows relations on every call.
type cascadeStore struct {
	db *DB
}

var _ types.Store = (*cascadeStore)(nil)

// handle writes obj and, in cascade mode, everything reachable from it.
// Each entity is written at most once per session.
func (s *session) handle(ctx context.Context, t *schema.EntityTable, obj any, kind writeKind) (outcome, error) {
	if kind == kindDelete {
		n, err := s.remove(ctx, t, obj)
		return outcome{affected: n}, err
	}
	// an unset generated key cannot have been visited yet
	if t.KeySet(obj) {
		if _, ok := s.visited[keyOf(t, obj)]; ok {
			return outcome{}, nil
		}
	}
	out, err := s.writeRoot(ctx, t, obj, kind)
	if err != nil {
		return outcome{}, err
	}
	s.visited[keyOf(t, obj)] = struct{}{}

	if !s.cascading() {
		return out, nil
	}
	for _, rel := range t.Relations {
		if err := s.writeRelation(ctx, t, obj, rel); err != nil {
			return outcome{}, err
		}
	}
	return out, nil
}

// related returns the target table and the current values of rel on obj.
// set is false for a nil field.
func (s *session) related(t *schema.EntityTable, obj any, rel schema.Relation) (target *schema.EntityTable, elems []any, set bool, err error) {
	target, err = s.db.reg.Table(rel.Target)
	if err != nil {
		return nil, nil, false, err
	}
	switch rel.Cardinality {
	case types.ToOne:
		if rel.One == nil {
			return nil, nil, false, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("%s: no accessor: %w", rel.Field, types.ErrBadRelation)}
		}
		r := rel.One(obj)
		if r == nil {
			return target, nil, false, nil
		}
		elems = []any{r}
	case types.ToMany:
		if rel.Many == nil {
			return nil, nil, false, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("%s: no accessor: %w", rel.Field, types.ErrBadRelation)}
		}
		var ok bool
		if elems, ok = rel.Many(obj); !ok {
			return target, nil, false, nil
		}
	default:
		return nil, nil, false, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("%s: cardinality %d: %w", rel.Field, rel.Cardinality, types.ErrBadRelation)}
	}
	for _, e := range elems {
		et, err := s.db.reg.Lookup(e)
		if err != nil || et != target {
			return nil, nil, false, &types.SchemaError{Table: t.Name, Err: fmt.Errorf("%s: element %T is not a %s: %w", rel.Field, e, target.Name, types.ErrBadRelation)}
		}
	}
	return target, elems, true, nil
}

// writeRelation saves the related entities of rel and replaces the owner's
// links with links to their current keys.
func (s *session) writeRelation(ctx context.Context, t *schema.EntityTable, obj any, rel schema.Relation) error {
	target, elems, set, err := s.related(t, obj, rel)
	if err != nil || !set {
		return err
	}
	keys := make([]string, 0, len(elems))
	for _, e := range elems {
		if _, err := s.handle(ctx, target, e, kindSave); err != nil {
			return err
		}
		if !target.KeySet(e) {
			return fmt.Errorf("%s.%s: %w", t.Name, rel.Field, types.ErrNoPrimaryKey)
		}
		keys = append(keys, target.KeyString(e))
	}

	j := schema.JunctionOf(t.Name, target.Name)
	if err := s.ensureJunction(ctx, j); err != nil {
		return err
	}
	own, other := j.Columns(t.Name)
	key := t.KeyString(obj)
	del, err := deleteLinksStatement(j, own, key)
	if err != nil {
		return err
	}
	if _, err := s.exec(ctx, "unlink", del); err != nil {
		return err
	}
	stmts, err := insertLinksStatements(j, own, other, key, keys, s.db.cfg.BatchLimit)
	if err != nil {
		return err
	}
	for _, st := range stmts {
		if _, err := s.exec(ctx, "link", st); err != nil {
			return err
		}
	}
	return nil
}

// remove deletes obj's row and every link holding its key. Related rows are
// kept unless the call asked for PropagateDelete.
func (s *session) remove(ctx context.Context, t *schema.EntityTable, obj any) (int64, error) {
	if !t.KeySet(obj) {
		return 0, fmt.Errorf("delete %s: %w", t.Name, types.ErrNoPrimaryKey)
	}
	k := keyOf(t, obj)
	if _, ok := s.visited[k]; ok {
		return 0, nil
	}
	out, err := s.writeRoot(ctx, t, obj, kindDelete)
	if err != nil {
		return 0, err
	}
	s.visited[k] = struct{}{}

	if !s.cascading() {
		return out.affected, nil
	}
	if s.opts.Propagate {
		for _, rel := range t.Relations {
			target, elems, _, err := s.related(t, obj, rel)
			if err != nil {
				return 0, err
			}
			for _, e := range elems {
				if _, err := s.remove(ctx, target, e); err != nil {
					return 0, err
				}
			}
		}
	}
	if err := s.unlink(ctx, t, []string{k.key}); err != nil {
		return 0, err
	}
	return out.affected, nil
}

// unlink removes keys of t from every known junction t takes part in,
// whichever side declared the relation.
func (s *session) unlink(ctx context.Context, t *schema.EntityTable, keys []string) error {
	if !s.cascading() || len(keys) == 0 {
		return nil
	}
	for _, peer := range s.db.reg.Peers(t.Name) {
		j := schema.JunctionOf(t.Name, peer)
		if !s.known(j.Name) {
			continue
		}
		cols := j.KeyColumns(t.Name)
		for _, part := range chunk(keys, max(s.db.cfg.BatchLimit/len(cols), 1)) {
			st, err := unlinkStatement(j, cols, part)
			if err != nil {
				return err
			}
			if _, err := s.exec(ctx, "unlink", st); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeAll runs kind over a homogeneous collection in one session.
func (d *DB) writeAll(ctx context.Context, m mode, kind writeKind, entities []any, opts types.WriteOptions) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	var total int64
	err := d.write(ctx, m, opts, func(ctx context.Context, s *session) error {
		t, err := s.collection(entities)
		if err != nil {
			return err
		}
		s.batch = len(entities) > 1
		for _, e := range entities {
			out, err := s.handle(ctx, t, e, kind)
			if err != nil {
				return err
			}
			total += out.affected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// writeOne runs kind on one entity. Inserts report the row id, other kinds
// the affected count.
func (d *DB) writeOne(ctx context.Context, m mode, kind writeKind, entity any, opts types.WriteOptions) (int64, error) {
	var result int64
	err := d.write(ctx, m, opts, func(ctx context.Context, s *session) error {
		t, err := s.db.reg.Lookup(entity)
		if err != nil {
			return err
		}
		out, err := s.handle(ctx, t, entity, kind)
		if err != nil {
			return err
		}
		result = out.affected
		if kind == kindSave || kind == kindInsert {
			result = out.id
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

func (c *cascadeStore) Save(ctx context.Context, entity any) (int64, error) {
	return c.db.writeOne(ctx, cascade, kindSave, entity, types.WriteOptions{})
}

func (c *cascadeStore) SaveAll(ctx context.Context, entities []any) (int64, error) {
	return c.db.writeAll(ctx, cascade, kindSave, entities, types.WriteOptions{})
}

func (c *cascadeStore) Insert(ctx context.Context, entity any, opts ...types.WriteOption) (int64, error) {
	return c.db.writeOne(ctx, cascade, kindInsert, entity, types.ApplyWriteOptions(opts...))
}

func (c *cascadeStore) InsertAll(ctx context.Context, entities []any, opts ...types.WriteOption) (int64, error) {
	return c.db.writeAll(ctx, cascade, kindInsert, entities, types.ApplyWriteOptions(opts...))
}

func (c *cascadeStore) Update(ctx context.Context, entity any, opts ...types.WriteOption) (int64, error) {
	return c.db.writeOne(ctx, cascade, kindUpdate, entity, types.ApplyWriteOptions(opts...))
}

func (c *cascadeStore) UpdateAll(ctx context.Context, entities []any, opts ...types.WriteOption) (int64, error) {
	return c.db.writeAll(ctx, cascade, kindUpdate, entities, types.ApplyWriteOptions(opts...))
}

func (c *cascadeStore) Delete(ctx context.Context, entity any, opts ...types.WriteOption) (int64, error) {
	return c.db.writeOne(ctx, cascade, kindDelete, entity, types.ApplyWriteOptions(opts...))
}

func (c *cascadeStore) DeleteAll(ctx context.Context, entities []any, opts ...types.WriteOption) (int64, error) {
	return c.db.writeAll(ctx, cascade, kindDelete, entities, types.ApplyWriteOptions(opts...))
}

// DeleteWhere selects the matching keys first so their links can be
// removed with them.
func (c *cascadeStore) DeleteWhere(ctx context.Context, table string, where types.Predicate) (int64, error) {
	return c.deleteSelected(ctx, table, func(t *schema.EntityTable) (statement, error) {
		return selectKeysStatement(t, where)
	})
}

func (c *cascadeStore) DeleteRange(ctx context.Context, table string, start, end int64, orderColumn string) (int64, error) {
	return c.deleteSelected(ctx, table, func(t *schema.EntityTable) (statement, error) {
		b, err := rangeKeysQuery(t, start, end, orderColumn)
		if err != nil {
			return statement{}, err
		}
		return toStatement(b)
	})
}

func (c *cascadeStore) DeleteEvery(ctx context.Context, table string) (int64, error) {
	return c.deleteSelected(ctx, table, func(t *schema.EntityTable) (statement, error) {
		return selectKeysStatement(t, nil)
	})
}

func (c *cascadeStore) deleteSelected(ctx context.Context, table string, keys func(*schema.EntityTable) (statement, error)) (int64, error) {
	var total int64
	err := c.db.write(ctx, cascade, types.WriteOptions{}, func(ctx context.Context, s *session) error {
		t, err := s.tableFor(table)
		if err != nil {
			return err
		}
		st, err := keys(t)
		if err != nil {
			return err
		}
		if !s.known(t.Name) {
			return nil
		}
		total, err = s.deleteKeys(ctx, t, st)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (c *cascadeStore) Query(ctx context.Context, q types.Query) ([]any, error) {
	return c.db.query(ctx, cascade, q)
}

func (c *cascadeStore) QueryByKey(ctx context.Context, table string, key any) (any, error) {
	return c.db.queryByKey(ctx, cascade, table, key)
}
