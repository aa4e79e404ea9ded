package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// query returns the root entities matching q, hydrated in cascade mode.
func (d *DB) query(ctx context.Context, m mode, q types.Query) ([]any, error) {
	var out []any
	err := d.read(ctx, m, func(ctx context.Context, s *session) error {
		t, err := s.db.reg.Table(q.Table)
		if err != nil {
			return err
		}
		st, err := selectStatement(t, q)
		if err != nil {
			return err
		}
		if !s.known(t.Name) {
			return nil
		}
		roots, err := s.materialize(ctx, t, st)
		if err != nil {
			return err
		}
		for _, r := range roots {
			if err := s.hydrate(ctx, t, r); err != nil {
				return err
			}
		}
		out = roots
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// queryByKey returns the entity keyed key, or ErrNotFound.
func (d *DB) queryByKey(ctx context.Context, m mode, table string, key any) (any, error) {
	var out any
	err := d.read(ctx, m, func(ctx context.Context, s *session) error {
		t, err := s.db.reg.Table(table)
		if err != nil {
			return err
		}
		k, err := t.NormalizeKey(key)
		if err != nil {
			return &types.SchemaError{Table: t.Name, Err: err}
		}
		if !s.known(t.Name) {
			return types.ErrNotFound
		}
		st, err := selectByKeyStatement(t, k)
		if err != nil {
			return err
		}
		rows, err := s.materialize(ctx, t, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%s %v: %w", t.Name, key, types.ErrNotFound)
		}
		out = rows[0]
		return s.hydrate(ctx, t, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// materialize runs st and maps every row to an entity, reusing instances
// already in the identity map. Rows that fail to map are logged and
// skipped.
func (s *session) materialize(ctx context.Context, t *schema.EntityTable, st statement) ([]any, error) {
	rows, err := s.query(ctx, "select", st)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		obj := t.New()
		if err := rows.Scan(t.ScanDest(obj)...); err != nil {
			s.db.log.Warn("skipping row",
				"table", t.Name,
				"err", &types.MappingError{Table: t.Name, Key: t.KeyString(obj), Err: err})
			continue
		}
		k := keyOf(t, obj)
		if prev, ok := s.ident[k]; ok {
			out = append(out, prev)
			continue
		}
		s.ident[k] = obj
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.EngineError{Op: "select", Err: err}
	}
	return out, nil
}

// hydrate fills the relation fields of obj from the junction tables. Each
// entity is hydrated once per session. Single mode does nothing.
func (s *session) hydrate(ctx context.Context, t *schema.EntityTable, obj any) error {
	if !s.cascading() {
		return nil
	}
	k := keyOf(t, obj)
	if _, ok := s.hydrated[k]; ok {
		return nil
	}
	s.hydrated[k] = struct{}{}

	for _, rel := range t.Relations {
		target, err := s.db.reg.Table(rel.Target)
		if err != nil {
			return err
		}
		j := schema.JunctionOf(t.Name, target.Name)
		if !s.known(j.Name) || !s.known(target.Name) {
			continue
		}
		own, other := j.Columns(t.Name)
		st, err := selectLinksStatement(j, own, other, k.key)
		if err != nil {
			return err
		}
		keys, err := s.queryStrings(ctx, "links", st)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			continue
		}

		switch rel.Cardinality {
		case types.ToOne:
			found, fresh, err := s.resolveOne(ctx, target, keys[0])
			if err != nil {
				return err
			}
			if found == nil {
				continue
			}
			if err := rel.SetOne(obj, found); err != nil {
				return &types.SchemaError{Table: t.Name, Err: err}
			}
			if fresh {
				if err := s.hydrate(ctx, target, found); err != nil {
					return err
				}
			}
		case types.ToMany:
			elems, fresh, err := s.resolveMany(ctx, target, keys)
			if err != nil {
				return err
			}
			if err := rel.SetMany(obj, elems); err != nil {
				return &types.SchemaError{Table: t.Name, Err: err}
			}
			for _, e := range fresh {
				if err := s.hydrate(ctx, target, e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// resolveOne returns the entity keyed key from the identity map or with a
// single-row query. fresh reports a newly materialized entity.
func (s *session) resolveOne(ctx context.Context, t *schema.EntityTable, key string) (obj any, fresh bool, err error) {
	if obj, ok := s.ident[entityKey{table: t.Name, key: key}]; ok {
		return obj, false, nil
	}
	k, err := t.ParseKey(key)
	if err != nil {
		return nil, false, &types.SchemaError{Table: t.Name, Err: err}
	}
	st, err := selectByKeyStatement(t, k)
	if err != nil {
		return nil, false, err
	}
	rows, err := s.materialize(ctx, t, st)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// resolveMany returns the entities keyed keys: those already materialized
// first, then the rest fetched with IN lookups of at most BatchLimit keys.
// fresh holds the fetched ones.
func (s *session) resolveMany(ctx context.Context, t *schema.EntityTable, keys []string) (elems, fresh []any, err error) {
	var missing []any
	for _, key := range keys {
		if obj, ok := s.ident[entityKey{table: t.Name, key: key}]; ok {
			elems = append(elems, obj)
			continue
		}
		k, err := t.ParseKey(key)
		if err != nil {
			return nil, nil, &types.SchemaError{Table: t.Name, Err: err}
		}
		missing = append(missing, k)
	}
	for _, part := range chunk(missing, s.db.cfg.BatchLimit) {
		st, err := selectByKeysStatement(t, part)
		if err != nil {
			return nil, nil, err
		}
		rows, err := s.materialize(ctx, t, st)
		if err != nil {
			return nil, nil, err
		}
		fresh = append(fresh, rows...)
	}
	return append(elems, fresh...), fresh, nil
}
