package sqlite

import (
	"context"

	"github.com/mesh-intelligence/lattice/pkg/schema"
	"github.com/mesh-intelligence/lattice/pkg/types"
)

// singleStore touches root rows only. Relation fields are neither written
// nor hydrated, and junction tables are left alone.
type singleStore struct {
	db *DB
}

var _ types.Store = (*singleStore)(nil)

func (s *singleStore) Save(ctx context.Context, entity any) (int64, error) {
	return s.db.writeOne(ctx, single, kindSave, entity, types.WriteOptions{})
}

func (s *singleStore) SaveAll(ctx context.Context, entities []any) (int64, error) {
	return s.db.writeAll(ctx, single, kindSave, entities, types.WriteOptions{})
}

func (s *singleStore) Insert(ctx context.Context, entity any, opts ...types.WriteOption) (int64, error) {
	return s.db.writeOne(ctx, single, kindInsert, entity, types.ApplyWriteOptions(opts...))
}

func (s *singleStore) InsertAll(ctx context.Context, entities []any, opts ...types.WriteOption) (int64, error) {
	return s.db.writeAll(ctx, single, kindInsert, entities, types.ApplyWriteOptions(opts...))
}

func (s *singleStore) Update(ctx context.Context, entity any, opts ...types.WriteOption) (int64, error) {
	return s.db.writeOne(ctx, single, kindUpdate, entity, types.ApplyWriteOptions(opts...))
}

func (s *singleStore) UpdateAll(ctx context.Context, entities []any, opts ...types.WriteOption) (int64, error) {
	return s.db.writeAll(ctx, single, kindUpdate, entities, types.ApplyWriteOptions(opts...))
}

func (s *singleStore) Delete(ctx context.Context, entity any, opts ...types.WriteOption) (int64, error) {
	return s.db.writeOne(ctx, single, kindDelete, entity, types.ApplyWriteOptions(opts...))
}

// DeleteAll deletes the collection with key IN (...) statements, each
// holding at most BatchLimit keys.
func (s *singleStore) DeleteAll(ctx context.Context, entities []any, _ ...types.WriteOption) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	var total int64
	err := s.db.write(ctx, single, types.WriteOptions{}, func(ctx context.Context, ss *session) error {
		t, err := ss.collection(entities)
		if err != nil {
			return err
		}
		keys := make([]any, 0, len(entities))
		for _, e := range entities {
			if !t.KeySet(e) {
				return &types.SchemaError{Table: t.Name, Err: types.ErrNoPrimaryKey}
			}
			keys = append(keys, t.KeyValue(e))
		}
		if !ss.known(t.Name) {
			return nil
		}
		for _, part := range chunk(keys, s.db.cfg.BatchLimit) {
			st, err := deleteByKeysStatement(t, part)
			if err != nil {
				return err
			}
			n, err := ss.execCount(ctx, "delete", st)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *singleStore) DeleteWhere(ctx context.Context, table string, where types.Predicate) (int64, error) {
	return s.deleteStatement(ctx, table, func(t *schema.EntityTable) (statement, error) {
		return deleteWhereStatement(t.Name, where)
	})
}

func (s *singleStore) DeleteRange(ctx context.Context, table string, start, end int64, orderColumn string) (int64, error) {
	return s.deleteStatement(ctx, table, func(t *schema.EntityTable) (statement, error) {
		return deleteRangeStatement(t, start, end, orderColumn)
	})
}

func (s *singleStore) DeleteEvery(ctx context.Context, table string) (int64, error) {
	return s.deleteStatement(ctx, table, func(t *schema.EntityTable) (statement, error) {
		return deleteWhereStatement(t.Name, nil)
	})
}

func (s *singleStore) deleteStatement(ctx context.Context, table string, build func(*schema.EntityTable) (statement, error)) (int64, error) {
	var total int64
	err := s.db.write(ctx, single, types.WriteOptions{}, func(ctx context.Context, ss *session) error {
		t, err := ss.tableFor(table)
		if err != nil {
			return err
		}
		st, err := build(t)
		if err != nil {
			return err
		}
		if !ss.known(t.Name) {
			return nil
		}
		total, err = ss.execCount(ctx, "delete", st)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *singleStore) Query(ctx context.Context, q types.Query) ([]any, error) {
	return s.db.query(ctx, single, q)
}

func (s *singleStore) QueryByKey(ctx context.Context, table string, key any) (any, error) {
	return s.db.queryByKey(ctx, single, table, key)
}
