package schema

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/mesh-intelligence/lattice/pkg/types"
)

// Registry resolves entities to their descriptors. Register every type
// before the first Store call that touches it.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*EntityTable
	byName map[string]*EntityTable
	order  []string
}

// NewRegistry returns a registry holding tables.
func NewRegistry(tables ...*EntityTable) (*Registry, error) {
	r := &Registry{
		byType: make(map[reflect.Type]*EntityTable),
		byName: make(map[string]*EntityTable),
	}
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a descriptor. Table names must be unique and must not use
// the junction prefix.
func (r *Registry) Register(t *EntityTable) error {
	if t == nil || t.Name == "" {
		return &types.SchemaError{Err: fmt.Errorf("register: %w", types.ErrBadRelation)}
	}
	if IsJunctionName(t.Name) {
		return &types.SchemaError{Table: t.Name, Err: fmt.Errorf("name uses reserved prefix %q", JunctionPrefix)}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[t.Name]; ok {
		return &types.SchemaError{Table: t.Name, Err: types.ErrDuplicateTable}
	}
	if err := r.checkJunctions(t); err != nil {
		return err
	}
	if t.typ != nil {
		if prev, ok := r.byType[t.typ]; ok {
			return &types.SchemaError{Table: t.Name, Err: fmt.Errorf("type %s already registered as %s: %w", t.typ, prev.Name, types.ErrDuplicateTable)}
		}
		r.byType[t.typ] = t
	}
	r.byName[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// checkJunctions rejects t when a relation declared on it, or on a table
// already registered, derives a junction name that another table pair also
// derives. junction_a_b_c is both (a_b, c) and (a, b_c).
func (r *Registry) checkJunctions(t *EntityTable) error {
	pairs := make(map[string]Junction)
	for _, tab := range append(slices.Collect(maps.Values(r.byName)), t) {
		for _, rel := range tab.Relations {
			j := JunctionOf(tab.Name, rel.Target)
			prev, ok := pairs[j.Name]
			if ok && (prev.Left != j.Left || prev.Right != j.Right) {
				return &types.SchemaError{Table: t.Name, Err: fmt.Errorf("%s links %s/%s and %s/%s: %w",
					j.Name, prev.Left, prev.Right, j.Left, j.Right, types.ErrJunctionClash)}
			}
			pairs[j.Name] = j
		}
	}
	return nil
}

// Lookup returns the descriptor of obj's type.
func (r *Registry) Lookup(obj any) (*EntityTable, error) {
	if obj == nil {
		return nil, &types.SchemaError{Err: fmt.Errorf("nil entity: %w", types.ErrNotRegistered)}
	}
	r.mu.RLock()
	t, ok := r.byType[reflect.TypeOf(obj)]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.SchemaError{Err: fmt.Errorf("%T: %w", obj, types.ErrNotRegistered)}
	}
	return t, nil
}

// Table returns the descriptor registered under name.
func (r *Registry) Table(name string) (*EntityTable, error) {
	r.mu.RLock()
	t, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.SchemaError{Table: name, Err: types.ErrNotRegistered}
	}
	return t, nil
}

// Tables returns every descriptor in registration order.
func (r *Registry) Tables() []*EntityTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*EntityTable, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Peers returns the sorted names of the tables linked to name by a
// relation declared on either side.
func (r *Registry) Peers(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var peers []string
	add := func(p string) {
		if !slices.Contains(peers, p) {
			peers = append(peers, p)
		}
	}
	for _, tn := range r.order {
		for _, rel := range r.byName[tn].Relations {
			switch {
			case tn == name:
				add(rel.Target)
			case rel.Target == name:
				add(tn)
			}
		}
	}
	slices.Sort(peers)
	return peers
}
