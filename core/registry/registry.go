// Package registry holds the entities and enumerations the lookup API can
// serve. Names are resolved by convention: the module namespace plus the
// singular snake case entity name.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/schema"
	"github.com/artpar/lookup/core/storage"
	"github.com/artpar/lookup/domain/lookup"
)

// ErrMissingArgument is returned by a declared scope that needs an argument
// and was called without one.
var ErrMissingArgument = errors.New("scope requires an argument")

// ScopeFunc narrows a query. hasArg is false when the caller supplied no
// argument.
type ScopeFunc func(q *storage.Query, arg any, hasArg bool) error

// Entity is a registered entity with its scopes.
type Entity struct {
	convention.Derived

	scopes map[string]ScopeFunc
}

// Scope returns the named scope.
func (e *Entity) Scope(name string) (ScopeFunc, bool) {
	fn, ok := e.scopes[name]
	return fn, ok
}

// ScopeNames returns the scope names in sorted order.
func (e *Entity) ScopeNames() []string {
	names := make([]string, 0, len(e.scopes))
	for name := range e.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Key returns the registry key for a module and an entity name in any
// form ("Order_Items", "order_item").
func Key(module, name string) string {
	return convention.Snake(module) + ":" + convention.Canonical(name)
}

// Entities manages registered entities.
type Entities struct {
	mu sync.RWMutex

	// entities by key
	entities map[string]*Entity

	// tables to keys
	tables map[string]string
}

// NewEntities creates an empty entity registry.
func NewEntities() *Entities {
	return &Entities{
		entities: make(map[string]*Entity),
		tables:   make(map[string]string),
	}
}

// Register derives and registers an entity definition.
// Returns an error on a duplicate name or a table claimed twice.
func (r *Entities) Register(ent schema.Entity) (*Entity, error) {
	derived := convention.Derive(ent)
	key := Key(derived.Module, derived.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entities[key]; exists {
		return nil, fmt.Errorf("entity %q already registered", derived.Qualified())
	}
	if existing, exists := r.tables[derived.Table]; exists {
		return nil, fmt.Errorf("table %q already claimed by entity %q", derived.Table, existing)
	}

	e := &Entity{
		Derived: derived,
		scopes:  make(map[string]ScopeFunc, len(derived.Scopes)),
	}
	for name, sc := range derived.Scopes {
		e.scopes[name] = declaredScope(derived, sc)
	}

	r.entities[key] = e
	r.tables[derived.Table] = derived.Qualified()

	return e, nil
}

// RegisterScope attaches a Go scope to a registered entity, replacing a
// declared scope of the same name.
func (r *Entities) RegisterScope(module, name, scope string, fn ScopeFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[Key(module, name)]
	if !ok {
		return fmt.Errorf("%w: entity %q", lookup.ErrNotFound, name)
	}
	e.scopes[scope] = fn
	return nil
}

// Lookup resolves a request name within a module.
func (r *Entities) Lookup(module, name string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entities[Key(module, name)]
	if !ok {
		if module != "" {
			return nil, fmt.Errorf("%w: entity %q in module %q", lookup.ErrNotFound, name, module)
		}
		return nil, fmt.Errorf("%w: entity %q", lookup.ErrNotFound, name)
	}
	return e, nil
}

// List returns all registered entities sorted by qualified name.
func (r *Entities) List() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		list = append(list, e)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Qualified() < list[j].Qualified()
	})

	return list
}

// Len returns the number of registered entities.
func (r *Entities) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// declaredScope turns a YAML scope into a query filter. A caller argument
// replaces the declared value.
func declaredScope(ent convention.Derived, sc schema.Scope) ScopeFunc {
	var typ schema.FieldType
	if f, ok := ent.Field(sc.Field); ok {
		typ = f.Type
	}

	return func(q *storage.Query, arg any, hasArg bool) error {
		value := sc.Value
		if !sc.Op.Unary() {
			if hasArg {
				value = arg
			} else if value == nil {
				return ErrMissingArgument
			}
		}
		// Caller text matches anywhere; declared patterns are used as written.
		if s, ok := arg.(string); ok && hasArg && sc.Op == schema.OpLike {
			value = storage.Contains(s)
		}

		q.Filter(storage.Condition{
			Field: sc.Field,
			Op:    sc.Op,
			Value: value,
			Type:  typ,
		})
		return nil
	}
}
