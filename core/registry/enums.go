package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/domain/enum"
	"github.com/artpar/lookup/domain/lookup"
)

// EnumEntry is a registered enumeration.
type EnumEntry struct {
	// Key is the dotted request key ("order.status").
	Key string

	// Module is the owning namespace, empty for the default namespace.
	Module string

	Source enum.Source
}

// Enums manages registered enumerations.
type Enums struct {
	mu    sync.RWMutex
	enums map[string]EnumEntry
}

// NewEnums creates an empty enum registry.
func NewEnums() *Enums {
	return &Enums{enums: make(map[string]EnumEntry)}
}

func enumKey(module, key string) string {
	return convention.Snake(module) + ":" + convention.EnumKey(key)
}

// Register adds an enumeration under a module and a dotted key.
func (r *Enums) Register(module, key string, src enum.Source) error {
	k := convention.EnumKey(key)
	if k == "" {
		return fmt.Errorf("enum key %q is empty", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	full := enumKey(module, k)
	if _, exists := r.enums[full]; exists {
		return fmt.Errorf("enum %q already registered", full)
	}
	r.enums[full] = EnumEntry{Key: k, Module: convention.Snake(module), Source: src}
	return nil
}

// Lookup resolves a dotted enum name within a module.
func (r *Enums) Lookup(module, name string) (EnumEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.enums[enumKey(module, name)]
	if !ok {
		return EnumEntry{}, fmt.Errorf("%w: enum %q", lookup.ErrNotFound, name)
	}
	return e, nil
}

// List returns every enumeration, default namespace first, then modules,
// each sorted by key.
func (r *Enums) List() []EnumEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]EnumEntry, 0, len(r.enums))
	for _, e := range r.enums {
		list = append(list, e)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Module != list[j].Module {
			return list[i].Module < list[j].Module
		}
		return list[i].Key < list[j].Key
	})

	return list
}

// Len returns the number of registered enumerations.
func (r *Enums) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.enums)
}
