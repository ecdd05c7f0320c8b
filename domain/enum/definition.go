package enum

import (
	"fmt"
	"strings"

	"github.com/artpar/lookup/core/schema"
)

// Definition is a Source backed by a YAML enum definition.
type Definition struct {
	def schema.Enum
}

// FromSchema wraps a parsed enum definition.
func FromSchema(e schema.Enum) *Definition {
	return &Definition{def: e}
}

// Key returns the dotted registry key.
func (d *Definition) Key() string { return d.def.Key }

// Module returns the owning namespace.
func (d *Definition) Module() string { return d.def.Namespace }

// KeyName returns the declared key name, or the last key segment.
func (d *Definition) KeyName() string {
	if d.def.KeyName != "" {
		return d.def.KeyName
	}
	key := d.def.Key
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	return key
}

// Cases implements Source.
func (d *Definition) Cases() []Case {
	out := make([]Case, len(d.def.Cases))
	for i, c := range d.def.Cases {
		out[i] = Case{Name: c.Name, Value: c.Value}
	}
	return out
}

// Extra implements Source.
func (d *Definition) Extra(value any) any {
	return d.def.Extra[fmt.Sprint(value)]
}

// Icon implements Source.
func (d *Definition) Icon(value any) any {
	return d.def.Icons[fmt.Sprint(value)]
}
