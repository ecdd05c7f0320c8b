// Package convention derives defaults from minimal entity definitions.
// It applies naming conventions and implicit fields.
package convention

import (
	"sort"

	"github.com/artpar/lookup/core/schema"
)

// Derived contains all derived information from an entity definition.
// This is the fully-expanded form used by the registry and storage.
type Derived struct {
	// Source is the original entity definition.
	Source schema.Entity

	// Name is the canonical entity name ("order_item").
	Name string

	// Module is the owning namespace, empty for the default namespace.
	Module string

	// Model is the capitalized type name ("OrderItem").
	Model string

	// Table is the database table name.
	Table string

	// Fields contains all fields including implicit ones (id, created_at, updated_at).
	Fields []DerivedField

	// Translatable lists the multi-locale json fields.
	Translatable []string

	// Scopes contains the declared scopes plus exclude_root when Root is set.
	Scopes map[string]schema.Scope
}

// DerivedField is a fully-derived field with all defaults applied.
type DerivedField struct {
	Name     string
	Source   *schema.Field
	Type     schema.FieldType
	SQLType  string
	Unique   bool
	Required bool
	Index    bool
	Default  any

	// Translatable marks multi-locale json values.
	Translatable bool

	// Implicit indicates this is an auto-generated field.
	Implicit bool
}

// Qualified returns the module-qualified name ("billing.invoice").
func (d Derived) Qualified() string {
	if d.Module == "" {
		return d.Name
	}
	return d.Module + "." + d.Name
}

// Field returns the named field.
func (d Derived) Field(name string) (DerivedField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return DerivedField{}, false
}

// IsTranslatable reports whether the named field holds per-locale values.
func (d Derived) IsTranslatable(name string) bool {
	f, ok := d.Field(name)
	return ok && f.Translatable
}

// Derive expands a minimal entity definition into a fully-derived form.
func Derive(ent schema.Entity) Derived {
	name := Canonical(ent.Name)
	d := Derived{
		Source: ent,
		Name:   name,
		Module: Snake(ent.Namespace),
		Model:  Studly(name),
		Table:  ent.Table,
	}
	if d.Table == "" {
		d.Table = Pluralize(name)
	}

	d.Fields = deriveFields(ent)
	for _, f := range d.Fields {
		if f.Translatable {
			d.Translatable = append(d.Translatable, f.Name)
		}
	}
	d.Scopes = deriveScopes(ent)

	return d
}

// deriveFields creates the full list of fields including implicit ones.
// User fields are sorted by name so table layouts are stable.
func deriveFields(ent schema.Entity) []DerivedField {
	fields := make([]DerivedField, 0, len(ent.Schema)+3)

	id := DerivedField{
		Name:     "id",
		Type:     schema.FieldTypeUUID,
		SQLType:  "TEXT",
		Unique:   true,
		Implicit: true,
	}
	// An explicit integer id becomes an auto-incrementing key.
	if f, ok := ent.Schema["id"]; ok && f.Type == schema.FieldTypeInt {
		id.Type = schema.FieldTypeInt
		id.SQLType = "INTEGER"
		id.Source = &f
	}
	fields = append(fields, id)

	names := make([]string, 0, len(ent.Schema))
	for name := range ent.Schema {
		switch name {
		case "id", "created_at", "updated_at":
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := ent.Schema[name]
		fields = append(fields, DerivedField{
			Name:         name,
			Source:       &f,
			Type:         f.Type,
			SQLType:      f.SQLType(),
			Unique:       f.Unique,
			Required:     f.IsRequired(),
			Index:        f.Index,
			Default:      f.Default,
			Translatable: f.Translatable,
		})
	}

	fields = append(fields,
		DerivedField{
			Name:     "created_at",
			Type:     schema.FieldTypeTimestamp,
			SQLType:  "TEXT",
			Implicit: true,
		},
		DerivedField{
			Name:     "updated_at",
			Type:     schema.FieldTypeTimestamp,
			SQLType:  "TEXT",
			Implicit: true,
		},
	)

	return fields
}

// deriveScopes copies declared scopes and adds exclude_root for entities
// with a root flag.
func deriveScopes(ent schema.Entity) map[string]schema.Scope {
	scopes := make(map[string]schema.Scope, len(ent.Scopes)+1)
	for name, sc := range ent.Scopes {
		scopes[name] = sc
	}

	if ent.Root != nil {
		scopes[schema.ExcludeRootScope] = schema.Scope{
			Field:       ent.Root.Field,
			Op:          schema.OpNe,
			Value:       true,
			Description: "Hide root records",
		}
	}

	return scopes
}
