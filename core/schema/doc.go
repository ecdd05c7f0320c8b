/*
Package schema defines the declarative definitions the lookup service is
built from: entities (queryable tables) and enums (fixed value lists).

# Entity Definition

A minimal entity definition in YAML:

	entity: role

	schema:
	  name:    { type: string }
	  is_root: { type: bool, default: false }

	root: { field: is_root }

	scopes:
	  named: { field: name, op: eq }

The table name is derived by convention ("roles"). Entities owned by a module
set a namespace:

	entity: invoice
	namespace: billing

# Display Names

Records are reduced to {id, name, ...extra}. Two optional keys tune how the
name is picked:

	name_fields: [first_name, last_name]   # fields fetched for the name
	name_source: [first_name, last_name]   # fields joined into the name

# Scopes

A scope is a named predicate. A scope with a fixed value takes no argument;
a scope without one is called with the request argument:

	scopes:
	  active:        { field: status, op: eq, value: active }
	  created_after: { field: created_at, op: gt }
	  of_kind:       { field: kind, op: in }

Supported operators: eq, ne, gt, gte, lt, lte, like, in, null, not_null.

# Translatable Fields

Fields holding a JSON object keyed by locale are marked translatable. Search
expands them to one clause per configured locale and the transformer picks
the request locale:

	schema:
	  title: { type: json, translatable: true }

# Enum Definition

	cases:
	  - { name: PENDING, value: 0 }
	  - { name: DONE,    value: 1 }
	extra:
	  0: { color: grey }
	icons:
	  1: check

The enum key is derived from the file path ("order/status_enum.yaml" becomes
"order.status") unless the file sets it explicitly.

# Parsing

	ent, err := schema.ParseEntityFile("entities/role.yaml")
	entities, err := schema.ParseEntityDir("entities/")
	enums, err := schema.ParseEnumDir("enums/")

All definitions are validated on parse. Invalid definitions return an error.
*/
package schema
