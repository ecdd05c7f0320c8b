package schema

// Entity is the root definition for a queryable table.
type Entity struct {
	// Name is the singular name of the entity (e.g., "role", "order_item").
	// The table name is derived by convention.
	Name string `yaml:"entity"`

	// Namespace is the owning module; empty means the default namespace.
	Namespace string `yaml:"namespace,omitempty"`

	// Table overrides the derived table name.
	Table string `yaml:"table,omitempty"`

	// Label is the human readable name used by the catalog when no
	// translation exists.
	Label string `yaml:"label,omitempty"`

	// Schema defines the data fields of the entity.
	Schema map[string]Field `yaml:"schema"`

	// NameFields overrides the fields fetched to build a display name.
	NameFields []string `yaml:"name_fields,omitempty"`

	// NameSource overrides the fields joined into the display name.
	NameSource []string `yaml:"name_source,omitempty"`

	// Root marks privileged rows and enables the exclude_root scope.
	Root *Root `yaml:"root,omitempty"`

	// Scopes are the named predicates callers may apply.
	Scopes map[string]Scope `yaml:"scopes,omitempty"`

	// Seed rows are inserted when the database is seeded.
	Seed []map[string]any `yaml:"seed,omitempty"`
}

// Root identifies the column flagging privileged rows.
type Root struct {
	// Field holds a truthy value on root rows.
	Field string `yaml:"field"`
}

// Scope is a declarative predicate on a single field.
type Scope struct {
	Field string  `yaml:"field"`
	Op    ScopeOp `yaml:"op"`

	// Value fixes the operand. When nil the scope takes its operand from
	// the request.
	Value any `yaml:"value,omitempty"`

	// Description for documentation.
	Description string `yaml:"description,omitempty"`
}

// ScopeOp is a comparison operator.
type ScopeOp string

const (
	OpEq      ScopeOp = "eq"
	OpNe      ScopeOp = "ne"
	OpGt      ScopeOp = "gt"
	OpGte     ScopeOp = "gte"
	OpLt      ScopeOp = "lt"
	OpLte     ScopeOp = "lte"
	OpLike    ScopeOp = "like"
	OpIn      ScopeOp = "in"
	OpNull    ScopeOp = "null"
	OpNotNull ScopeOp = "not_null"
)

// Unary reports whether the operator takes no operand.
func (o ScopeOp) Unary() bool {
	return o == OpNull || o == OpNotNull
}

// ExcludeRootScope is the name of the scope derived from Root.
const ExcludeRootScope = "exclude_root"
