package schema

// Enum is a YAML-defined enumeration.
type Enum struct {
	// Key is the dotted request key ("order.status"). Derived from the file
	// path when empty.
	Key string `yaml:"enum,omitempty"`

	// Namespace is the owning module; empty means the default namespace.
	Namespace string `yaml:"namespace,omitempty"`

	// KeyName overrides the translation group ("enums.<key_name>.*").
	KeyName string `yaml:"key_name,omitempty"`

	Cases []EnumCase `yaml:"cases"`

	// Extra and Icons are side tables keyed by case value.
	Extra map[string]any `yaml:"extra,omitempty"`
	Icons map[string]any `yaml:"icons,omitempty"`
}

// EnumCase is one named value.
type EnumCase struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}
