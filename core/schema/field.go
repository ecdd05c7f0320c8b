package schema

// Field defines a data field in an entity's schema.
type Field struct {
	// Type is the field type. See FieldType constants.
	Type FieldType `yaml:"type"`

	// Translatable marks a json field holding one value per locale.
	Translatable bool `yaml:"translatable,omitempty"`

	// Unique indicates this field must have unique values.
	Unique bool `yaml:"unique,omitempty"`

	// Required indicates this field must be provided on insert.
	Required *bool `yaml:"required,omitempty"`

	// Default value for this field.
	Default any `yaml:"default,omitempty"`

	// Index creates a database index on this field.
	Index bool `yaml:"index,omitempty"`

	// Description provides human-readable documentation.
	Description string `yaml:"description,omitempty"`
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
	FieldTypeUUID      FieldType = "uuid"
	FieldTypeEmail     FieldType = "email"
)

// IsRequired returns whether the field is required.
// Fields are optional by default unless explicitly marked as required.
func (f Field) IsRequired() bool {
	if f.Required != nil {
		return *f.Required
	}
	return false
}

// SQLType returns the column type for this field.
func (f Field) SQLType() string {
	switch f.Type {
	case FieldTypeInt, FieldTypeBool:
		return "INTEGER"
	case FieldTypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func isValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeInt, FieldTypeFloat, FieldTypeBool,
		FieldTypeTimestamp, FieldTypeJSON, FieldTypeUUID, FieldTypeEmail:
		return true
	default:
		return false
	}
}
