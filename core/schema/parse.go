package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseEntityFile parses an entity definition from a YAML file.
func ParseEntityFile(path string) (Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entity{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return ParseEntity(data)
}

// ParseEntity parses an entity definition from YAML bytes.
func ParseEntity(data []byte) (Entity, error) {
	var ent Entity
	if err := yaml.Unmarshal(data, &ent); err != nil {
		return Entity{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := ValidateEntity(ent); err != nil {
		return Entity{}, fmt.Errorf("validate entity %q: %w", ent.Name, err)
	}

	return ent, nil
}

// ParseEntityDir parses all entity definitions from a directory, including subdirectories.
func ParseEntityDir(dir string) ([]Entity, error) {
	var entities []Entity

	err := walkYAML(dir, func(path, _ string) error {
		ent, err := ParseEntityFile(path)
		if err != nil {
			return err
		}
		entities = append(entities, ent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// ParseEnumFile parses an enum definition from a YAML file. key is used
// when the file does not set one.
func ParseEnumFile(path, key string) (Enum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Enum{}, fmt.Errorf("read file %s: %w", path, err)
	}

	var e Enum
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Enum{}, fmt.Errorf("parse yaml %s: %w", path, err)
	}
	if e.Key == "" {
		e.Key = key
	}

	if err := ValidateEnum(e); err != nil {
		return Enum{}, fmt.Errorf("validate enum %q: %w", e.Key, err)
	}

	return e, nil
}

// ParseEnumDir parses every enum definition below dir. Keys are derived
// from the path relative to dir with keyFn.
func ParseEnumDir(dir string, keyFn func(rel string) string) ([]Enum, error) {
	var enums []Enum

	err := walkYAML(dir, func(path, rel string) error {
		e, err := ParseEnumFile(path, keyFn(rel))
		if err != nil {
			return err
		}
		enums = append(enums, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return enums, nil
}

// walkYAML calls fn for every .yaml/.yml file below dir with its path and
// its slash-separated path relative to dir. Hidden entries are skipped.
func walkYAML(dir string, fn func(path, rel string) error) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("read dir %s: %w", dir, err)
		}

		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel))
	})
}

// ValidateEntity validates an entity definition.
func ValidateEntity(ent Entity) error {
	var errs []string

	if ent.Name == "" {
		errs = append(errs, "entity name is required")
	} else if !isValidIdentifier(ent.Name) {
		errs = append(errs, fmt.Sprintf("entity name %q is not a valid identifier", ent.Name))
	}

	if ent.Namespace != "" && !isValidIdentifier(ent.Namespace) {
		errs = append(errs, fmt.Sprintf("namespace %q is not a valid identifier", ent.Namespace))
	}

	if ent.Table != "" && !isValidIdentifier(ent.Table) {
		errs = append(errs, fmt.Sprintf("table %q is not a valid identifier", ent.Table))
	}

	if len(ent.Schema) == 0 {
		errs = append(errs, "schema must have at least one field")
	}

	for name, field := range ent.Schema {
		if !isValidIdentifier(name) {
			errs = append(errs, fmt.Sprintf("field name %q is not a valid identifier", name))
			continue
		}
		if !isValidFieldType(field.Type) {
			errs = append(errs, fmt.Sprintf("field %q: unknown type %q", name, field.Type))
		}
		if field.Translatable && field.Type != FieldTypeJSON {
			errs = append(errs, fmt.Sprintf("field %q: translatable requires type json", name))
		}
	}

	if ent.Root != nil {
		if _, ok := ent.Schema[ent.Root.Field]; !ok {
			errs = append(errs, fmt.Sprintf("root field %q not in schema", ent.Root.Field))
		}
		if _, ok := ent.Scopes[ExcludeRootScope]; ok {
			errs = append(errs, fmt.Sprintf("scope %q is reserved when root is set", ExcludeRootScope))
		}
	}

	for name, sc := range ent.Scopes {
		if err := validateScope(name, sc, ent.Schema); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for _, f := range ent.NameSource {
		if !hasField(ent.Schema, f) {
			errs = append(errs, fmt.Sprintf("name_source field %q not in schema", f))
		}
	}
	for _, f := range ent.NameFields {
		if !hasField(ent.Schema, f) {
			errs = append(errs, fmt.Sprintf("name_fields field %q not in schema", f))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ValidateEnum validates an enum definition.
func ValidateEnum(e Enum) error {
	var errs []string

	if e.Key == "" {
		errs = append(errs, "enum key is required")
	}
	if len(e.Cases) == 0 {
		errs = append(errs, "enum must have at least one case")
	}

	seen := make(map[string]bool)
	for i, c := range e.Cases {
		if c.Name == "" {
			errs = append(errs, fmt.Sprintf("cases[%d]: name is required", i))
		}
		if c.Value == nil {
			errs = append(errs, fmt.Sprintf("cases[%d]: value is required", i))
			continue
		}
		v := fmt.Sprint(c.Value)
		if seen[v] {
			errs = append(errs, fmt.Sprintf("cases[%d]: duplicate value %s", i, v))
		}
		seen[v] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validateScope(name string, sc Scope, fields map[string]Field) error {
	if !isValidIdentifier(name) {
		return fmt.Errorf("scope name %q is not a valid identifier", name)
	}
	if !hasField(fields, sc.Field) {
		return fmt.Errorf("scope %q: field %q not in schema", name, sc.Field)
	}
	switch sc.Op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpLike, OpIn, OpNull, OpNotNull:
	default:
		return fmt.Errorf("scope %q: unknown op %q", name, sc.Op)
	}
	if sc.Op.Unary() && sc.Value != nil {
		return fmt.Errorf("scope %q: op %q takes no value", name, sc.Op)
	}
	return nil
}

// hasField reports whether name is a schema field or an implicit column.
func hasField(fields map[string]Field, name string) bool {
	switch name {
	case "id", "created_at", "updated_at":
		return true
	}
	_, ok := fields[name]
	return ok
}

// isValidIdentifier checks if a string is a valid identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
