// Package storage reads entity tables through database/sql.
// It creates tables from derived entity definitions, introspects their
// columns and compiles lookup queries per SQL dialect.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/schema"
)

// ErrNoTable is returned when a table does not exist.
var ErrNoTable = errors.New("table does not exist")

// ErrUnknownColumn is returned when a query references a column the table
// does not have.
var ErrUnknownColumn = errors.New("unknown column")

// BuildCreateTableSQL generates CREATE TABLE SQL from a derived entity.
func BuildCreateTableSQL(d Dialect, ent convention.Derived) string {
	var columns []string
	var constraints []string

	for _, f := range ent.Fields {
		columns = append(columns, buildColumnDef(d, f))

		if f.Unique && f.Name != "id" {
			constraints = append(constraints, fmt.Sprintf("UNIQUE(%s)", d.Quote(f.Name)))
		}
	}

	sql := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s",
		d.Quote(ent.Table),
		strings.Join(columns, ",\n  "),
	)

	if len(constraints) > 0 {
		sql += ",\n  " + strings.Join(constraints, ",\n  ")
	}

	sql += "\n)"

	return sql
}

// buildColumnDef builds a column definition from a derived field.
func buildColumnDef(d Dialect, f convention.DerivedField) string {
	if f.Name == "id" && f.Type == schema.FieldTypeInt {
		return d.IntegerID(f.Name)
	}

	parts := []string{d.Quote(f.Name), d.ColumnType(f)}

	if f.Name == "id" {
		parts = append(parts, "PRIMARY KEY")
	}

	if f.Required {
		parts = append(parts, "NOT NULL")
	}

	if f.Default != nil {
		if def := formatDefault(d, f.Default); def != "" {
			parts = append(parts, "DEFAULT "+def)
		}
	}

	if f.Name == "created_at" || f.Name == "updated_at" {
		parts = append(parts, "DEFAULT CURRENT_TIMESTAMP")
	}

	return strings.Join(parts, " ")
}

// formatDefault formats a default value for SQL.
func formatDefault(d Dialect, val any) string {
	switch v := val.(type) {
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprint(d.Bool(v))
	default:
		return ""
	}
}

// BuildIndexSQL generates CREATE INDEX statements for indexed fields.
func BuildIndexSQL(d Dialect, ent convention.Derived) []string {
	var indexes []string

	for _, f := range ent.Fields {
		if f.Index && f.Name != "id" {
			indexes = append(indexes, fmt.Sprintf(
				"CREATE INDEX %s ON %s(%s)",
				d.Quote(fmt.Sprintf("idx_%s_%s", ent.Table, f.Name)),
				d.Quote(ent.Table),
				d.Quote(f.Name),
			))
		}
	}

	return indexes
}
