package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/schema"
)

// Dialect captures the SQL differences between supported databases.
type Dialect interface {
	// Name is the dialect name ("sqlite3", "postgres", "mysql").
	Name() string

	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string

	// Quote quotes an identifier.
	Quote(ident string) string

	// JSONText returns an expression extracting the text at path from a JSON
	// column. path is a bind marker.
	JSONText(col, path string) string

	// JSONPath returns the argument bound to the path of JSONText for key.
	JSONPath(key string) string

	// Text casts a column expression to text so string functions accept it
	// whatever the column type.
	Text(expr string) string

	// LikeEscape is the ESCAPE clause matching EscapeLike.
	LikeEscape() string

	// Bool converts a boolean argument.
	Bool(v bool) any

	// Time converts a timestamp argument.
	Time(t time.Time) any

	// ColumnType returns the column type for a derived field.
	ColumnType(f convention.DerivedField) string

	// IntegerID returns the full column definition of an integer id.
	IntegerID(col string) string

	// ColumnsQuery returns a query listing the column names of table in
	// ordinal order.
	ColumnsQuery(table string) (string, []any)
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	case "postgres", "postgresql", "pq":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// timeLayout matches SQLite's CURRENT_TIMESTAMP.
const timeLayout = "2006-01-02 15:04:05"

// -----------------------------------------------------------------------------
// SQLite
// -----------------------------------------------------------------------------

// SQLite is the dialect of github.com/mattn/go-sqlite3.
type SQLite struct{}

func (SQLite) Name() string              { return "sqlite3" }
func (SQLite) Placeholder(int) string    { return "?" }
func (SQLite) Quote(ident string) string { return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"` }
func (SQLite) LikeEscape() string        { return ` ESCAPE '\'` }
func (SQLite) JSONPath(key string) string {
	return "$." + key
}

// JSONText falls back to the raw column when it does not hold valid JSON,
// matching how plain text in a translatable column is read back.
func (SQLite) JSONText(col, path string) string {
	return fmt.Sprintf("CASE WHEN json_valid(%s) THEN json_extract(%s, %s) ELSE %s END", col, col, path, col)
}

// Text is the identity: SQLite string functions accept any storage class.
func (SQLite) Text(expr string) string { return expr }

func (SQLite) Bool(v bool) any {
	if v {
		return 1
	}
	return 0
}

func (SQLite) Time(t time.Time) any { return t.UTC().Format(timeLayout) }

func (SQLite) ColumnType(f convention.DerivedField) string { return f.SQLType }

func (d SQLite) IntegerID(col string) string {
	return d.Quote(col) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (SQLite) ColumnsQuery(table string) (string, []any) {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{table}
}

// -----------------------------------------------------------------------------
// PostgreSQL
// -----------------------------------------------------------------------------

// Postgres is the dialect of github.com/lib/pq.
type Postgres struct{}

func (Postgres) Name() string               { return "postgres" }
func (Postgres) Placeholder(n int) string   { return fmt.Sprintf("$%d", n) }
func (Postgres) Quote(ident string) string  { return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"` }
func (Postgres) LikeEscape() string         { return ` ESCAPE '\'` }
func (Postgres) JSONPath(key string) string { return key }
func (Postgres) Bool(v bool) any            { return v }
func (Postgres) Time(t time.Time) any       { return t.UTC() }

func (Postgres) Text(expr string) string { return "CAST(" + expr + " AS TEXT)" }

func (Postgres) JSONText(col, path string) string {
	return fmt.Sprintf("(%s::jsonb ->> %s)", col, path)
}

func (Postgres) ColumnType(f convention.DerivedField) string {
	switch f.Type {
	case schema.FieldTypeInt:
		return "BIGINT"
	case schema.FieldTypeFloat:
		return "DOUBLE PRECISION"
	case schema.FieldTypeBool:
		return "BOOLEAN"
	case schema.FieldTypeJSON:
		return "JSONB"
	case schema.FieldTypeTimestamp:
		return "TIMESTAMPTZ"
	}
	return "TEXT"
}

func (d Postgres) IntegerID(col string) string {
	return d.Quote(col) + " BIGSERIAL PRIMARY KEY"
}

func (Postgres) ColumnsQuery(table string) (string, []any) {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, []any{table}
}

// -----------------------------------------------------------------------------
// MySQL
// -----------------------------------------------------------------------------

// MySQL is the dialect of github.com/go-sql-driver/mysql.
type MySQL struct{}

func (MySQL) Name() string              { return "mysql" }
func (MySQL) Placeholder(int) string    { return "?" }
func (MySQL) Quote(ident string) string { return "`" + strings.ReplaceAll(ident, "`", "``") + "`" }
func (MySQL) LikeEscape() string        { return ` ESCAPE '\\'` }
func (MySQL) JSONPath(key string) string {
	return `$."` + key + `"`
}

func (MySQL) Text(expr string) string { return "CAST(" + expr + " AS CHAR)" }

func (MySQL) JSONText(col, path string) string {
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(%s, %s))", col, path)
}

func (MySQL) Bool(v bool) any {
	if v {
		return 1
	}
	return 0
}

func (MySQL) Time(t time.Time) any { return t.UTC().Format(timeLayout) }

func (MySQL) ColumnType(f convention.DerivedField) string {
	switch f.Type {
	case schema.FieldTypeInt:
		return "BIGINT"
	case schema.FieldTypeFloat:
		return "DOUBLE"
	case schema.FieldTypeBool:
		return "TINYINT(1)"
	case schema.FieldTypeJSON:
		return "JSON"
	case schema.FieldTypeTimestamp:
		return "DATETIME"
	case schema.FieldTypeUUID:
		return "VARCHAR(36)"
	}
	return "VARCHAR(255)"
}

func (d MySQL) IntegerID(col string) string {
	return d.Quote(col) + " BIGINT AUTO_INCREMENT PRIMARY KEY"
}

func (MySQL) ColumnsQuery(table string) (string, []any) {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, []any{table}
}
