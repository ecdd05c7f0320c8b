package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/artpar/lookup/core/schema"
)

// Condition is one comparison of a column against a value.
type Condition struct {
	Field string
	Op    schema.ScopeOp
	Value any

	// Type is the field type, used to normalize Value. Optional.
	Type schema.FieldType

	// JSONKey compares the text stored under this key of a JSON column.
	JSONKey string

	// Fold compares case-insensitively.
	Fold bool
}

// Predicate is a group of conditions joined with OR.
type Predicate struct {
	Any []Condition
}

// Query selects rows of one table. Predicates are joined with AND.
type Query struct {
	Table     string
	Fields    []string
	Where     []Predicate
	Order     string
	OrderDesc bool
}

// NewQuery starts a query on table.
func NewQuery(table string) *Query {
	return &Query{Table: table}
}

// Select sets the fetched columns.
func (q *Query) Select(fields ...string) *Query {
	q.Fields = append([]string(nil), fields...)
	return q
}

// Filter adds a condition joined with AND.
func (q *Query) Filter(c Condition) *Query {
	q.Where = append(q.Where, Predicate{Any: []Condition{c}})
	return q
}

// FilterAny adds a group of conditions joined with OR. An empty group is
// ignored.
func (q *Query) FilterAny(cs ...Condition) *Query {
	if len(cs) > 0 {
		q.Where = append(q.Where, Predicate{Any: append([]Condition(nil), cs...)})
	}
	return q
}

// OrderBy sets the sort column.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.Order = field
	q.OrderDesc = desc
	return q
}

// Columns returns every identifier the query references.
func (q *Query) Columns() []string {
	cols := append([]string(nil), q.Fields...)
	for _, p := range q.Where {
		for _, c := range p.Any {
			cols = append(cols, c.Field)
		}
	}
	if q.Order != "" {
		cols = append(cols, q.Order)
	}
	return cols
}

// EscapeLike escapes LIKE wildcards in s with a backslash.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Contains returns a LIKE pattern matching s anywhere.
func Contains(s string) string {
	return "%" + EscapeLike(s) + "%"
}

// builder accumulates SQL and bind arguments.
type builder struct {
	d    Dialect
	sql  strings.Builder
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

// Build compiles the SELECT statement.
func (q *Query) Build(d Dialect) (string, []any, error) {
	if len(q.Fields) == 0 {
		return "", nil, fmt.Errorf("query on %s selects no fields", q.Table)
	}

	b := &builder{d: d}
	cols := make([]string, len(q.Fields))
	for i, f := range q.Fields {
		cols[i] = d.Quote(f)
	}
	fmt.Fprintf(&b.sql, "SELECT %s FROM %s", strings.Join(cols, ", "), d.Quote(q.Table))

	if err := q.buildWhere(b); err != nil {
		return "", nil, err
	}

	if q.Order != "" {
		dir := "ASC"
		if q.OrderDesc {
			dir = "DESC"
		}
		fmt.Fprintf(&b.sql, " ORDER BY %s %s", d.Quote(q.Order), dir)
	}

	return b.sql.String(), b.args, nil
}

// BuildCount compiles a COUNT(*) over the query's predicates.
func (q *Query) BuildCount(d Dialect) (string, []any, error) {
	b := &builder{d: d}
	fmt.Fprintf(&b.sql, "SELECT COUNT(*) FROM %s", d.Quote(q.Table))
	if err := q.buildWhere(b); err != nil {
		return "", nil, err
	}
	return b.sql.String(), b.args, nil
}

func (q *Query) buildWhere(b *builder) error {
	if len(q.Where) == 0 {
		return nil
	}

	groups := make([]string, 0, len(q.Where))
	for _, p := range q.Where {
		if len(p.Any) == 0 {
			continue
		}
		parts := make([]string, 0, len(p.Any))
		for _, c := range p.Any {
			s, err := buildCondition(b, c)
			if err != nil {
				return err
			}
			parts = append(parts, s)
		}
		if len(parts) == 1 {
			groups = append(groups, parts[0])
		} else {
			groups = append(groups, "("+strings.Join(parts, " OR ")+")")
		}
	}
	if len(groups) > 0 {
		b.sql.WriteString(" WHERE ")
		b.sql.WriteString(strings.Join(groups, " AND "))
	}
	return nil
}

func buildCondition(b *builder, c Condition) (string, error) {
	col := b.d.Quote(c.Field)
	if c.JSONKey != "" {
		col = b.d.JSONText(col, b.bind(b.d.JSONPath(c.JSONKey)))
	} else if c.Fold {
		col = b.d.Text(col)
	}
	if c.Fold {
		col = "LOWER(" + col + ")"
	}

	switch c.Op {
	case schema.OpNull:
		return col + " IS NULL", nil
	case schema.OpNotNull:
		return col + " IS NOT NULL", nil
	case schema.OpIn:
		values := listOf(c.Value)
		if len(values) == 0 {
			return "1 = 0", nil
		}
		marks := make([]string, len(values))
		for i, v := range values {
			arg, err := normalizeArg(b.d, v, c.Type)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", c.Field, err)
			}
			marks[i] = b.bind(arg)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", ")), nil
	}

	arg, err := normalizeArg(b.d, c.Value, c.Type)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", c.Field, err)
	}
	mark := b.bind(arg)
	if c.Fold {
		mark = "LOWER(" + mark + ")"
	}

	switch c.Op {
	case schema.OpEq, "":
		return col + " = " + mark, nil
	case schema.OpNe:
		// Rows with NULL in the column are not equal to anything.
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", col, col, mark), nil
	case schema.OpGt:
		return col + " > " + mark, nil
	case schema.OpGte:
		return col + " >= " + mark, nil
	case schema.OpLt:
		return col + " < " + mark, nil
	case schema.OpLte:
		return col + " <= " + mark, nil
	case schema.OpLike:
		return col + " LIKE " + mark + b.d.LikeEscape(), nil
	}
	return "", fmt.Errorf("unsupported operator %q", c.Op)
}

// listOf flattens a slice argument; a scalar becomes a one-element list.
func listOf(v any) []any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// normalizeArg converts a decoded JSON argument to a driver value.
func normalizeArg(d Dialect, v any, typ schema.FieldType) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return d.Bool(t), nil
	case time.Time:
		return d.Time(t), nil
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t), nil
		}
		return t, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		return t.Float64()
	case string:
		if typ == schema.FieldTypeTimestamp {
			ts, err := dateparse.ParseIn(t, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parse time %q: %w", t, err)
			}
			return d.Time(ts), nil
		}
		return t, nil
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return v, nil
}
