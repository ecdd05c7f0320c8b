package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/schema"
)

// SQLStore reads and seeds entity tables in a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	mu      sync.RWMutex
	columns map[string][]string
}

// Open opens a database with a registered driver ("sqlite3", "postgres",
// "mysql"). SQLite databases are opened in WAL mode.
func Open(driver, dsn string) (*SQLStore, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if d.Name() == "sqlite3" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d.Name() == "sqlite3" {
		// A single connection keeps in-memory databases shared.
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		}
		pragmas := []string{
			"PRAGMA synchronous = NORMAL",
			"PRAGMA cache_size = -64000",
			"PRAGMA temp_store = MEMORY",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("set pragma: %w", err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(db, d), nil
}

// sqliteDSN appends the journal and busy timeout options to a file path.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = ":memory:"
	}
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}

// New creates a store from an existing connection.
func New(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: d,
		columns: make(map[string][]string),
	}
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying database connection.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateTable creates the table of an entity with its indexes. An existing
// table is left untouched. It reports whether the table was created.
func (s *SQLStore) CreateTable(ctx context.Context, ent convention.Derived) (bool, error) {
	return s.SeedTable(ctx, ent, nil)
}

// SeedTable creates the table of an entity and inserts rows into it as one
// unit: on any failure the table is rolled back or dropped, so a later call
// starts from scratch. An existing table is left untouched and reported as
// not created.
func (s *SQLStore) SeedTable(ctx context.Context, ent convention.Derived, rows []map[string]any) (bool, error) {
	if _, err := s.Columns(ctx, ent.Table); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNoTable) {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed of %s: %w", ent.Table, err)
	}

	if err := s.createAndFill(ctx, tx, ent, rows); err != nil {
		tx.Rollback()
		// MySQL commits DDL implicitly.
		s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.dialect.Quote(ent.Table))
		return false, err
	}
	if err := tx.Commit(); err != nil {
		s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.dialect.Quote(ent.Table))
		return false, fmt.Errorf("commit seed of %s: %w", ent.Table, err)
	}

	s.mu.Lock()
	delete(s.columns, ent.Table)
	s.mu.Unlock()

	return true, nil
}

func (s *SQLStore) createAndFill(ctx context.Context, x execer, ent convention.Derived, rows []map[string]any) error {
	if _, err := x.ExecContext(ctx, BuildCreateTableSQL(s.dialect, ent)); err != nil {
		return fmt.Errorf("create table %s: %w", ent.Table, err)
	}

	for _, indexSQL := range BuildIndexSQL(s.dialect, ent) {
		if _, err := x.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	for i, row := range rows {
		if _, err := s.insert(ctx, x, ent, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Insert adds a record to the entity's table and returns its id. Text ids
// are generated when missing; integer ids are left to the database.
func (s *SQLStore) Insert(ctx context.Context, ent convention.Derived, data map[string]any) (any, error) {
	return s.insert(ctx, s.db, ent, data)
}

func (s *SQLStore) insert(ctx context.Context, x execer, ent convention.Derived, data map[string]any) (any, error) {
	id, hasID := data["id"]
	idField, _ := ent.Field("id")
	if (!hasID || id == nil || id == "") && idField.Type != schema.FieldTypeInt {
		id = uuid.New().String()
		hasID = true
	}

	var columns, marks []string
	var values []any
	add := func(col string, v any) error {
		arg, err := s.insertArg(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", col, err)
		}
		columns = append(columns, s.dialect.Quote(col))
		values = append(values, arg)
		marks = append(marks, s.dialect.Placeholder(len(values)))
		return nil
	}

	if hasID && id != nil {
		if err := add("id", id); err != nil {
			return nil, err
		}
	}

	for _, f := range ent.Fields {
		if f.Implicit {
			continue
		}

		val, exists := data[f.Name]
		if !exists {
			if f.Default != nil {
				val = f.Default
			} else if f.Required {
				return nil, fmt.Errorf("required field %q not provided", f.Name)
			} else {
				continue
			}
		}
		if err := add(f.Name, val); err != nil {
			return nil, err
		}
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.Quote(ent.Table),
		strings.Join(columns, ", "),
		strings.Join(marks, ", "),
	)

	if s.dialect.Name() == "postgres" && !hasID {
		var newID int64
		if err := x.QueryRowContext(ctx, insertSQL+" RETURNING id", values...).Scan(&newID); err != nil {
			return nil, fmt.Errorf("insert into %s: %w", ent.Table, err)
		}
		return newID, nil
	}

	res, err := x.ExecContext(ctx, insertSQL, values...)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", ent.Table, err)
	}
	if hasID {
		return id, nil
	}
	return res.LastInsertId()
}

func (s *SQLStore) insertArg(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any, []any:
		return normalizeArg(s.dialect, t, "")
	case bool:
		return s.dialect.Bool(t), nil
	}
	return v, nil
}

// Columns returns the column names of table in ordinal order. Results are
// cached until the table is recreated or the cache is reset.
func (s *SQLStore) Columns(ctx context.Context, table string) ([]string, error) {
	s.mu.RLock()
	cols, ok := s.columns[table]
	s.mu.RUnlock()
	if ok {
		return cols, nil
	}

	query, args := s.dialect.ColumnsQuery(table)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("introspect %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, table)
	}

	s.mu.Lock()
	s.columns[table] = cols
	s.mu.Unlock()

	return cols, nil
}

// ResetColumns drops the cached column lists.
func (s *SQLStore) ResetColumns() {
	s.mu.Lock()
	s.columns = make(map[string][]string)
	s.mu.Unlock()
}

// Find returns every row matching the query.
func (s *SQLStore) Find(ctx context.Context, q *Query) ([]map[string]any, error) {
	if err := s.check(ctx, q); err != nil {
		return nil, err
	}

	querySQL, args, err := q.Build(s.dialect)
	if err != nil {
		return nil, err
	}

	return s.fetch(ctx, querySQL, args)
}

// Paginate returns one window of matching rows and the total match count.
func (s *SQLStore) Paginate(ctx context.Context, q *Query, limit, offset int) ([]map[string]any, int64, error) {
	if err := s.check(ctx, q); err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := q.BuildCount(s.dialect)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", q.Table, err)
	}

	querySQL, args, err := q.Build(s.dialect)
	if err != nil {
		return nil, 0, err
	}
	querySQL += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := s.fetch(ctx, querySQL, args)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// check rejects queries referencing columns the table does not have.
func (s *SQLStore) check(ctx context.Context, q *Query) error {
	cols, err := s.Columns(ctx, q.Table)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}
	for _, c := range q.Columns() {
		if !known[c] {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, q.Table, c)
		}
	}
	return nil
}

func (s *SQLStore) fetch(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		scanDest := make([]any, len(columns))
		for i := range values {
			scanDest[i] = &values[i]
		}

		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = convertFromDB(values[i], types[i])
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return results, nil
}

// convertFromDB converts a scanned value to a JSON friendly Go value.
func convertFromDB(val any, ct *sql.ColumnType) any {
	switch v := val.(type) {
	case []byte:
		s := string(v)
		switch strings.ToUpper(ct.DatabaseTypeName()) {
		case "INT", "INTEGER", "BIGINT", "SMALLINT", "MEDIUMINT", "TINYINT", "INT2", "INT4", "INT8":
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		case "DOUBLE", "FLOAT", "DECIMAL", "REAL", "NUMERIC", "FLOAT4", "FLOAT8":
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return s
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	}
	return val
}
