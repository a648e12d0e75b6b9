package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
)

// Source is the read-only catalog of the engine tables are copied from.
type Source struct {
	conn    sqlexec.Queryer
	dialect dialect.Dialect
}

func NewSource(conn sqlexec.Queryer, d dialect.Dialect) *Source {
	return &Source{conn: conn, dialect: d}
}

func (s *Source) Dialect() dialect.Dialect {
	return s.dialect
}

// ListTables returns the source table names, deduplicated and sorted.
func (s *Source) ListTables(ctx context.Context) ([]string, error) {
	query := s.dialect.GetTablesQuery()
	rows, err := sqlexec.Query(ctx, s.conn, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &sqlexec.StatementError{SQL: query, Err: fmt.Errorf("failed to scan table name: %w", err)}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlexec.StatementError{SQL: query, Err: err}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Source) CountRows(ctx context.Context, table string) (int64, error) {
	query := s.dialect.CountQuery(s.dialect.NormalizeTableName(table))
	rows, err := sqlexec.Query(ctx, s.conn, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, &sqlexec.StatementError{SQL: query, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return 0, &sqlexec.StatementError{SQL: query, Err: err}
	}
	return n, nil
}

// OpenCursor starts an ordered read of table selecting exprs. Rows are
// fetched lazily as the cursor advances.
func (s *Source) OpenCursor(ctx context.Context, table string, exprs []string) (*Cursor, error) {
	query := s.dialect.SelectQuery(s.dialect.NormalizeTableName(table), exprs)
	rows, err := sqlexec.Query(ctx, s.conn, query)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, &sqlexec.StatementError{SQL: query, Err: err}
	}
	for i := range cols {
		cols[i] = strings.ToLower(cols[i])
	}
	return &Cursor{query: query, rows: rows, cols: cols}, nil
}

// Cursor iterates source rows as maps keyed by lowercase column name.
type Cursor struct {
	query string
	rows  *sql.Rows
	cols  []string
	row   map[string]any
	err   error
}

func (c *Cursor) Query() string {
	return c.query
}

func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	vals := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = &sqlexec.StatementError{SQL: c.query, Err: err}
		return false
	}
	c.row = make(map[string]any, len(c.cols))
	for i, name := range c.cols {
		c.row[name] = vals[i]
	}
	return true
}

// Row returns the row read by the last successful Next.
func (c *Cursor) Row() map[string]any {
	return c.row
}

func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return &sqlexec.StatementError{SQL: c.query, Err: err}
	}
	return nil
}

func (c *Cursor) Close() error {
	return c.rows.Close()
}
