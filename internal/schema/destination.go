package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
)

// Destination is the Oracle catalog: a frozen snapshot of tables, columns,
// constraints and triggers plus the session used to write into them.
type Destination struct {
	conn    sqlexec.Conn
	dialect *dialect.OracleDialect
	tables  []*Table
	byName  map[string]*Table
}

func NewDestination(conn sqlexec.Conn, d *dialect.OracleDialect) *Destination {
	return &Destination{
		conn:    conn,
		dialect: d,
		byName:  make(map[string]*Table),
	}
}

// NewDestinationSnapshot builds a catalog from tables that were already
// introspected, skipping Load.
func NewDestinationSnapshot(conn sqlexec.Conn, d *dialect.OracleDialect, tables ...*Table) *Destination {
	dst := NewDestination(conn, d)
	for _, t := range tables {
		dst.add(t)
	}
	return dst
}

func (dst *Destination) Conn() sqlexec.Conn {
	return dst.conn
}

func (dst *Destination) Dialect() *dialect.OracleDialect {
	return dst.dialect
}

// Prepare runs the session setup statements on the destination connection.
func (dst *Destination) Prepare(ctx context.Context) error {
	for _, stmt := range dst.dialect.SessionSetup() {
		if _, err := sqlexec.Exec(ctx, dst.conn, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load introspects every table of the connected schema. It must run once,
// before any data is moved.
func (dst *Destination) Load(ctx context.Context) error {
	// --- Step 1: Fetch Tables ---
	names, err := dst.queryStrings(ctx, dst.dialect.GetTablesQuery())
	if err != nil {
		return fmt.Errorf("failed to query tables: %w", err)
	}

	for _, name := range names {
		t := &Table{Name: strings.ToUpper(name)}

		// --- Step 2: Describe Columns ---
		if t.Columns, err = dst.describeColumns(ctx, name); err != nil {
			return fmt.Errorf("failed to describe table %s: %w", name, err)
		}

		// --- Step 3: Constraints ---
		if t.Constraints, err = dst.loadConstraints(ctx, name, t.Name); err != nil {
			return fmt.Errorf("failed to load constraints of %s: %w", name, err)
		}

		// --- Step 4: Triggers ---
		if t.Triggers, err = dst.loadTriggers(ctx, name, t.Name); err != nil {
			return fmt.Errorf("failed to load triggers of %s: %w", name, err)
		}

		dst.add(t)
	}
	return nil
}

func (dst *Destination) add(t *Table) {
	key := strings.ToUpper(t.Name)
	if _, ok := dst.byName[key]; !ok {
		dst.tables = append(dst.tables, t)
	}
	dst.byName[key] = t
}

func (dst *Destination) describeColumns(ctx context.Context, table string) ([]*Column, error) {
	query := dst.dialect.GetColumnsQuery()
	rows, err := sqlexec.Query(ctx, dst.conn, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []*Column
	for rows.Next() {
		var name, dataType, owner, nullable sql.NullString
		var precision, scale, charLen, dataLen sql.NullInt64
		if err := rows.Scan(&name, &dataType, &owner, &nullable, &precision, &scale, &charLen, &dataLen); err != nil {
			return nil, &sqlexec.StatementError{SQL: query, Args: []any{table}, Err: fmt.Errorf("failed to scan column: %w", err)}
		}
		if !name.Valid {
			continue
		}
		cols = append(cols, &Column{
			Name:      name.String,
			Type:      ParseOracleType(dataType.String, owner.String),
			Nullable:  nullable.String != "N",
			Precision: int(precision.Int64),
			Scale:     int(scale.Int64),
			CharSize:  int(charLen.Int64),
			DataSize:  int(dataLen.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlexec.StatementError{SQL: query, Args: []any{table}, Err: err}
	}
	return cols, nil
}

func (dst *Destination) loadConstraints(ctx context.Context, table, owner string) ([]*Constraint, error) {
	query := dst.dialect.GetConstraintsQuery()
	rows, err := sqlexec.Query(ctx, dst.conn, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []*Constraint
	for rows.Next() {
		var name, code, status string
		if err := rows.Scan(&name, &code, &status); err != nil {
			return nil, &sqlexec.StatementError{SQL: query, Args: []any{table}, Err: fmt.Errorf("failed to scan constraint: %w", err)}
		}
		kind, err := ParseConstraintKind(code)
		if err != nil {
			return nil, fmt.Errorf("table %s, constraint %s: %w", owner, name, err)
		}
		constraints = append(constraints, &Constraint{Name: name, Table: owner, Kind: kind, Enabled: status == StatusEnabled})
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlexec.StatementError{SQL: query, Args: []any{table}, Err: err}
	}
	return constraints, nil
}

func (dst *Destination) loadTriggers(ctx context.Context, table, owner string) ([]*Trigger, error) {
	query := dst.dialect.GetTriggersQuery()
	rows, err := sqlexec.Query(ctx, dst.conn, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []*Trigger
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, &sqlexec.StatementError{SQL: query, Args: []any{table}, Err: fmt.Errorf("failed to scan trigger: %w", err)}
		}
		triggers = append(triggers, &Trigger{Name: name, Table: owner, Enabled: status == StatusEnabled})
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlexec.StatementError{SQL: query, Args: []any{table}, Err: err}
	}
	return triggers, nil
}

// queryStrings reads a single string column to completion so the session is
// free for the next statement.
func (dst *Destination) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := sqlexec.Query(ctx, dst.conn, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, &sqlexec.StatementError{SQL: query, Args: args, Err: err}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlexec.StatementError{SQL: query, Args: args, Err: err}
	}
	return out, nil
}

// Tables returns the tables in discovery order.
func (dst *Destination) Tables() []*Table {
	return dst.tables
}

// Table looks a table up case-insensitively.
func (dst *Destination) Table(name string) (*Table, bool) {
	t, ok := dst.byName[strings.ToUpper(name)]
	return t, ok
}

func (dst *Destination) TableNames() []string {
	names := make([]string, len(dst.tables))
	for i, t := range dst.tables {
		names[i] = t.Name
	}
	return names
}

// AllConstraints lists constraints across the catalog, restricted to the
// named tables when filter is non-nil.
func (dst *Destination) AllConstraints(filter []string) []*Constraint {
	var allowed map[string]bool
	if filter != nil {
		allowed = make(map[string]bool, len(filter))
		for _, name := range filter {
			allowed[strings.ToUpper(name)] = true
		}
	}

	var out []*Constraint
	for _, t := range dst.tables {
		if allowed != nil && !allowed[t.Name] {
			continue
		}
		out = append(out, t.Constraints...)
	}
	return out
}
