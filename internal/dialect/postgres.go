package dialect

import "fmt"

type PostgresDialect struct{}

func (d *PostgresDialect) GetTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`
}

func (d *PostgresDialect) SelectQuery(table string, exprs []string) string {
	return DefaultSelectQuery(table, exprs)
}

func (d *PostgresDialect) CountQuery(table string) string {
	return DefaultCountQuery(table)
}

// GeometryText requires PostGIS on the source.
func (d *PostgresDialect) GeometryText(column string) string {
	return fmt.Sprintf("ST_AsText(%s) as %s", column, column)
}

func (d *PostgresDialect) NormalizeTableName(name string) string {
	return DefaultNormalizeTableName(name)
}
