package dialect

import "fmt"

type MSSQLDialect struct{}

func (d *MSSQLDialect) GetTablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) SelectQuery(table string, exprs []string) string {
	return DefaultSelectQuery(table, exprs)
}

func (d *MSSQLDialect) CountQuery(table string) string {
	return DefaultCountQuery(table)
}

// GeometryText calls the STAsText method of the geometry CLR type.
func (d *MSSQLDialect) GeometryText(column string) string {
	return fmt.Sprintf("%s.STAsText() as %s", column, column)
}

func (d *MSSQLDialect) NormalizeTableName(name string) string {
	return DefaultNormalizeTableName(name)
}
