package dialect

import "fmt"

type MysqlDialect struct{}

func (d *MysqlDialect) GetTablesQuery() string {
	return `show tables`
}

func (d *MysqlDialect) SelectQuery(table string, exprs []string) string {
	return DefaultSelectQuery(table, exprs)
}

func (d *MysqlDialect) CountQuery(table string) string {
	return DefaultCountQuery(table)
}

// GeometryText uses AsWKT, which older MySQL servers and MariaDB still ship
// alongside ST_AsWKT.
func (d *MysqlDialect) GeometryText(column string) string {
	return fmt.Sprintf("AsWKT(%s) as %s", column, column)
}

func (d *MysqlDialect) NormalizeTableName(name string) string {
	return DefaultNormalizeTableName(name)
}
