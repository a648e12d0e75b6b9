package dialect

import (
	"fmt"
	"strings"
	"time"
)

const (
	// NullLiteral is written for absent values and unmapped types.
	NullLiteral = "null"
	// GeometryType is the only named object type with a known encoding.
	GeometryType = "MDSYS.SDO_GEOMETRY"

	oracleDateLayout = "2006-01-02 15:04:05"
	oracleDateMask   = "yyyy-mm-dd hh24:mi:ss"
)

// OracleDialect generates the destination-side SQL. Identifiers are used
// unquoted, so Oracle resolves them in their stored uppercase form.
type OracleDialect struct{}

func (d *OracleDialect) GetTablesQuery() string {
	return `select table_name from user_tables order by table_name`
}

func (d *OracleDialect) GetColumnsQuery() string {
	return `
select
    column_name,
    data_type,
    data_type_owner,
    nullable,
    data_precision,
    data_scale,
    char_length,
    data_length
from user_tab_columns
where table_name = :1
order by column_id`
}

func (d *OracleDialect) GetConstraintsQuery() string {
	return `select constraint_name, constraint_type, status from user_constraints where table_name = :1 order by constraint_name`
}

func (d *OracleDialect) GetTriggersQuery() string {
	return `select trigger_name, status from user_triggers where table_name = :1 order by trigger_name`
}

// SessionSetup returns statements run once on the pinned destination session.
// Numbers arrive from the source as text, so the decimal separator must be fixed.
func (d *OracleDialect) SessionSetup() []string {
	return []string{
		"alter session set nls_numeric_characters = '.,'",
		"alter session set nls_date_format = 'YYYY-MM-DD HH24:MI:SS'",
	}
}

func (d *OracleDialect) ConstraintStatement(table, constraint string, enable bool) string {
	return fmt.Sprintf("alter table %s %s constraint %s", table, enableKeyword(enable), constraint)
}

func (d *OracleDialect) TriggerStatement(trigger string, enable bool) string {
	return fmt.Sprintf("alter trigger %s %s", trigger, enableKeyword(enable))
}

func (d *OracleDialect) DeleteQuery(table string) string {
	return fmt.Sprintf("delete from %s", table)
}

func (d *OracleDialect) CountQuery(table string) string {
	return DefaultCountQuery(table)
}

// InsertQuery joins pre-rendered value expressions; literals and bind
// placeholders may be mixed.
func (d *OracleDialect) InsertQuery(table string, cols []string, values []string) string {
	return fmt.Sprintf("insert into %s (%s) values (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(values, ", "))
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

// QuoteLiteral wraps s in single quotes, doubling embedded quotes.
func (d *OracleDialect) QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d *OracleDialect) DateLiteral(t time.Time) string {
	return d.DateTextLiteral(t.Format(oracleDateLayout))
}

// DateTextLiteral is used when the source hands back a date already rendered as text.
func (d *OracleDialect) DateTextLiteral(s string) string {
	return fmt.Sprintf("to_date(%s, '%s')", d.QuoteLiteral(s), oracleDateMask)
}

func enableKeyword(enable bool) string {
	if enable {
		return "enable"
	}
	return "disable"
}
