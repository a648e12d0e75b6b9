package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *Destination, func(dialect.Dialect) *Source) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock,
		func() *Destination { return NewDestination(db, &dialect.OracleDialect{}) },
		func(d dialect.Dialect) *Source { return NewSource(db, d) }
}

var (
	columnHeader     = []string{"column_name", "data_type", "data_type_owner", "nullable", "data_precision", "data_scale", "char_length", "data_length"}
	constraintHeader = []string{"constraint_name", "constraint_type", "status"}
	triggerHeader    = []string{"trigger_name", "status"}
)

func TestDestinationLoad(t *testing.T) {
	mock, newDst, _ := newMock(t)
	d := &dialect.OracleDialect{}

	mock.ExpectQuery(d.GetTablesQuery()).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("CUSTOMERS").AddRow("ORDERS"))

	mock.ExpectQuery(d.GetColumnsQuery()).WithArgs("CUSTOMERS").
		WillReturnRows(sqlmock.NewRows(columnHeader).
			AddRow("ID", "NUMBER", nil, "N", 10, 0, 0, 22).
			AddRow("NAME", "VARCHAR2", nil, "Y", nil, nil, 100, 100))
	mock.ExpectQuery(d.GetConstraintsQuery()).WithArgs("CUSTOMERS").
		WillReturnRows(sqlmock.NewRows(constraintHeader).AddRow("PK_CUSTOMERS", "P", "ENABLED"))
	mock.ExpectQuery(d.GetTriggersQuery()).WithArgs("CUSTOMERS").
		WillReturnRows(sqlmock.NewRows(triggerHeader))

	mock.ExpectQuery(d.GetColumnsQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(columnHeader).
			AddRow("ID", "NUMBER", nil, "N", 10, 0, 0, 22).
			AddRow("CREATED", "DATE", nil, "Y", nil, nil, 0, 7).
			AddRow("GEOM", "SDO_GEOMETRY", "MDSYS", "Y", nil, nil, 0, 1))
	mock.ExpectQuery(d.GetConstraintsQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(constraintHeader).
			AddRow("FK_ORDERS_CUST", "R", "ENABLED").
			AddRow("PK_ORDERS", "P", "ENABLED").
			AddRow("SYS_C0012", "C", "DISABLED"))
	mock.ExpectQuery(d.GetTriggersQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(triggerHeader).AddRow("ORDERS_BI", "ENABLED").AddRow("ORDERS_AUDIT", "DISABLED"))

	dst := newDst()
	require.NoError(t, dst.Load(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{"CUSTOMERS", "ORDERS"}, dst.TableNames())

	orders, ok := dst.Table("orders")
	require.True(t, ok)
	require.Len(t, orders.Columns, 3)
	assert.Equal(t, Type{Kind: KindNumeric}, orders.Columns[0].Type)
	assert.False(t, orders.Columns[0].Nullable)
	assert.Equal(t, 10, orders.Columns[0].Precision)
	assert.Equal(t, Type{Kind: KindDateTime}, orders.Columns[1].Type)
	assert.Equal(t, Type{Kind: KindNamed, Name: "MDSYS.SDO_GEOMETRY"}, orders.Columns[2].Type)
	assert.Equal(t, []string{"ID", "CREATED", "GEOM"}, orders.ColumnNames())
	assert.Equal(t, "orders", orders.SourceName())

	require.Len(t, orders.Constraints, 3)
	assert.Equal(t, ForeignKey, orders.Constraints[0].Kind)
	assert.Equal(t, Check, orders.Constraints[2].Kind)
	assert.True(t, orders.Constraints[0].Enabled)
	assert.False(t, orders.Constraints[2].Enabled, "SYS_C0012 was disabled before the run")
	for _, c := range dst.AllConstraints(nil) {
		owner, ok := dst.Table(c.Table)
		require.True(t, ok, "constraint %s must point at a catalog table", c.Name)
		assert.Contains(t, owner.Constraints, c)
	}

	require.Len(t, orders.Triggers, 2)
	assert.Equal(t, "ORDERS", orders.Triggers[0].Table)
	assert.True(t, orders.Triggers[0].Enabled)
	assert.False(t, orders.Triggers[1].Enabled)

	customers, _ := dst.Table("CUSTOMERS")
	assert.Equal(t, 100, customers.Columns[1].CharSize)
	assert.True(t, customers.Columns[1].Nullable)
}

func TestDestinationLoadRejectsUnknownConstraintKind(t *testing.T) {
	mock, newDst, _ := newMock(t)
	d := &dialect.OracleDialect{}

	mock.ExpectQuery(d.GetTablesQuery()).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("ORDERS"))
	mock.ExpectQuery(d.GetColumnsQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(columnHeader).AddRow("ID", "NUMBER", nil, "N", 10, 0, 0, 22))
	mock.ExpectQuery(d.GetConstraintsQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(constraintHeader).AddRow("UQ_ORDERS_REF", "U", "ENABLED"))

	dst := newDst()
	err := dst.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConstraintKind)
	assert.Contains(t, err.Error(), "UQ_ORDERS_REF")
	assert.Empty(t, dst.Tables())
}

func TestDestinationLoadWrapsStatement(t *testing.T) {
	mock, newDst, _ := newMock(t)
	d := &dialect.OracleDialect{}

	mock.ExpectQuery(d.GetTablesQuery()).WillReturnError(errors.New("ORA-01017"))

	err := newDst().Load(context.Background())
	var stmtErr *sqlexec.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, d.GetTablesQuery(), stmtErr.SQL)
}

func TestDestinationPrepare(t *testing.T) {
	mock, newDst, _ := newMock(t)
	for _, stmt := range (&dialect.OracleDialect{}).SessionSetup() {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, newDst().Prepare(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAllConstraintsFilter(t *testing.T) {
	dst := NewDestinationSnapshot(nil, &dialect.OracleDialect{},
		&Table{Name: "A", Constraints: []*Constraint{{Name: "PK_A", Table: "A", Kind: PrimaryKey}}},
		&Table{Name: "B", Constraints: []*Constraint{{Name: "PK_B", Table: "B", Kind: PrimaryKey}, {Name: "FK_B_A", Table: "B", Kind: ForeignKey}}},
	)

	assert.Len(t, dst.AllConstraints(nil), 3)
	assert.Len(t, dst.AllConstraints([]string{"b"}), 2)
	assert.Empty(t, dst.AllConstraints([]string{}))
}

func TestSourceListTables(t *testing.T) {
	mock, _, newSrc := newMock(t)
	mock.ExpectQuery("show tables").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_test"}).AddRow("orders").AddRow("customers").AddRow("orders"))

	names, err := newSrc(&dialect.MysqlDialect{}).ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, names)
}

func TestSourceCursor(t *testing.T) {
	mock, _, newSrc := newMock(t)
	created := time.Date(2010, time.January, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("select id, name, AsWKT(geom) as geom from orders order by 1").
		WillReturnRows(sqlmock.NewRows([]string{"ID", "name", "geom"}).
			AddRow(1, "first", "POINT(1 2)").
			AddRow(2, nil, nil).
			AddRow(3, "third", created))

	src := newSrc(&dialect.MysqlDialect{})
	cur, err := src.OpenCursor(context.Background(), "ORDERS", []string{"id", "name", "AsWKT(geom) as geom"})
	require.NoError(t, err)
	defer cur.Close()

	var rows []map[string]any
	for cur.Next() {
		rows = append(rows, cur.Row())
	}
	require.NoError(t, cur.Err())
	require.Len(t, rows, 3)
	assert.EqualValues(t, 1, rows[0]["id"])
	assert.Equal(t, "POINT(1 2)", rows[0]["geom"])
	assert.Nil(t, rows[1]["name"])
	assert.Equal(t, created, rows[2]["geom"])
}

func TestSourceCursorOpenError(t *testing.T) {
	mock, _, newSrc := newMock(t)
	mock.ExpectQuery("select id from gone order by 1").WillReturnError(errors.New("Table 'test.gone' doesn't exist"))

	_, err := newSrc(&dialect.MysqlDialect{}).OpenCursor(context.Background(), "GONE", []string{"id"})
	var stmtErr *sqlexec.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "select id from gone order by 1", stmtErr.SQL)
}

func TestSourceCountRows(t *testing.T) {
	mock, _, newSrc := newMock(t)
	mock.ExpectQuery("select count(*) from orders").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1637))

	n, err := newSrc(&dialect.MysqlDialect{}).CountRows(context.Background(), "ORDERS")
	require.NoError(t, err)
	assert.EqualValues(t, 1637, n)
}

func TestParseOracleType(t *testing.T) {
	cases := []struct {
		dataType, owner string
		want            Type
	}{
		{"VARCHAR2", "", Type{Kind: KindCharacter}},
		{"CHAR", "", Type{Kind: KindCharacter}},
		{"DATE", "", Type{Kind: KindDateTime}},
		{"TIMESTAMP(6)", "", Type{Kind: KindDateTime}},
		{"NUMBER", "", Type{Kind: KindNumeric}},
		{"BLOB", "", Type{Kind: KindOther}},
		{"CLOB", "", Type{Kind: KindText}},
		{"NCLOB", "", Type{Kind: KindText}},
		{"LONG", "", Type{Kind: KindText}},
		{"SDO_GEOMETRY", "MDSYS", Type{Kind: KindNamed, Name: "MDSYS.SDO_GEOMETRY"}},
		{"XMLTYPE", "SYS", Type{Kind: KindNamed, Name: "SYS.XMLTYPE"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseOracleType(c.dataType, c.owner), "%s/%s", c.owner, c.dataType)
	}
}

func TestKindOrderIsReversible(t *testing.T) {
	assert.Equal(t, []ConstraintKind{Check, PrimaryKey, ForeignKey}, KindOrder(true))
	assert.Equal(t, []ConstraintKind{ForeignKey, PrimaryKey, Check}, KindOrder(false))
	// KindOrder(false) must not mutate the shared enable order.
	assert.Equal(t, []ConstraintKind{Check, PrimaryKey, ForeignKey}, EnableOrder)
}

func TestParseConstraintKind(t *testing.T) {
	for code, want := range map[string]ConstraintKind{"C": Check, "P": PrimaryKey, "R": ForeignKey} {
		got, err := ParseConstraintKind(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, code := range []string{"U", "V", "O", ""} {
		_, err := ParseConstraintKind(code)
		assert.ErrorIs(t, err, ErrUnknownConstraintKind)
	}
}

func TestScanErrorsCarryTheStatement(t *testing.T) {
	mock, newDst, newSrc := newMock(t)
	d := &dialect.OracleDialect{}

	mock.ExpectQuery("show tables").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_test"}).AddRow(nil))
	_, err := newSrc(&dialect.MysqlDialect{}).ListTables(context.Background())
	var stmtErr *sqlexec.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "show tables", stmtErr.SQL)

	mock.ExpectQuery(d.GetTablesQuery()).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("ORDERS"))
	mock.ExpectQuery(d.GetColumnsQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(columnHeader).AddRow("ID", "NUMBER", nil, "N", 10, 0, 0, 22))
	mock.ExpectQuery(d.GetConstraintsQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(constraintHeader))
	mock.ExpectQuery(d.GetTriggersQuery()).WithArgs("ORDERS").
		WillReturnRows(sqlmock.NewRows(triggerHeader).AddRow("ORDERS_BI", nil))

	err = newDst().Load(context.Background())
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, d.GetTriggersQuery(), stmtErr.SQL)
	assert.Equal(t, []any{"ORDERS"}, stmtErr.Args)
	require.NoError(t, mock.ExpectationsWereMet())
}
