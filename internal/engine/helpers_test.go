package engine

import (
	"bytes"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
	"github.com/stretchr/testify/require"
)

var oracle = &dialect.OracleDialect{}

type fixture struct {
	srcDB   *sql.DB
	srcMock sqlmock.Sqlmock
	dstDB   *sql.DB
	dstMock sqlmock.Sqlmock
	logs    *bytes.Buffer
	logger  *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srcDB, srcMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	dstDB, dstMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		srcDB.Close()
		dstDB.Close()
	})
	logs := &bytes.Buffer{}
	return &fixture{
		srcDB:   srcDB,
		srcMock: srcMock,
		dstDB:   dstDB,
		dstMock: dstMock,
		logs:    logs,
		logger:  slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func (f *fixture) source() *schema.Source {
	return schema.NewSource(f.srcDB, &dialect.MysqlDialect{})
}

func (f *fixture) destination(tables ...*schema.Table) *schema.Destination {
	return schema.NewDestinationSnapshot(f.dstDB, oracle, tables...)
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	require.NoError(t, f.srcMock.ExpectationsWereMet())
	require.NoError(t, f.dstMock.ExpectationsWereMet())
}

func (f *fixture) expectExec(stmt string) {
	f.dstMock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
}

func col(name string, kind schema.Kind) *schema.Column {
	return &schema.Column{Name: name, Type: schema.Type{Kind: kind}, Nullable: true}
}

func namedCol(name, typeName string) *schema.Column {
	return &schema.Column{Name: name, Type: schema.Type{Kind: schema.KindNamed, Name: typeName}, Nullable: true}
}

// ordersTable matches a MySQL table orders(id, name, geom).
func ordersTable() *schema.Table {
	return &schema.Table{
		Name: "ORDERS",
		Columns: []*schema.Column{
			col("ID", schema.KindNumeric),
			col("NAME", schema.KindCharacter),
			namedCol("GEOM", dialect.GeometryType),
		},
		Constraints: []*schema.Constraint{
			{Name: "FK_ORDERS_CUST", Table: "ORDERS", Kind: schema.ForeignKey, Enabled: true},
			{Name: "PK_ORDERS", Table: "ORDERS", Kind: schema.PrimaryKey, Enabled: true},
		},
		Triggers: []*schema.Trigger{{Name: "ORDERS_BI", Table: "ORDERS", Enabled: true}},
	}
}

func customersTable() *schema.Table {
	return &schema.Table{
		Name: "CUSTOMERS",
		Columns: []*schema.Column{
			col("ID", schema.KindNumeric),
			col("EMAIL", schema.KindCharacter),
		},
		Constraints: []*schema.Constraint{
			{Name: "CK_CUSTOMERS_EMAIL", Table: "CUSTOMERS", Kind: schema.Check, Enabled: true},
			{Name: "PK_CUSTOMERS", Table: "CUSTOMERS", Kind: schema.PrimaryKey, Enabled: true},
		},
	}
}

// idTable has a single numeric column so every insert renders identically.
func idTable(name string) *schema.Table {
	return &schema.Table{
		Name:    name,
		Columns: []*schema.Column{col("ID", schema.KindNumeric)},
	}
}

func idRows(n int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= n; i++ {
		rows.AddRow(i)
	}
	return rows
}
