package dialect

// Dialect abstracts the SQL a source engine needs for table discovery and
// ordered reads.
type Dialect interface {
	// Metadata Queries
	GetTablesQuery() string

	// Query Generation
	SelectQuery(table string, exprs []string) string
	CountQuery(table string) string
	GeometryText(column string) string // read expression turning a spatial column into WKT

	// Helpers
	NormalizeTableName(name string) string
}
