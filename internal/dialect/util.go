package dialect

import (
	"fmt"
	"strings"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed and a function that returns the placeholder for a given index.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) []string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return placeholders
}

// DefaultSelectQuery reads every expression ordered by the first one, which
// keeps repeated copies of the same table deterministic.
func DefaultSelectQuery(table string, exprs []string) string {
	return fmt.Sprintf("select %s from %s order by 1", strings.Join(exprs, ", "), table)
}

// DefaultCountQuery counts the rows of a table.
func DefaultCountQuery(table string) string {
	return fmt.Sprintf("select count(*) from %s", table)
}

// DefaultNormalizeTableName lowercases a table name, the form source engines
// are addressed in.
func DefaultNormalizeTableName(name string) string {
	return strings.ToLower(name)
}
