package engine

import (
	"context"
	"fmt"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
)

// Verify counts destination rows for every successfully copied table and
// compares them with the number of rows copied.
func Verify(ctx context.Context, dst *schema.Destination, results []schema.CopyResult) []schema.CopyResult {
	verified := make([]schema.CopyResult, 0, len(results))
	for _, res := range results {
		if res.Status != schema.StatusOK {
			verified = append(verified, res)
			continue
		}

		count, err := countRows(ctx, dst, res.TableName)
		switch {
		case err != nil:
			res.Status = fmt.Sprintf("VERIFY_FAIL: %v", err)
		case count != res.Copied:
			res.Status = fmt.Sprintf("MISMATCH: %d/%d", count, res.Copied)
		default:
			res.Status = schema.StatusVerified
		}
		verified = append(verified, res)
	}
	return verified
}

func countRows(ctx context.Context, dst *schema.Destination, table string) (int, error) {
	query := dst.Dialect().CountQuery(table)
	rows, err := sqlexec.Query(ctx, dst.Conn(), query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int
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
