// Package sqlexec wraps database/sql calls so that every failure carries the
// statement (and bound parameters) that caused it.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conn is a handle that can run statements and open transactions.
// Both *sql.DB and a pinned *sql.Conn satisfy it.
type Conn interface {
	Queryer
	Execer
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// StatementError is returned whenever a query or exec fails.
type StatementError struct {
	SQL  string
	Args []any
	Err  error
}

func (e *StatementError) Error() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("error executing: %s: %v", e.SQL, e.Err)
	}
	params := make([]string, len(e.Args))
	for i, a := range e.Args {
		params[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("error executing: %s. params are: [%s]: %v", e.SQL, strings.Join(params, ", "), e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Exec runs a statement and wraps any error with its text and parameters.
func Exec(ctx context.Context, e Execer, query string, args ...any) (sql.Result, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, &StatementError{SQL: query, Args: args, Err: err}
	}
	return res, nil
}

// Query runs a query and wraps any error with its text and parameters.
func Query(ctx context.Context, q Queryer, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StatementError{SQL: query, Args: args, Err: err}
	}
	return rows, nil
}
