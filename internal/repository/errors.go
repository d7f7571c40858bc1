// Package repository holds the MySQL data access for users, the movie
// catalog, seats and bookings.  Errors shared between repositories are
// defined here so the service layer can tell failure scenarios apart
// with errors.Is.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an INSERT or UPDATE violates a primary or
// unique key (MySQL error 1062).  For bookings it is the authoritative
// "seat already taken" signal; for users it means the ID is in use.
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound is returned when a lookup by primary key yields no rows.
var ErrNotFound = errors.New("not found")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicate reports whether err is a MySQL duplicate-key error.
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the same query
// helper can run inside or outside a caller's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// count runs a SELECT count(*) statement and returns the result.
func count(ctx context.Context, q querier, query string, args ...interface{}) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
