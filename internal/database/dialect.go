package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Querier is the subset of *sql.DB and *sql.Tx used by repositories so the
// same statement helpers work inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures the handful of SQL differences between the supported
// databases.  Every query in the repository layer is written with `?`
// placeholders and passed through Rebind before execution.
type Dialect struct {
	Name   string // mysql, postgres or sqlite
	Driver string // database/sql driver name

	// lockRow is appended to a SELECT that must keep the row locked until
	// the surrounding transaction ends.  SQLite has no row locks; its
	// transactions are opened with BEGIN IMMEDIATE instead, which holds the
	// database write lock for the whole transaction.
	lockRow string
}

var (
	MySQL    = Dialect{Name: "mysql", Driver: "mysql", lockRow: " FOR UPDATE"}
	Postgres = Dialect{Name: "postgres", Driver: "postgres", lockRow: " FOR UPDATE"}
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite3"}
)

// DialectFor resolves a DB_DRIVER value.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported DB_DRIVER %q", name)
}

// Rebind rewrites `?` placeholders into the form the driver expects.
func (d Dialect) Rebind(query string) string {
	if d.Name != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ForUpdate appends the row-lock clause to a SELECT.
func (d Dialect) ForUpdate(query string) string {
	return query + d.lockRow
}

// MonthOf returns an expression yielding YYYY-MM for a DATE column.
func (d Dialect) MonthOf(col string) string {
	switch d.Name {
	case "postgres":
		return "to_char(" + col + ", 'YYYY-MM')"
	case "sqlite":
		return "substr(" + col + ", 1, 7)"
	default:
		return "DATE_FORMAT(" + col + ", '%Y-%m')"
	}
}

// InsertID executes an INSERT and returns the generated key.  Postgres has
// no LastInsertId so the statement is extended with RETURNING.
func (d Dialect) InsertID(ctx context.Context, q Querier, query, idCol string, args ...any) (uint64, error) {
	if d.Name == "postgres" {
		var id int64
		if err := q.QueryRowContext(ctx, d.Rebind(query)+" RETURNING "+idCol, args...).Scan(&id); err != nil {
			return 0, err
		}
		return uint64(id), nil
	}
	res, err := q.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
