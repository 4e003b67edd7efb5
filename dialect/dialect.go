package dialect

import (
	"context"
	"strconv"
	"strings"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for erm backends.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Placeholder is the strategy used to render bound parameter tokens for one dialect.
type Placeholder interface {
	// Token returns the placeholder for the 1-based parameter position n.
	Token(n int) string
	// Numbered reports whether tokens carry their position.
	Numbered() bool
}

// Question renders every parameter as a single "?" token (SQLite, MySQL).
type Question struct{}

// Token implements Placeholder.
func (Question) Token(int) string { return "?" }

// Numbered implements Placeholder.
func (Question) Numbered() bool { return false }

// Dollar renders parameters as $1, $2, ... (PostgreSQL).
type Dollar struct{}

// Token implements Placeholder.
func (Dollar) Token(n int) string { return "$" + strconv.Itoa(n) }

// Numbered implements Placeholder.
func (Dollar) Numbered() bool { return true }

// PlaceholderFor returns the placeholder strategy for the given dialect name.
func PlaceholderFor(name string) Placeholder {
	if Normalize(name) == Postgres {
		return Dollar{}
	}
	return Question{}
}

// Normalize maps driver names and wrapped driver names to one of the dialect constants.
// Unknown names are returned as-is.
func Normalize(name string) string {
	switch {
	case strings.HasPrefix(name, Postgres), name == "pgx", strings.HasPrefix(name, "pgx/"):
		return Postgres
	case strings.HasPrefix(name, MySQL):
		return MySQL
	case strings.HasPrefix(name, "sqlite"):
		return SQLite
	}
	return name
}

// Supported reports whether name resolves to a known dialect.
func Supported(name string) bool {
	switch Normalize(name) {
	case MySQL, SQLite, Postgres:
		return true
	}
	return false
}
