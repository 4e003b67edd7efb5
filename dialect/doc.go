// Package dialect provides database dialect abstraction for erm.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing erm backends to run on PostgreSQL, MySQL and SQLite.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Placeholders
//
// Bound parameters are rendered by a Placeholder strategy. SQLite and MySQL
// repeat a single "?" token; PostgreSQL numbers its tokens ($1, $2, ...), so
// every writer of SQL text must advance one shared counter in the same order
// arguments are bound:
//
//	p := dialect.PlaceholderFor(dialect.Postgres)
//	p.Token(1) // "$1"
//
// # Sub-packages
//
//   - dialect/sql: driver, row cursor, statement builders and conditions
//   - dialect/sql/schema: component descriptor validation
//   - dialect/sql/sqlgraph: query tree composition and constraint errors
package dialect
