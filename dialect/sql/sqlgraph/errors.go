package sqlgraph

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConstraintError wraps a driver error that was classified as a
// constraint violation.
type ConstraintError struct {
	msg  string
	wrap error
}

// NewConstraintError returns a ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) *ConstraintError {
	return &ConstraintError{msg: msg, wrap: wrap}
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return "sqlgraph: constraint failed: " + e.msg
}

// Unwrap implements the errors.Wrapper interface.
func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// WrapConstraint wraps err in a ConstraintError if it is a constraint
// violation, and returns it unchanged otherwise.
func WrapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}
	if IsConstraintError(err) {
		return NewConstraintError(err.Error(), err)
	}
	return err
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// sqliteCoder is implemented by modernc.org/sqlite errors.
type sqliteCoder interface {
	Code() int
}

// sqlStateError is implemented by pgx errors.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlBadNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// classify matches err against the typed errors of each supported driver,
// falling back to the message text.
func classify(err error, pg []string, my []uint16, lite []int, msgs ...string) bool {
	if err == nil {
		return false
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) && slices.Contains(pg, string(pqe.Code)) {
		return true
	}
	if e, ok := asError[sqlStateError](err); ok && slices.Contains(pg, e.SQLState()) {
		return true
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) && slices.Contains(my, mye.Number) {
		return true
	}
	if e, ok := asError[sqliteCoder](err); ok && slices.Contains(lite, e.Code()) {
		return true
	}
	return containsAny(err.Error(), msgs...)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness
// constraint violation, including a duplicate entity key.
func IsUniqueConstraintError(err error) bool {
	return classify(err,
		[]string{pgUniqueViolation},
		[]uint16{mysqlDuplicateEntry},
		[]int{sqliteConstraintUnique, sqliteConstraintPrimaryKey},
		"Error 1062",                 // MySQL
		"violates unique constraint", // Postgres
		"UNIQUE constraint failed",   // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return classify(err,
		[]string{pgForeignKeyViolation},
		[]uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		[]int{sqliteConstraintForeignKey},
		"Error 1451",                      // MySQL parent row
		"Error 1452",                      // MySQL child row
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return classify(err,
		[]string{pgCheckViolation},
		[]uint16{mysqlCheckConstraintViolate},
		[]int{sqliteConstraintCheck},
		"Error 3819",                // MySQL
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
	)
}

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a not null column.
func IsNotNullConstraintError(err error) bool {
	return classify(err,
		[]string{pgNotNullViolation},
		[]uint16{mysqlBadNull},
		[]int{sqliteConstraintNotNull},
		"Error 1048",                   // MySQL
		"violates not-null constraint", // Postgres
		"NOT NULL constraint failed",   // SQLite
	)
}

// asError attempts to extract an error implementing interface T from the error tree.
func asError[T any](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
