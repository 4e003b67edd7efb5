package erm

import (
	stdsql "database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/dialect/sql/sqlgraph"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a lookup matches no rows.
	ErrNotFound = errors.New("erm: entity not found")

	// ErrOptionalWrite is returned when an absent Option is encoded for a write.
	ErrOptionalWrite = errors.New("erm: cannot write an absent optional component")

	// ErrInvalidTree is returned for compositions that cannot be queried.
	ErrInvalidTree = sqlgraph.ErrInvalidTree

	// ErrUnsupportedEntity is returned when entities of the backend's key
	// type cannot be generated or stored.
	ErrUnsupportedEntity = errors.New("erm: unsupported entity type")
)

// DecodeError is returned when a column cannot be decoded into a component
// field, including an unexpected NULL.
type DecodeError = sql.DecodeError

// IsDecodeError returns true if the error is a DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// NotFoundError is returned by Get when no row exists for the entity.
type NotFoundError struct {
	Type   string // Component or archetype type
	Entity any    // Entity that was looked up
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("erm: %s not found (entity=%v)", e.Type, e.Entity)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// NewNotFoundError returns a new NotFoundError.
func NewNotFoundError(typ string, entity any) *NotFoundError {
	return &NotFoundError{Type: typ, Entity: entity}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConnectionError reports a pool or transport failure.
type ConnectionError struct {
	Op  string // Operation (e.g., "begin", "ping", "open")
	Err error  // Underlying error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("erm: connection (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError returns a new ConnectionError.
func NewConnectionError(op string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Err: err}
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e)
}

// QueryError wraps an error reported by the database for a statement,
// such as malformed SQL or a constraint violation.
type QueryError struct {
	Type  string // Component or archetype type
	Op    string // Operation (e.g., "list", "get", "register")
	Query string // Statement text
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("erm: %s %s: %v", e.Op, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(typ, op, query string, err error) *QueryError {
	return &QueryError{Type: typ, Op: op, Query: query, Err: sqlgraph.WrapConstraint(err)}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// TransactionError is returned when a batch statement fails. The batch was
// rolled back before the error was returned.
type TransactionError struct {
	Index     int    // Index of the failed statement in the batch, or -1 for commit
	Statement string // Failed statement text
	Err       error  // Underlying error
	Rollback  error  // Rollback failure, if any
}

// Error returns the error string.
func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("erm: transaction statement %d (%s): %v", e.Index, e.Statement, e.Err)
	if e.Index < 0 {
		msg = fmt.Sprintf("erm: transaction commit: %v", e.Err)
	}
	if e.Rollback != nil {
		msg += fmt.Sprintf(" (rollback: %v)", e.Rollback)
	}
	return msg
}

// Unwrap returns the statement error and the rollback error.
func (e *TransactionError) Unwrap() []error {
	if e.Rollback != nil {
		return []error{e.Err, e.Rollback}
	}
	return []error{e.Err}
}

// NewTransactionError returns a new TransactionError.
func NewTransactionError(index int, stmt string, err, rollback error) *TransactionError {
	return &TransactionError{Index: index, Statement: stmt, Err: sqlgraph.WrapConstraint(err), Rollback: rollback}
}

// IsTransactionError returns true if the error is a TransactionError.
func IsTransactionError(err error) bool {
	if err == nil {
		return false
	}
	var e *TransactionError
	return errors.As(err, &e)
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Option  string // Option or YAML key
	Value   any    // Offending value, if any
	Message string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("erm: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("erm: config error for %q: %s", e.Option, e.Message)
}

// NewConfigError returns a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the error resulted from a database
// constraint violation, such as a duplicate entity.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *sqlgraph.ConstraintError
	return errors.As(err, &e) || sqlgraph.IsConstraintError(err)
}

// isConnError reports whether err was caused by the connection rather than
// the statement.
func isConnError(err error) bool {
	var ne net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, stdsql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.As(err, &ne)
}

// queryError classifies a failed statement.
func queryError(typ, op, query string, err error) error {
	if isConnError(err) {
		return NewConnectionError(op, err)
	}
	return NewQueryError(typ, op, query, err)
}
