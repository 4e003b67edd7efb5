package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnexpectedNull is wrapped by a DecodeError when a NULL is read into a
	// type that cannot hold it.
	ErrUnexpectedNull = errors.New("unexpected null")
	// ErrColumnRange is wrapped by a DecodeError when a read passes the last column.
	ErrColumnRange = errors.New("column offset out of range")
)

// DecodeError is returned when the column at a cursor offset cannot be
// decoded into the requested Go type.
type DecodeError struct {
	Offset int    // Column offset in the row.
	Column string // Column name, when the driver reports it.
	Type   string // Requested Go type.
	Err    error  // Underlying conversion error.
}

// Error returns the error string.
func (e *DecodeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("dialect/sql: decode column %d (%s) as %s: %v", e.Offset, e.Column, e.Type, e.Err)
	}
	return fmt.Sprintf("dialect/sql: decode column %d as %s: %v", e.Offset, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Cursor is a forward-only decoder over the columns of one result row.
// Every read consumes exactly one column; composed decoders share one cursor
// and read their segments left to right.
type Cursor struct {
	values []any
	names  []string
	offset int
}

// NewCursor returns a cursor positioned at the first of the given values.
// names is optional and only used in error messages.
func NewCursor(values []any, names ...string) *Cursor {
	return &Cursor{values: values, names: names}
}

// ScanCursor scans the current row of rows into a new Cursor.
func ScanCursor(rows ColumnScanner) (*Cursor, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	values := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("dialect/sql: scan: %w", err)
	}
	return NewCursor(values, names...), nil
}

// Offset returns the position of the next column to be read.
func (c *Cursor) Offset() int { return c.offset }

// Len returns the number of columns in the row.
func (c *Cursor) Len() int { return len(c.values) }

// Remaining returns the number of unread columns.
func (c *Cursor) Remaining() int {
	if c.offset >= len(c.values) {
		return 0
	}
	return len(c.values) - c.offset
}

// IsNull reports whether the current column is NULL without advancing.
// It returns false past the end of the row.
func (c *Cursor) IsNull() bool {
	return c.offset < len(c.values) && c.values[c.offset] == nil
}

// SegmentNull reports whether the next n columns are all NULL, without
// advancing. An empty segment is never null.
func (c *Cursor) SegmentNull(n int) bool {
	if n <= 0 || c.offset+n > len(c.values) {
		return false
	}
	for _, v := range c.values[c.offset : c.offset+n] {
		if v != nil {
			return false
		}
	}
	return true
}

// Skip advances the cursor by n columns without reading them.
func (c *Cursor) Skip(n int) {
	c.offset += n
}

func (c *Cursor) next() (any, int, error) {
	i := c.offset
	if i >= len(c.values) {
		return nil, i, ErrColumnRange
	}
	c.offset++
	return c.values[i], i, nil
}

func (c *Cursor) decodeError(i int, typ string, err error) error {
	e := &DecodeError{Offset: i, Type: typ, Err: err}
	if i < len(c.names) {
		e.Column = c.names[i]
	}
	return e
}

// TryGet reads the current column as T and advances the cursor by one.
// A NULL column is an error unless *T implements sql.Scanner.
func TryGet[T any](c *Cursor) (T, error) {
	var v T
	raw, i, err := c.next()
	if err != nil {
		return v, c.decodeError(i, typeName[T](), err)
	}
	if raw == nil {
		if s, ok := any(&v).(sql.Scanner); ok {
			if err := s.Scan(nil); err != nil {
				return v, c.decodeError(i, typeName[T](), err)
			}
			return v, nil
		}
		return v, c.decodeError(i, typeName[T](), ErrUnexpectedNull)
	}
	if v, err = convert[T](raw); err != nil {
		return v, c.decodeError(i, typeName[T](), err)
	}
	return v, nil
}

// TryGetNull reads the current column as a nullable T and advances the
// cursor by one. NULL decodes to nil.
func TryGetNull[T any](c *Cursor) (*T, error) {
	raw, i, err := c.next()
	if err != nil {
		return nil, c.decodeError(i, typeName[T](), err)
	}
	if raw == nil {
		return nil, nil
	}
	v, err := convert[T](raw)
	if err != nil {
		return nil, c.decodeError(i, typeName[T](), err)
	}
	return &v, nil
}

// convert coerces a driver value into T using the database/sql conversion
// rules, including sql.Scanner implementations of *T.
func convert[T any](raw any) (T, error) {
	if v, ok := raw.(T); ok {
		return v, nil
	}
	var n sql.Null[T]
	err := n.Scan(raw)
	return n.V, err
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
