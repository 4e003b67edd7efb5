package sql

import (
	"database/sql/driver"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack stores a structured Go value in a bytes column using the
// MessagePack encoding. Components use it for fields that have no native
// column type, such as slices and nested structs.
//
//	type Tags struct {
//		Values sql.Msgpack[[]string]
//	}
type Msgpack[T any] struct {
	V T
}

// NewMsgpack wraps v.
func NewMsgpack[T any](v T) Msgpack[T] {
	return Msgpack[T]{V: v}
}

// Value implements driver.Valuer.
func (m Msgpack[T]) Value() (driver.Value, error) {
	b, err := msgpack.Marshal(m.V)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: msgpack encode: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner. A NULL column leaves the zero value.
func (m *Msgpack[T]) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		var zero T
		m.V = zero
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("dialect/sql: msgpack: unsupported source type %T", src)
	}
	if err := msgpack.Unmarshal(b, &m.V); err != nil {
		return fmt.Errorf("dialect/sql: msgpack decode: %w", err)
	}
	return nil
}
