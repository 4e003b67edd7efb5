package field

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/erm/dialect"
)

// A Type represents a column type.
type Type uint8

// List of column types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time.Time",
	TypeJSON:    "json.RawMessage",
	TypeUUID:    "uuid.UUID",
	TypeBytes:   "[]byte",
	TypeEnum:    "string",
	TypeString:  "string",
	TypeOther:   "other",
	TypeInt:     "int",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
}

// String returns the Go type name of the column type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is known.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// ConstName returns the constant name of the type. It is used by the
// descriptor generator to reference types in generated code.
func (t Type) ConstName() string {
	switch {
	case !t.Valid():
		return "TypeInvalid"
	case t == TypeUUID:
		return "TypeUUID"
	case t == TypeJSON:
		return "TypeJSON"
	}
	name := typeNames[t]
	if t == TypeBytes {
		name = "bytes"
	} else if t == TypeTime {
		name = "time"
	} else if t == TypeEnum {
		name = "enum"
	}
	return "Type" + string(name[0]-'a'+'A') + name[1:]
}

// SQLType returns the column type used in DDL for the given dialect.
func (t Type) SQLType(name string) string {
	switch dialect.Normalize(name) {
	case dialect.Postgres:
		return postgresTypes[t]
	case dialect.MySQL:
		return mysqlTypes[t]
	default:
		return sqliteTypes[t]
	}
}

var sqliteTypes = [...]string{
	TypeInvalid: "blob",
	TypeBool:    "bool",
	TypeTime:    "datetime",
	TypeJSON:    "json",
	TypeUUID:    "uuid",
	TypeBytes:   "blob",
	TypeEnum:    "text",
	TypeString:  "text",
	TypeOther:   "blob",
	TypeInt:     "integer",
	TypeInt8:    "integer",
	TypeInt16:   "integer",
	TypeInt32:   "integer",
	TypeInt64:   "integer",
	TypeUint:    "integer",
	TypeUint8:   "integer",
	TypeUint16:  "integer",
	TypeUint32:  "integer",
	TypeUint64:  "integer",
	TypeFloat32: "real",
	TypeFloat64: "real",
	endTypes:    "blob",
}

var postgresTypes = [...]string{
	TypeInvalid: "bytea",
	TypeBool:    "boolean",
	TypeTime:    "timestamp with time zone",
	TypeJSON:    "jsonb",
	TypeUUID:    "uuid",
	TypeBytes:   "bytea",
	TypeEnum:    "character varying",
	TypeString:  "character varying",
	TypeOther:   "bytea",
	TypeInt:     "bigint",
	TypeInt8:    "smallint",
	TypeInt16:   "smallint",
	TypeInt32:   "integer",
	TypeInt64:   "bigint",
	TypeUint:    "bigint",
	TypeUint8:   "smallint",
	TypeUint16:  "integer",
	TypeUint32:  "bigint",
	TypeUint64:  "bigint",
	TypeFloat32: "real",
	TypeFloat64: "double precision",
	endTypes:    "bytea",
}

// MySQL cannot index unbounded text, so strings that may become keys are sized.
var mysqlTypes = [...]string{
	TypeInvalid: "blob",
	TypeBool:    "boolean",
	TypeTime:    "timestamp",
	TypeJSON:    "json",
	TypeUUID:    "char(36)",
	TypeBytes:   "blob",
	TypeEnum:    "varchar(255)",
	TypeString:  "varchar(255)",
	TypeOther:   "blob",
	TypeInt:     "bigint",
	TypeInt8:    "tinyint",
	TypeInt16:   "smallint",
	TypeInt32:   "int",
	TypeInt64:   "bigint",
	TypeUint:    "bigint unsigned",
	TypeUint8:   "tinyint unsigned",
	TypeUint16:  "smallint unsigned",
	TypeUint32:  "int unsigned",
	TypeUint64:  "bigint unsigned",
	TypeFloat32: "float",
	TypeFloat64: "double",
	endTypes:    "blob",
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// TypeOf returns the column type of the Go type T. It is used to infer the
// type of the entity column from the entity identifier type of a backend.
func TypeOf[T any]() Type {
	return typeOf(reflect.TypeOf((*T)(nil)).Elem())
}

func typeOf(rt reflect.Type) Type {
	switch rt {
	case timeType:
		return TypeTime
	case uuidType:
		return TypeUUID
	}
	switch rt.Kind() {
	case reflect.Pointer:
		return typeOf(rt.Elem())
	case reflect.Bool:
		return TypeBool
	case reflect.String:
		return TypeString
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
	}
	return TypeOther
}

// Parse returns the Type for its Go type name, as used in schema files.
func Parse(s string) (Type, error) {
	switch s {
	case "text":
		return TypeString, nil
	case "time":
		return TypeTime, nil
	case "uuid":
		return TypeUUID, nil
	case "bytes":
		return TypeBytes, nil
	case "json":
		return TypeJSON, nil
	case "enum":
		return TypeEnum, nil
	}
	for t := TypeBool; t < endTypes; t++ {
		if typeNames[t] == s && t != TypeEnum {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}
