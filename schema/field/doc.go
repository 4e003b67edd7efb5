// Package field defines the column types of component descriptors.
//
// A Type is dialect independent; SQLType renders it for DDL:
//
//	field.TypeString.SQLType(dialect.Postgres) // "character varying"
//	field.TypeInt64.SQLType(dialect.SQLite)    // "integer"
//
// The entity column type is inferred from the backend's identifier type:
//
//	field.TypeOf[int64]()     // TypeInt64
//	field.TypeOf[uuid.UUID]() // TypeUUID
//
// Schema files read by ermgen name types by their Go spelling ("string",
// "int64", "float64", "bool", "time", "uuid", "bytes", "json").
package field
