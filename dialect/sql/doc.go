// Package sql provides the SQL building blocks of erm: the database/sql
// driver wrapper, component statement builders, the condition DSL and the
// row cursor used to decode composed components from one flat row.
//
// # Statements
//
// Component statements are rendered per dialect from a schema.Descriptor:
//
//	import "github.com/syssam/erm/dialect"
//
//	b := sql.Dialect(dialect.Postgres)
//	b.CreateTable(desc, field.TypeInt64) // create table if not exists position(entity bigint primary key, ...)
//	b.Insert(desc)                       // insert into position(entity, x, y) values($1, $2, $3)
//	b.Update(desc)                       // update position set x = $2, y = $3 where entity = $1
//	b.Delete(desc)                       // delete from position where entity = $1
//
// SQLite and MySQL use "?" placeholders, PostgreSQL uses "$n".
//
// # Conditions
//
// Conditions reference qualified columns and keep placeholder order equal to
// bind order:
//
//	age := sql.NewField[int64]("age", "age")
//	cond := sql.Or(age.LT(18), age.GTE(65))
//
//	b := sql.NewBuilder(dialect.Postgres)
//	cond.Serialize(b) // (age.age < $1 or age.age >= $2)
//	cond.Bind(nil)    // [18 65]
//
// Placeholders written through one Builder share a counter, so a condition
// appended after other parameters continues their numbering.
//
// # Cursors
//
// A Cursor walks the columns of one row from left to right:
//
//	c, err := sql.ScanCursor(rows)
//	id, err := sql.TryGet[int64](c)
//	nick, err := sql.TryGetNull[string](c) // nil on NULL
//
// # Instrumentation
//
// StatsDriver and DebugDriver wrap any dialect.Driver to count or log
// statements, and StatsCollector exports the counters to Prometheus.
package sql
