package sql

import (
	"testing"

	"github.com/syssam/erm/dialect"
)

func BenchmarkDialectBuilder_Insert(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert(position)
			}
		})
	}
}

func BenchmarkDialectBuilder_Update(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Update(position)
			}
		})
	}
}

func BenchmarkCondition_Serialize(b *testing.B) {
	cond := Or(And(name.EQ("Jimothy"), age.GTE(18)), And(name.NEQ("Andrea"), age.LT(65)))
	for _, d := range []string{dialect.SQLite, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				bu := NewBuilder(d)
				cond.Serialize(bu)
				_ = bu.String()
			}
		})
	}
}

func BenchmarkCondition_Bind(b *testing.B) {
	cond := Or(And(name.EQ("Jimothy"), age.GTE(18)), And(name.NEQ("Andrea"), age.LT(65)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = cond.Bind(make([]any, 0, 4))
	}
}

func BenchmarkTryGet(b *testing.B) {
	row := []any{int64(1), "Jimothy", int64(10), 1.5}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := NewCursor(row)
		_, _ = TryGet[int64](c)
		_, _ = TryGet[string](c)
		_, _ = TryGet[int](c)
		_, _ = TryGet[float64](c)
	}
}
