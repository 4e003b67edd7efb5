package sql

import (
	"github.com/syssam/erm/dialect"
)

// Op is a comparison operator.
type Op string

// Comparison operators.
const (
	OpEQ  Op = "="
	OpNEQ Op = "<>"
	OpGT  Op = ">"
	OpGTE Op = ">="
	OpLT  Op = "<"
	OpLTE Op = "<="
)

// Condition is a predicate tree over qualified columns. Serialize writes
// exactly one placeholder per leaf, and Bind appends the leaf values in the
// same left-to-right order.
//
// The set of implementations is closed: Tautology, Contradiction, Equality,
// Inequality, Comparison, Conjunction and Disjunction.
type Condition interface {
	// Serialize writes the predicate text to b.
	Serialize(b *Builder)
	// Bind appends the leaf values to args and returns the result.
	Bind(args []any) []any
	// And returns the conjunction of the receiver and c.
	And(c Condition) Condition
	// Or returns the disjunction of the receiver and c.
	Or(c Condition) Condition

	condition()
}

type (
	// Tautology is the always-true predicate. It binds nothing.
	Tautology struct{}

	// Contradiction is the always-false predicate. It binds nothing.
	Contradiction struct{}

	// Equality is "column = value".
	Equality struct {
		Table, Column string
		Value         any
	}

	// Inequality is "column <> value".
	Inequality struct {
		Table, Column string
		Value         any
	}

	// Comparison is "column op value" for an ordering operator.
	Comparison struct {
		Table, Column string
		Op            Op
		Value         any
	}

	// Conjunction is "(left and right)".
	Conjunction struct {
		Left, Right Condition
	}

	// Disjunction is "(left or right)".
	Disjunction struct {
		Left, Right Condition
	}
)

// All returns the always-true condition.
func All() Condition { return Tautology{} }

// None returns the always-false condition.
func None() Condition { return Contradiction{} }

// EQ returns the condition "table.column = v".
func EQ(table, column string, v any) Condition {
	return Equality{Table: table, Column: column, Value: v}
}

// NEQ returns the condition "table.column <> v".
func NEQ(table, column string, v any) Condition {
	return Inequality{Table: table, Column: column, Value: v}
}

// GT returns the condition "table.column > v".
func GT(table, column string, v any) Condition {
	return Comparison{Table: table, Column: column, Op: OpGT, Value: v}
}

// GTE returns the condition "table.column >= v".
func GTE(table, column string, v any) Condition {
	return Comparison{Table: table, Column: column, Op: OpGTE, Value: v}
}

// LT returns the condition "table.column < v".
func LT(table, column string, v any) Condition {
	return Comparison{Table: table, Column: column, Op: OpLT, Value: v}
}

// LTE returns the condition "table.column <= v".
func LTE(table, column string, v any) Condition {
	return Comparison{Table: table, Column: column, Op: OpLTE, Value: v}
}

// And folds the given conditions left to right into nested conjunctions.
// And() is All().
func And(cs ...Condition) Condition {
	return fold(cs, func(l, r Condition) Condition { return Conjunction{Left: l, Right: r} })
}

// Or folds the given conditions left to right into nested disjunctions.
// Or() is All().
func Or(cs ...Condition) Condition {
	return fold(cs, func(l, r Condition) Condition { return Disjunction{Left: l, Right: r} })
}

func fold(cs []Condition, join func(l, r Condition) Condition) Condition {
	if len(cs) == 0 {
		return All()
	}
	c := cs[0]
	for _, r := range cs[1:] {
		c = join(c, r)
	}
	return c
}

// Shape returns the text of c with value-free placeholders. Conditions with
// equal shapes serialize identically in every dialect.
func Shape(c Condition) string {
	if c == nil {
		return ""
	}
	b := NewBuilder(dialect.SQLite)
	c.Serialize(b)
	return b.String()
}

func (Tautology) Serialize(b *Builder) { b.WriteString("1 = 1") }
func (Tautology) Bind(args []any) []any { return args }
func (t Tautology) And(c Condition) Condition { return Conjunction{t, c} }
func (t Tautology) Or(c Condition) Condition { return Disjunction{t, c} }
func (Tautology) condition() {}

func (Contradiction) Serialize(b *Builder) { b.WriteString("1 = 0") }
func (Contradiction) Bind(args []any) []any { return args }
func (c Contradiction) And(o Condition) Condition { return Conjunction{c, o} }
func (c Contradiction) Or(o Condition) Condition { return Disjunction{c, o} }
func (Contradiction) condition() {}

func (e Equality) Serialize(b *Builder) { b.Ident(e.Table, e.Column).WriteString(" = ").Arg() }
func (e Equality) Bind(args []any) []any { return append(args, e.Value) }
func (e Equality) And(c Condition) Condition { return Conjunction{e, c} }
func (e Equality) Or(c Condition) Condition { return Disjunction{e, c} }
func (Equality) condition() {}

func (e Inequality) Serialize(b *Builder) { b.Ident(e.Table, e.Column).WriteString(" <> ").Arg() }
func (e Inequality) Bind(args []any) []any { return append(args, e.Value) }
func (e Inequality) And(c Condition) Condition { return Conjunction{e, c} }
func (e Inequality) Or(c Condition) Condition { return Disjunction{e, c} }
func (Inequality) condition() {}

func (e Comparison) Serialize(b *Builder) {
	b.Ident(e.Table, e.Column).WriteByte(' ').WriteString(string(e.Op)).WriteByte(' ').Arg()
}
func (e Comparison) Bind(args []any) []any { return append(args, e.Value) }
func (e Comparison) And(c Condition) Condition { return Conjunction{e, c} }
func (e Comparison) Or(c Condition) Condition { return Disjunction{e, c} }
func (Comparison) condition() {}

func (e Conjunction) Serialize(b *Builder) {
	b.WriteByte('(')
	e.Left.Serialize(b)
	b.WriteString(" and ")
	e.Right.Serialize(b)
	b.WriteByte(')')
}
func (e Conjunction) Bind(args []any) []any { return e.Right.Bind(e.Left.Bind(args)) }
func (e Conjunction) And(c Condition) Condition { return Conjunction{e, c} }
func (e Conjunction) Or(c Condition) Condition { return Disjunction{e, c} }
func (Conjunction) condition() {}

func (e Disjunction) Serialize(b *Builder) {
	b.WriteByte('(')
	e.Left.Serialize(b)
	b.WriteString(" or ")
	e.Right.Serialize(b)
	b.WriteByte(')')
}
func (e Disjunction) Bind(args []any) []any { return e.Right.Bind(e.Left.Bind(args)) }
func (e Disjunction) And(c Condition) Condition { return Conjunction{e, c} }
func (e Disjunction) Or(c Condition) Condition { return Disjunction{e, c} }
func (Disjunction) condition() {}

// Field is a typed column reference that builds conditions on one column.
//
// Usage:
//
//	var Age = sql.NewField[int64]("age", "age")
//	erm.List[Person](b).Where(Age.GTE(18))
type Field[T any] struct {
	Table  string
	Column string
}

// NewField returns a typed reference to table.column.
func NewField[T any](table, column string) Field[T] {
	return Field[T]{Table: table, Column: column}
}

// Name returns the qualified column name.
func (f Field[T]) Name() string { return f.Table + "." + f.Column }

// EQ returns a condition that checks if the field equals the given value.
func (f Field[T]) EQ(v T) Condition { return EQ(f.Table, f.Column, v) }

// NEQ returns a condition that checks if the field does not equal the given value.
func (f Field[T]) NEQ(v T) Condition { return NEQ(f.Table, f.Column, v) }

// GT returns a condition that checks if the field is greater than the given value.
func (f Field[T]) GT(v T) Condition { return GT(f.Table, f.Column, v) }

// GTE returns a condition that checks if the field is greater than or equal to the given value.
func (f Field[T]) GTE(v T) Condition { return GTE(f.Table, f.Column, v) }

// LT returns a condition that checks if the field is less than the given value.
func (f Field[T]) LT(v T) Condition { return LT(f.Table, f.Column, v) }

// LTE returns a condition that checks if the field is less than or equal to the given value.
func (f Field[T]) LTE(v T) Condition { return LTE(f.Table, f.Column, v) }

// Equals is an alias for EQ.
func (f Field[T]) Equals(v T) Condition { return f.EQ(v) }

// NotEquals is an alias for NEQ.
func (f Field[T]) NotEquals(v T) Condition { return f.NEQ(v) }

// GreaterThan is an alias for GT.
func (f Field[T]) GreaterThan(v T) Condition { return f.GT(v) }

// GreaterThanOrEquals is an alias for GTE.
func (f Field[T]) GreaterThanOrEquals(v T) Condition { return f.GTE(v) }

// LessThan is an alias for LT.
func (f Field[T]) LessThan(v T) Condition { return f.LT(v) }

// LessThanOrEquals is an alias for LTE.
func (f Field[T]) LessThanOrEquals(v T) Condition { return f.LTE(v) }
