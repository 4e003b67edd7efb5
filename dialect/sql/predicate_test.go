package sql

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erm/dialect"
)

var (
	age  = NewField[int64]("age", "age")
	name = NewField[string]("name", "name")
)

func TestCondition_Serialize(t *testing.T) {
	tests := []struct {
		name     string
		cond     Condition
		sqlite   string
		postgres string
		args     []any
	}{
		{
			name:     "all",
			cond:     All(),
			sqlite:   "1 = 1",
			postgres: "1 = 1",
		},
		{
			name:     "eq",
			cond:     name.Equals("Andrea"),
			sqlite:   "name.name = ?",
			postgres: "name.name = $1",
			args:     []any{"Andrea"},
		},
		{
			name:     "neq",
			cond:     name.NotEquals("Andrea"),
			sqlite:   "name.name <> ?",
			postgres: "name.name <> $1",
			args:     []any{"Andrea"},
		},
		{
			name:     "comparisons",
			cond:     And(age.GT(1), age.GTE(2), age.LT(3), age.LTE(4)),
			sqlite:   "(((age.age > ? and age.age >= ?) and age.age < ?) and age.age <= ?)",
			postgres: "(((age.age > $1 and age.age >= $2) and age.age < $3) and age.age <= $4)",
			args:     []any{int64(1), int64(2), int64(3), int64(4)},
		},
		{
			name:     "nested",
			cond:     name.EQ("Jimothy").Or(age.GreaterThanOrEquals(18).And(age.LessThan(65))),
			sqlite:   "(name.name = ? or (age.age >= ? and age.age < ?))",
			postgres: "(name.name = $1 or (age.age >= $2 and age.age < $3))",
			args:     []any{"Jimothy", int64(18), int64(65)},
		},
		{
			name:     "all and",
			cond:     All().And(age.LessThanOrEquals(9)),
			sqlite:   "(1 = 1 and age.age <= ?)",
			postgres: "(1 = 1 and age.age <= $1)",
			args:     []any{int64(9)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(dialect.SQLite)
			tt.cond.Serialize(b)
			assert.Equal(t, tt.sqlite, b.String())
			b = NewBuilder(dialect.Postgres)
			tt.cond.Serialize(b)
			assert.Equal(t, tt.postgres, b.String())
			assert.Equal(t, tt.args, tt.cond.Bind(nil))
			assert.Equal(t, tt.sqlite, Shape(tt.cond))
		})
	}
}

// Every placeholder must pair with the value bound at the same position,
// and numbering continues from placeholders written before the condition.
func TestCondition_PlaceholderOrder(t *testing.T) {
	cond := Or(
		And(name.EQ("a"), age.GT(1)),
		And(name.NEQ("b"), Or(age.LT(2), age.GTE(3))),
		age.LTE(4),
	)
	b := NewBuilder(dialect.Postgres)
	b.WriteString("age.entity = ").Arg().WriteString(" and ")
	cond.Serialize(b)
	args := cond.Bind([]any{int64(99)})

	re := regexp.MustCompile(`(\w+\.\w+) (?:=|<>|>|>=|<|<=) \$(\d+)`)
	matches := re.FindAllStringSubmatch(b.String(), -1)
	require.Len(t, matches, 7)
	require.Len(t, args, 7)
	assert.Equal(t, 7, b.Total())
	want := []any{int64(99), "a", int64(1), "b", int64(2), int64(3), int64(4)}
	assert.Equal(t, want, args)
	for i, m := range matches {
		n, err := strconv.Atoi(m[2])
		require.NoError(t, err)
		assert.Equal(t, i+1, n, "placeholders are numbered continuously in order")
		col := m[1]
		switch args[n-1].(type) {
		case string:
			assert.Equal(t, "name.name", col)
		case int64:
			if n > 1 {
				assert.Equal(t, "age.age", col)
			}
		}
	}
}

func TestCondition_Variadic(t *testing.T) {
	assert.Equal(t, All(), And())
	assert.Equal(t, All(), Or())
	c := age.EQ(1)
	assert.Equal(t, c, And(c))
	assert.Equal(t, "age.age", age.Name())
	assert.Empty(t, Shape(nil))
}

func TestCondition_None(t *testing.T) {
	assert.Equal(t, "1 = 0", Shape(None()))
	assert.Empty(t, None().Bind(nil))
	c := None().Or(age.GT(3))
	assert.Equal(t, "(1 = 0 or age.age > ?)", Shape(c))
	assert.Equal(t, []any{int64(3)}, c.Bind(nil))
}
