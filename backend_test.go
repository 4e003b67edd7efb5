package erm_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erm"
	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/dialect/sql/sqlgraph"
	"github.com/syssam/erm/schema"
)

func TestRegister_Idempotent(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Person{})
	require.NoError(t, erm.Register[Person](ctx, b))
	require.NoError(t, erm.Register[Name](ctx, b))
	require.NoError(t, erm.Register[Animal](ctx, b))
}

func TestRegister_InvalidDescriptor(t *testing.T) {
	b := openBackend(t)
	err := erm.Register[Twice](context.Background(), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed more than once")
}

// Twice lists the same component twice.
type Twice struct{ A, B Name }

func (t *Twice) Components() []any { return []any{&t.A, &t.B} }

func TestInsertGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Creature{})
	bio := "likes tea"
	tests := []struct {
		entity int64
		value  Creature
	}{
		{1, Creature{
			Person:  Person{Name{"Jimothy"}, Age{10}},
			Profile: Profile{Bio: &bio, Score: 4.5, Verified: true, Tags: sql.NewMsgpack([]string{"a", "b"})},
		}},
		{2, Creature{
			Person:  Person{Name{"Andrea"}, Age{32}},
			Profile: Profile{Score: -1, Tags: sql.NewMsgpack([]string{"x"})},
		}},
	}
	for _, tt := range tests {
		require.NoError(t, b.Insert(ctx, tt.entity, &tt.value))
	}
	for _, tt := range tests {
		got, err := erm.Get[Creature](ctx, b, tt.entity)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}
}

func TestScenario_People(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Person{})
	seedPeople(t, b)

	entries, err := erm.List[Person](b).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []erm.Entry[int64, Person]{
		{Entity: 1, Value: Person{Name{"Jimothy"}, Age{10}}},
		{Entity: 2, Value: Person{Name{"Andrea"}, Age{32}}},
	}, entries)

	require.NoError(t, erm.Remove[Person](ctx, b, 1))

	names, err := erm.ListAll[Name](ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []Name{{"Andrea"}}, names)

	age, err := erm.Get[Age](ctx, b, 2)
	require.NoError(t, err)
	assert.Equal(t, Age{32}, age)

	_, err = erm.Get[Person](ctx, b, 1)
	require.Error(t, err)
	assert.True(t, erm.IsNotFound(err))
	var nf *erm.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(1), nf.Entity)
	assert.Equal(t, "erm_test.Person", nf.Type)
}

func TestRemove_Missing(t *testing.T) {
	b := openBackend(t, &Person{})
	require.NoError(t, erm.Remove[Person](context.Background(), b, 42))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Person{}, &Pet{})
	seedPeople(t, b)

	require.NoError(t, b.Update(ctx, 2, &Person{Name{"Andrea"}, Age{33}}))
	got, err := erm.Get[Person](ctx, b, 2)
	require.NoError(t, err)
	assert.Equal(t, Person{Name{"Andrea"}, Age{33}}, got)

	// Markers have nothing to update.
	require.NoError(t, b.Insert(ctx, 3, &Pet{Name: Name{"Rex"}}))
	require.NoError(t, b.Update(ctx, 3, &Pet{Name: Name{"Max"}}))
	pet, err := erm.Get[Pet](ctx, b, 3)
	require.NoError(t, err)
	assert.Equal(t, "Max", pet.Name.Name)

	// Updating a missing row is not an error and writes nothing.
	require.NoError(t, b.Update(ctx, 9, &Name{"Ghost"}))
	_, err = erm.Get[Name](ctx, b, 9)
	assert.True(t, erm.IsNotFound(err))
}

// A failed statement in the middle of a batch leaves no rows behind.
func TestInsert_Atomic(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Pet{}, &Age{})
	require.NoError(t, b.Insert(ctx, 2, &Animal{}))

	err := b.Insert(ctx, 2, &Triple{Name{"Andrea"}, Animal{}, Age{32}})
	require.Error(t, err)
	var te *erm.TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Index)
	assert.Contains(t, te.Statement, "insert into animal")
	assert.True(t, erm.IsConstraintError(err))
	assert.True(t, sqlgraph.IsUniqueConstraintError(err))

	_, err = erm.Get[Name](ctx, b, 2)
	assert.True(t, erm.IsNotFound(err), "name row must be rolled back")
	_, err = erm.Get[Age](ctx, b, 2)
	assert.True(t, erm.IsNotFound(err), "age row must never be written")
	_, err = erm.Get[Animal](ctx, b, 2)
	assert.NoError(t, err, "pre-existing row must survive")
}

type Triple struct {
	Name   Name
	Animal Animal
	Age    Age
}

func (t *Triple) Components() []any { return []any{&t.Name, &t.Animal, &t.Age} }

func TestInsert_OptionalWrite(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Order{})
	err := b.Insert(ctx, 1, &OrderView{Number: OrderNumber{"A-1"}})
	require.ErrorIs(t, err, erm.ErrOptionalWrite)

	// Present options write their component.
	v := &OrderView{Number: OrderNumber{"A-1"}, Payment: erm.Some(Payment{3}), Shipped: erm.Some(ShippedTo{"here"})}
	require.NoError(t, b.Insert(ctx, 1, v))
	got, err := erm.Get[Order](ctx, b, 1)
	require.NoError(t, err)
	assert.Equal(t, Order{OrderNumber{"A-1"}, Payment{3}, ShippedTo{"here"}}, got)
}

func TestGet_Optional(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Order{})
	seedOrders(t, b)

	tests := []struct {
		entity int64
		want   OrderView
	}{
		{1, OrderView{OrderNumber{"A-1"}, erm.Some(Payment{12.5}), erm.Some(ShippedTo{"1 Main St"})}},
		{2, OrderView{OrderNumber{"A-2"}, erm.Some(Payment{40}), erm.None[ShippedTo]()}},
		{3, OrderView{OrderNumber{"A-3"}, erm.None[Payment](), erm.None[ShippedTo]()}},
	}
	for _, tt := range tests {
		got, err := erm.Get[OrderView](ctx, b, tt.entity)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := erm.Get[OrderView](ctx, b, 4)
	assert.True(t, erm.IsNotFound(err))
}

func TestGet_DecodeError(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, &Person{})
	seedPeople(t, b)
	_, err := erm.Get[Misread](ctx, b, 1)
	require.Error(t, err)
	assert.True(t, erm.IsDecodeError(err))
}

// Misread reads the name column as an integer.
type Misread struct{ N int64 }

func (*Misread) Descriptor() *schema.Descriptor { return nameDesc }
func (*Misread) Encode(*sql.Statement) {}
func (m *Misread) Decode(c *sql.Cursor) (err error) {
	m.N, err = sql.TryGet[int64](c)
	return err
}

func TestGet_UnregisteredTable(t *testing.T) {
	b := openBackend(t)
	_, err := erm.Get[Name](context.Background(), b, 1)
	require.Error(t, err)
	assert.True(t, erm.IsQueryError(err))
	assert.False(t, erm.IsNotFound(err))
}

func TestSpawn(t *testing.T) {
	ctx := context.Background()

	t.Run("string", func(t *testing.T) {
		b, err := erm.OpenSQLite[string](":memory:")
		require.NoError(t, err)
		defer b.Close()
		require.NoError(t, erm.Register[Person](ctx, b))
		e, err := b.Spawn(ctx, &Person{Name{"Jimothy"}, Age{10}})
		require.NoError(t, err)
		_, err = uuid.Parse(e)
		require.NoError(t, err)
		got, err := erm.Get[Person](ctx, b, e)
		require.NoError(t, err)
		assert.Equal(t, "Jimothy", got.Name.Name)
	})

	t.Run("uuid", func(t *testing.T) {
		b, err := erm.OpenSQLite[uuid.UUID](":memory:")
		require.NoError(t, err)
		defer b.Close()
		require.NoError(t, erm.Register[Name](ctx, b))
		a, err := b.Spawn(ctx, &Name{"a"})
		require.NoError(t, err)
		c, err := b.Spawn(ctx, &Name{"c"})
		require.NoError(t, err)
		assert.NotEqual(t, a, c)
		ids, err := erm.List[Name](b).AllIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{a, c}, ids)
	})

	t.Run("unsupported", func(t *testing.T) {
		b := openBackend(t, &Name{})
		_, err := b.Spawn(ctx, &Name{"a"})
		require.ErrorIs(t, err, erm.ErrUnsupportedEntity)
	})
}

func TestPing(t *testing.T) {
	b := openBackend(t)
	require.NoError(t, b.Ping(context.Background()))
	assert.Equal(t, "sqlite", b.Dialect())
}
