package erm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/erm"
	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/schema"
	"github.com/syssam/erm/schema/field"
)

var (
	nameDesc    = schema.NewDescriptor("name", schema.Column{Name: "name", Type: field.TypeString})
	ageDesc     = schema.NewDescriptor("age", schema.Column{Name: "age", Type: field.TypeInt64})
	animalDesc  = schema.NewDescriptor("animal")
	profileDesc = schema.NewDescriptor("profile",
		schema.Column{Name: "bio", Type: field.TypeString, Nullable: true},
		schema.Column{Name: "score", Type: field.TypeFloat64},
		schema.Column{Name: "verified", Type: field.TypeBool},
		schema.Column{Name: "tags", Type: field.TypeBytes},
	)
	orderDesc   = schema.NewDescriptor("order_number", schema.Column{Name: "number", Type: field.TypeString})
	paymentDesc = schema.NewDescriptor("payment", schema.Column{Name: "amount", Type: field.TypeFloat64})
	shippedDesc = schema.NewDescriptor("shipped_to", schema.Column{Name: "address", Type: field.TypeString})
)

var (
	NameField        = sql.NewField[string]("name", "name")
	AgeField         = sql.NewField[int64]("age", "age")
	OrderNumberField = sql.NewField[string]("order_number", "number")
)

type Name struct{ Name string }

func (*Name) Descriptor() *schema.Descriptor { return nameDesc }
func (n *Name) Encode(s *sql.Statement) { s.Bind(n.Name) }
func (n *Name) Decode(c *sql.Cursor) (err error) {
	n.Name, err = sql.TryGet[string](c)
	return err
}

type Age struct{ Age int64 }

func (*Age) Descriptor() *schema.Descriptor { return ageDesc }
func (a *Age) Encode(s *sql.Statement) { s.Bind(a.Age) }
func (a *Age) Decode(c *sql.Cursor) (err error) {
	a.Age, err = sql.TryGet[int64](c)
	return err
}

// Animal is a marker.
type Animal struct{}

func (*Animal) Descriptor() *schema.Descriptor { return animalDesc }
func (*Animal) Encode(*sql.Statement) {}
func (*Animal) Decode(*sql.Cursor) error { return nil }

type Profile struct {
	Bio      *string
	Score    float64
	Verified bool
	Tags     sql.Msgpack[[]string]
}

func (*Profile) Descriptor() *schema.Descriptor { return profileDesc }
func (p *Profile) Encode(s *sql.Statement) {
	s.Bind(p.Bio).Bind(p.Score).Bind(p.Verified).Bind(p.Tags)
}
func (p *Profile) Decode(c *sql.Cursor) (err error) {
	if p.Bio, err = sql.TryGetNull[string](c); err != nil {
		return err
	}
	if p.Score, err = sql.TryGet[float64](c); err != nil {
		return err
	}
	if p.Verified, err = sql.TryGet[bool](c); err != nil {
		return err
	}
	p.Tags, err = sql.TryGet[sql.Msgpack[[]string]](c)
	return err
}

type OrderNumber struct{ Number string }

func (*OrderNumber) Descriptor() *schema.Descriptor { return orderDesc }
func (o *OrderNumber) Encode(s *sql.Statement) { s.Bind(o.Number) }
func (o *OrderNumber) Decode(c *sql.Cursor) (err error) {
	o.Number, err = sql.TryGet[string](c)
	return err
}

type Payment struct{ Amount float64 }

func (*Payment) Descriptor() *schema.Descriptor { return paymentDesc }
func (p *Payment) Encode(s *sql.Statement) { s.Bind(p.Amount) }
func (p *Payment) Decode(c *sql.Cursor) (err error) {
	p.Amount, err = sql.TryGet[float64](c)
	return err
}

type ShippedTo struct{ Address string }

func (*ShippedTo) Descriptor() *schema.Descriptor { return shippedDesc }
func (s *ShippedTo) Encode(st *sql.Statement) { st.Bind(s.Address) }
func (s *ShippedTo) Decode(c *sql.Cursor) (err error) {
	s.Address, err = sql.TryGet[string](c)
	return err
}

type Person struct {
	Name Name
	Age  Age
}

func (p *Person) Components() []any { return []any{&p.Name, &p.Age} }

type Pet struct {
	Name   Name
	Animal Animal
}

func (p *Pet) Components() []any { return []any{&p.Name, &p.Animal} }

// Creature nests an archetype.
type Creature struct {
	Person  Person
	Profile Profile
}

func (c *Creature) Components() []any { return []any{&c.Person, &c.Profile} }

type Order struct {
	Number  OrderNumber
	Payment Payment
	Shipped ShippedTo
}

func (o *Order) Components() []any { return []any{&o.Number, &o.Payment, &o.Shipped} }

type PaidOrder struct {
	Number  OrderNumber
	Payment Payment
}

func (o *PaidOrder) Components() []any { return []any{&o.Number, &o.Payment} }

// OrderView reads orders with their optional parts.
type OrderView struct {
	Number  OrderNumber
	Payment erm.Option[Payment]
	Shipped erm.Option[ShippedTo]
}

func (o *OrderView) Components() []any { return []any{&o.Number, &o.Payment, &o.Shipped} }

// openBackend returns a backend over a private in-memory database with the
// given components registered.
func openBackend(t *testing.T, vs ...any) *erm.Backend[int64] {
	t.Helper()
	b, err := erm.OpenSQLite[int64](":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	require.NoError(t, erm.RegisterAll(context.Background(), b, vs...))
	return b
}

// seedPeople inserts Jimothy (10) as entity 1 and Andrea (32) as entity 2.
func seedPeople(t *testing.T, b *erm.Backend[int64]) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Insert(ctx, 1, &Person{Name: Name{"Jimothy"}, Age: Age{10}}))
	require.NoError(t, b.Insert(ctx, 2, &Person{Name: Name{"Andrea"}, Age: Age{32}}))
}

// seedOrders inserts a shipped order (1), a paid order (2) and an unpaid
// order (3).
func seedOrders(t *testing.T, b *erm.Backend[int64]) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Insert(ctx, 1, &Order{OrderNumber{"A-1"}, Payment{12.5}, ShippedTo{"1 Main St"}}))
	require.NoError(t, b.Insert(ctx, 2, &PaidOrder{OrderNumber{"A-2"}, Payment{40}}))
	require.NoError(t, b.Insert(ctx, 3, &OrderNumber{"A-3"}))
}
