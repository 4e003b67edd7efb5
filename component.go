package erm

import (
	"fmt"
	"reflect"

	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/dialect/sql/sqlgraph"
	"github.com/syssam/erm/schema"
)

// Component is a data record stored in its own table, one row per entity.
// It is implemented by pointers to the record type, usually by code that
// ermgen generates:
//
//	var nameDescriptor = schema.NewDescriptor("name",
//		schema.Column{Name: "name", Type: field.TypeString},
//	)
//
//	type Name struct{ Name string }
//
//	func (*Name) Descriptor() *schema.Descriptor { return nameDescriptor }
//	func (n *Name) Encode(s *sql.Statement)     { s.Bind(n.Name) }
//	func (n *Name) Decode(c *sql.Cursor) (err error) {
//		n.Name, err = sql.TryGet[string](c)
//		return err
//	}
type Component interface {
	// Descriptor returns the static table description of the component.
	Descriptor() *schema.Descriptor
	// Encode binds the fields in declared column order.
	Encode(s *sql.Statement)
	// Decode reads exactly one column per declared column.
	Decode(c *sql.Cursor) error
}

// Archetype is a composition of components that is read and written
// together. Components returns pointers to the parts in declaration order;
// a part is a Component, an *Option or a nested Archetype.
//
//	type Person struct {
//		Name Name
//		Age  Age
//	}
//
//	func (p *Person) Components() []any { return []any{&p.Name, &p.Age} }
type Archetype interface {
	Components() []any
}

// Option is a component that may be absent from a row. It is only
// meaningful on reads: an Option left-joins its table and decodes to an
// absent value when the row is missing.
type Option[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{Value: v, Valid: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

func (o *Option[T]) component() (Component, error) {
	c, ok := any(&o.Value).(Component)
	if !ok {
		return nil, fmt.Errorf("erm: Option[%T] does not hold a component", o.Value)
	}
	return c, nil
}

func (o *Option[T]) set(valid bool) {
	o.Valid = valid
	if !valid {
		var zero T
		o.Value = zero
	}
}

func (o *Option[T]) present() bool { return o.Valid }

// optional is implemented by *Option[T].
type optional interface {
	component() (Component, error)
	set(valid bool)
	present() bool
}

// part is one component of a walked value.
type part struct {
	comp Component
	opt  optional // nil for required components
}

func (p part) desc() *schema.Descriptor { return p.comp.Descriptor() }

// walk calls fn for every component of v in declaration order. v is a
// pointer to a Component or an Archetype.
func walk(v any, fn func(part) error) error {
	switch v := v.(type) {
	case Component:
		return fn(part{comp: v})
	case optional:
		c, err := v.component()
		if err != nil {
			return err
		}
		return fn(part{comp: c, opt: v})
	case Archetype:
		for _, p := range v.Components() {
			if err := walk(p, fn); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("erm: %T is neither a component nor an archetype", v)
	}
}

// parts returns the components of v in declaration order.
func parts(v any) ([]part, error) {
	var ps []part
	err := walk(v, func(p part) error {
		ps = append(ps, p)
		return nil
	})
	return ps, err
}

// descriptors returns the archetype descriptor of v. Optional parts are
// included.
func descriptors(v any) (schema.Archetype, error) {
	ps, err := parts(v)
	if err != nil {
		return nil, err
	}
	a := make(schema.Archetype, len(ps))
	for i, p := range ps {
		a[i] = p.desc()
	}
	return a, nil
}

// nodeOf returns the query tree of v: an Extract for a component and a
// Merge for an archetype, with Optional wrapping optional parts.
func nodeOf(v any) (sqlgraph.Node, error) {
	switch v := v.(type) {
	case Component:
		return sqlgraph.ExtractOf(v.Descriptor()), nil
	case optional:
		c, err := v.component()
		if err != nil {
			return nil, err
		}
		return &sqlgraph.Optional{Inner: sqlgraph.ExtractOf(c.Descriptor())}, nil
	case Archetype:
		ps := v.Components()
		m := &sqlgraph.Merge{Children: make([]sqlgraph.Node, len(ps))}
		for i, p := range ps {
			n, err := nodeOf(p)
			if err != nil {
				return nil, err
			}
			m.Children[i] = n
		}
		return m, nil
	default:
		return nil, fmt.Errorf("erm: %T is neither a component nor an archetype", v)
	}
}

// decode reads v from c. Components decode in declaration order, each
// consuming its declared number of columns. An optional part whose columns
// are all NULL is skipped and marked absent.
func decode(v any, c *sql.Cursor) error {
	return walk(v, func(p part) error {
		if p.opt != nil {
			if n := len(p.desc().Columns); c.SegmentNull(n) {
				c.Skip(n)
				p.opt.set(false)
				return nil
			}
		}
		start := c.Offset()
		if err := p.comp.Decode(c); err != nil {
			return err
		}
		if n, want := c.Offset()-start, len(p.desc().Columns); n != want {
			return fmt.Errorf("erm: %s decoded %d columns, want %d", p.desc().Table, n, want)
		}
		if p.opt != nil {
			p.opt.set(true)
		}
		return nil
	})
}

// encode binds the fields of p to s and checks the value count.
func encode(p part, s *sql.Statement) error {
	if p.opt != nil && !p.opt.present() {
		return fmt.Errorf("%w: %s", ErrOptionalWrite, p.desc().Table)
	}
	p.comp.Encode(s)
	if n, want := s.Bound(), len(p.desc().Columns); n != want {
		return fmt.Errorf("erm: %s encoded %d values, want %d", p.desc().Table, n, want)
	}
	return nil
}

// typeName returns the display name of the value type behind v.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// typeKey identifies the value type behind v in statement cache keys.
func typeKey(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
