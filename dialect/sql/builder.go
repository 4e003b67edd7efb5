package sql

import (
	"strings"

	"github.com/syssam/erm/dialect"
	"github.com/syssam/erm/schema"
	"github.com/syssam/erm/schema/field"
)

// Builder is a SQL text builder that renders placeholders for one dialect.
// Placeholder positions are taken from a single counter, so every part of a
// statement written through the same Builder is numbered continuously.
type Builder struct {
	sb      strings.Builder
	dialect string
	ph      dialect.Placeholder
	total   int
}

// NewBuilder returns a Builder for the given dialect name.
func NewBuilder(name string) *Builder {
	name = dialect.Normalize(name)
	return &Builder{dialect: name, ph: dialect.PlaceholderFor(name)}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// WriteString appends s to the statement.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte appends c to the statement.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Ident appends a qualified column reference "table.column".
func (b *Builder) Ident(table, column string) *Builder {
	if table != "" {
		b.sb.WriteString(table)
		b.sb.WriteByte('.')
	}
	b.sb.WriteString(column)
	return b
}

// Arg appends the next placeholder token.
func (b *Builder) Arg() *Builder {
	b.total++
	b.sb.WriteString(b.ph.Token(b.total))
	return b
}

// Total returns the number of placeholders written so far.
func (b *Builder) Total() int { return b.total }

// String returns the statement text.
func (b *Builder) String() string { return b.sb.String() }

// DialectBuilder renders component statements for one dialect.
//
//	sql.Dialect(dialect.Postgres).Insert(desc)
//	// insert into position(entity, x, y) values($1, $2, $3)
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: dialect.Normalize(name)}
}

// Name returns the normalized dialect name.
func (d *DialectBuilder) Name() string { return d.dialect }

// CreateTable returns the DDL of a component table keyed by an entity column
// of the given type.
func (d *DialectBuilder) CreateTable(desc *schema.Descriptor, entity field.Type) string {
	b := NewBuilder(d.dialect)
	b.WriteString("create table if not exists ").WriteString(desc.Table).WriteByte('(')
	b.WriteString(schema.EntityColumn).WriteByte(' ').WriteString(entity.SQLType(d.dialect)).WriteString(" primary key")
	for _, c := range desc.Columns {
		b.WriteString(", ").WriteString(c.Name).WriteByte(' ').WriteString(c.Type.SQLType(d.dialect))
		if c.Nullable {
			b.WriteString(" null")
		} else {
			b.WriteString(" not null")
		}
	}
	return b.WriteByte(')').String()
}

// Insert returns the insert statement of a component row. The entity
// placeholder comes first, followed by the declared columns.
func (d *DialectBuilder) Insert(desc *schema.Descriptor) string {
	b := NewBuilder(d.dialect)
	b.WriteString("insert into ").WriteString(desc.Table).WriteByte('(').WriteString(schema.EntityColumn)
	for _, c := range desc.Columns {
		b.WriteString(", ").WriteString(c.Name)
	}
	b.WriteString(") values(").Arg()
	for range desc.Columns {
		b.WriteString(", ").Arg()
	}
	return b.WriteByte(')').String()
}

// Update returns the update statement of a component row, or "" for a
// marker component that has nothing to update. Numbered dialects refer to
// the entity as $1; the others bind it after the columns (see EntityLast).
func (d *DialectBuilder) Update(desc *schema.Descriptor) string {
	if desc.Marker() {
		return ""
	}
	b := NewBuilder(d.dialect)
	numbered := b.ph.Numbered()
	if numbered {
		// Reserve $1 for the entity key.
		b.total++
	}
	b.WriteString("update ").WriteString(desc.Table).WriteString(" set ")
	for i, c := range desc.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name).WriteString(" = ").Arg()
	}
	b.WriteString(" where ").WriteString(schema.EntityColumn).WriteString(" = ")
	if numbered {
		return b.WriteString(b.ph.Token(1)).String()
	}
	return b.Arg().String()
}

// EntityLast reports whether update statements of the dialect bind the
// entity key after the column values.
func (d *DialectBuilder) EntityLast() bool {
	return !dialect.PlaceholderFor(d.dialect).Numbered()
}

// Delete returns the delete statement of a component row.
func (d *DialectBuilder) Delete(desc *schema.Descriptor) string {
	b := NewBuilder(d.dialect)
	b.WriteString("delete from ").WriteString(desc.Table).
		WriteString(" where ").WriteString(schema.EntityColumn).WriteString(" = ")
	return b.Arg().String()
}

// Statement is a write statement for one component row. The entity key is
// held apart from the column values so that encoders bind columns only.
type Statement struct {
	query      string
	entity     any
	args       []any
	entityLast bool
}

// NewStatement returns a statement for query keyed by entity.
func NewStatement(query string, entity any) *Statement {
	return &Statement{query: query, entity: entity}
}

// EntityLast moves the entity key after the column values in Args.
func (s *Statement) EntityLast() *Statement {
	s.entityLast = true
	return s
}

// Bind appends the next column value.
func (s *Statement) Bind(v any) *Statement {
	s.args = append(s.args, v)
	return s
}

// Bound returns the number of column values bound so far.
func (s *Statement) Bound() int { return len(s.args) }

// Query returns the statement text.
func (s *Statement) Query() string { return s.query }

// Entity returns the entity key of the statement.
func (s *Statement) Entity() any { return s.entity }

// Args returns the bound arguments in placeholder order.
func (s *Statement) Args() []any {
	args := make([]any, 0, len(s.args)+1)
	if !s.entityLast {
		args = append(args, s.entity)
	}
	args = append(args, s.args...)
	if s.entityLast {
		args = append(args, s.entity)
	}
	return args
}
