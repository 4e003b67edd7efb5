package schema

import (
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/erm/schema/field"
)

// EntityColumn is the name of the key column shared by all component tables.
const EntityColumn = "entity"

// Column describes one stored field of a component.
type Column struct {
	Name     string
	Type     field.Type
	Nullable bool
}

// Descriptor is the static description of a component table.
// Descriptors are created once and never mutated.
type Descriptor struct {
	Table   string
	Columns []Column
}

// NewDescriptor returns a descriptor for the given table and columns.
func NewDescriptor(table string, columns ...Column) *Descriptor {
	return &Descriptor{Table: table, Columns: columns}
}

// ColumnNames returns the names of the declared columns, in order.
func (d *Descriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Marker reports whether the component carries no data columns.
func (d *Descriptor) Marker() bool {
	return len(d.Columns) == 0
}

// Archetype is an ordered list of component descriptors joined on entity.
type Archetype []*Descriptor

// Width returns the number of projected columns, excluding the entity column.
func (a Archetype) Width() int {
	var n int
	for _, d := range a {
		n += len(d.Columns)
	}
	return n
}

// Tables returns the table names in declaration order.
func (a Archetype) Tables() []string {
	tables := make([]string, len(a))
	for i, d := range a {
		tables[i] = d.Table
	}
	return tables
}

// TableName returns the default table name for a Go type: the snake-cased
// type name, e.g. ShippedTo becomes shipped_to.
func TableName(v any) string {
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	name := rt.Name()
	// Generic instantiations carry their type arguments in the name.
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return inflect.Underscore(name)
}
