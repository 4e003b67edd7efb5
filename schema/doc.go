// Package schema holds the static metadata erm needs about components.
//
// A component is a plain Go value stored in its own table, keyed by an
// entity column. Its Descriptor names the table and lists the data columns in
// the order they are encoded and decoded:
//
//	var NameDescriptor = schema.NewDescriptor("name",
//	    schema.Column{Name: "name", Type: field.TypeString},
//	)
//
// Components without columns are markers: they exist only to tag entities and
// are queried with List(...).With and List(...).Without.
//
// An Archetype is an ordered list of descriptors; reading one joins every
// table on equal entity values.
package schema
