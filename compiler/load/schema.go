// Package load reads component schema files used by the descriptor generator.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/erm/schema"
	"github.com/syssam/erm/schema/field"
)

// Schema represents a schema file: the components and archetypes of one
// generated package.
type Schema struct {
	Package    string       `yaml:"package"`
	Components []*Component `yaml:"components"`
	Archetypes []*Archetype `yaml:"archetypes,omitempty"`
}

// Component represents one component table.
type Component struct {
	Name    string   `yaml:"name"`
	Table   string   `yaml:"table,omitempty"`
	Comment string   `yaml:"comment,omitempty"`
	Fields  []*Field `yaml:"fields,omitempty"`
}

// Field represents one column of a component.
type Field struct {
	Name     string `yaml:"name"`
	Column   string `yaml:"column,omitempty"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
	Comment  string `yaml:"comment,omitempty"`
}

// Archetype represents a composition of components and other archetypes.
type Archetype struct {
	Name    string    `yaml:"name"`
	Comment string    `yaml:"comment,omitempty"`
	Members []*Member `yaml:"components"`
}

// Member is one entry of an archetype. In schema files it is written as the
// member name, with a trailing "?" for optional components, or as a mapping:
//
//	components:
//	  - OrderNumber
//	  - Payment?
//	  - {name: ShippedTo, optional: true}
//
// A plain "Payment?" is not valid inside a flow list; quote it there:
// [OrderNumber, "Payment?"].
type Member struct {
	Name     string
	Optional bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Member) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		m.Name, m.Optional = strings.CutSuffix(strings.TrimSpace(s), "?")
	case yaml.MappingNode:
		var v struct {
			Name     string `yaml:"name"`
			Optional bool   `yaml:"optional"`
		}
		if err := n.Decode(&v); err != nil {
			return err
		}
		for i := 0; i < len(n.Content); i += 2 {
			if k := n.Content[i].Value; k != "name" && k != "optional" {
				return fmt.Errorf("line %d: unknown archetype member key %q", n.Content[i].Line, k)
			}
		}
		m.Name, m.Optional = strings.TrimSpace(v.Name), v.Optional
	default:
		return fmt.Errorf("line %d: archetype member must be a name or a mapping", n.Line)
	}
	if m.Name == "" {
		return fmt.Errorf("line %d: empty archetype member", n.Line)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Member) MarshalYAML() (any, error) {
	if m.Optional {
		return m.Name + "?", nil
	}
	return m.Name, nil
}

// ErrInvalidSchema is returned for schema files that fail validation.
var ErrInvalidSchema = errors.New("load: invalid schema")

// Load reads and validates the schema file at path.
func Load(path string) (*Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema: %w", err)
	}
	s, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a schema document. Unknown keys are rejected.
func Parse(buf []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	s := &Schema{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("load: parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate fills in default table and column names and checks the schema:
// names are unique, field types are known, archetype members resolve, and
// archetypes neither recurse nor list a component twice.
func (s *Schema) Validate() error {
	if s.Package == "" {
		return invalid("missing package name")
	}
	names := make(map[string]bool)
	tables := make(map[string]string)
	for _, c := range s.Components {
		if c.Name == "" {
			return invalid("component without a name")
		}
		if names[c.Name] {
			return invalid("duplicate name %q", c.Name)
		}
		names[c.Name] = true
		if c.Table == "" {
			c.Table = inflect.Underscore(c.Name)
		}
		if other, ok := tables[c.Table]; ok {
			return invalid("components %q and %q share table %q", other, c.Name, c.Table)
		}
		tables[c.Table] = c.Name
		columns := make(map[string]bool)
		for _, f := range c.Fields {
			if f.Name == "" {
				return invalid("component %q: field without a name", c.Name)
			}
			if f.Column == "" {
				f.Column = inflect.Underscore(f.Name)
			}
			if f.Column == schema.EntityColumn || columns[f.Column] {
				return invalid("component %q: column %q is reserved or duplicated", c.Name, f.Column)
			}
			columns[f.Column] = true
			if _, err := field.Parse(f.Type); err != nil {
				return invalid("component %q field %q: %v", c.Name, f.Name, err)
			}
		}
	}
	for _, a := range s.Archetypes {
		if a.Name == "" {
			return invalid("archetype without a name")
		}
		if names[a.Name] {
			return invalid("duplicate name %q", a.Name)
		}
		names[a.Name] = true
		if len(a.Members) == 0 {
			return invalid("archetype %q has no components", a.Name)
		}
	}
	for _, a := range s.Archetypes {
		if _, err := s.Flatten(a.Name); err != nil {
			return err
		}
	}
	return nil
}

// Component returns the component with the given name, or nil.
func (s *Schema) Component(name string) *Component {
	for _, c := range s.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Descriptor returns the runtime descriptor of the component. The schema
// must have been validated.
func (c *Component) Descriptor() *schema.Descriptor {
	columns := make([]schema.Column, len(c.Fields))
	for i, f := range c.Fields {
		typ, _ := field.Parse(f.Type)
		columns[i] = schema.Column{Name: f.Column, Type: typ, Nullable: f.Nullable}
	}
	return schema.NewDescriptor(c.Table, columns...)
}

// Archetype returns the archetype with the given name, or nil.
func (s *Schema) Archetype(name string) *Archetype {
	for _, a := range s.Archetypes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Flatten returns the components an archetype resolves to, depth first in
// declaration order.
func (s *Schema) Flatten(name string) ([]*Component, error) {
	var (
		out  []*Component
		seen = make(map[string]bool)
	)
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		a := s.Archetype(name)
		for _, p := range path {
			if p == name {
				return invalid("archetype %q recurses through %s", name, strings.Join(append(path, name), " -> "))
			}
		}
		path = append(path, name)
		for _, m := range a.Members {
			if c := s.Component(m.Name); c != nil {
				if m.Optional && len(c.Fields) == 0 {
					return invalid("archetype %q: optional component %q has no columns", name, c.Name)
				}
				if seen[c.Name] {
					return invalid("archetype %q lists component %q more than once", path[0], c.Name)
				}
				seen[c.Name] = true
				out = append(out, c)
				continue
			}
			if s.Archetype(m.Name) == nil {
				return invalid("archetype %q: unknown member %q", name, m.Name)
			}
			if m.Optional {
				return invalid("archetype %q: optional member %q must be a component", name, m.Name)
			}
			if err := visit(m.Name, path); err != nil {
				return err
			}
		}
		return nil
	}
	if s.Archetype(name) == nil {
		return nil, invalid("unknown archetype %q", name)
	}
	if err := visit(name, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSchema, fmt.Sprintf(format, args...))
}
