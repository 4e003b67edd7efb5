package gen

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/erm/compiler/load"
	"github.com/syssam/erm/schema"
	"github.com/syssam/erm/schema/field"
)

// Graph holds the generator view of a schema file.
type Graph struct {
	*Config
	Components []*Type
	Archetypes []*Archetype
}

// Type is a generated component.
type Type struct {
	Name       string
	Comment    string
	Descriptor *schema.Descriptor
	Fields     []*Field
}

// Field is one column of a generated component.
type Field struct {
	Name     string
	Column   string
	Comment  string
	Type     field.Type
	Nullable bool
}

// Archetype is a generated composition.
type Archetype struct {
	Name    string
	Comment string
	Members []*Member
}

// Member is one field of a generated archetype.
type Member struct {
	Name     string
	Optional bool
}

// graphFile is the name of the package-level file.
const graphFile = "erm.go"

// NewGraph builds the generator graph of a validated schema.
func NewGraph(s *load.Schema, opts ...Option) (*Graph, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Package == "" {
		if !token.IsIdentifier(s.Package) {
			return nil, NewConfigError("Package", s.Package, "package must be a Go identifier")
		}
		cfg.Package = s.Package
	}
	var (
		g     = &Graph{Config: cfg}
		title = cases.Title(language.English, cases.NoLower)
		names = map[string]string{graphFile: "package"}
	)
	ident := func(kind, raw string) (string, error) {
		var b strings.Builder
		for _, p := range strings.FieldsFunc(raw, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
			b.WriteString(title.String(p))
		}
		name := b.String()
		if !token.IsIdentifier(name) || !token.IsExported(name) {
			return "", fmt.Errorf("%w: %s %q", ErrInvalidName, kind, raw)
		}
		return name, nil
	}
	declare := func(name string) error {
		file := fileName(name)
		if strings.HasSuffix(file, "_test.go") {
			return fmt.Errorf("%w: %q generates a test file", ErrInvalidName, name)
		}
		if other, ok := names[file]; ok {
			return fmt.Errorf("%w: %q and %q both generate %s", ErrInvalidName, other, name, file)
		}
		names[file] = name
		return nil
	}
	for _, c := range s.Components {
		name, err := ident("component", c.Name)
		if err != nil {
			return nil, err
		}
		if err := declare(name); err != nil {
			return nil, err
		}
		t := &Type{Name: name, Comment: c.Comment, Descriptor: c.Descriptor()}
		for i, f := range c.Fields {
			fname, err := ident("field", f.Name)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, &Field{
				Name:     fname,
				Column:   f.Column,
				Comment:  f.Comment,
				Type:     t.Descriptor.Columns[i].Type,
				Nullable: f.Nullable,
			})
		}
		g.Components = append(g.Components, t)
	}
	for _, a := range s.Archetypes {
		name, err := ident("archetype", a.Name)
		if err != nil {
			return nil, err
		}
		if err := declare(name); err != nil {
			return nil, err
		}
		at := &Archetype{Name: name, Comment: a.Comment}
		for _, m := range a.Members {
			mname, err := ident("member", m.Name)
			if err != nil {
				return nil, err
			}
			at.Members = append(at.Members, &Member{Name: mname, Optional: m.Optional})
		}
		g.Archetypes = append(g.Archetypes, at)
	}
	return g, nil
}

// Files returns the names of the files the graph generates.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.Components)+len(g.Archetypes)+1)
	for _, t := range g.Components {
		files = append(files, t.FileName())
	}
	for _, a := range g.Archetypes {
		files = append(files, a.FileName())
	}
	return append(files, graphFile)
}

// FileName returns the name of the generated file of the component.
func (t *Type) FileName() string { return fileName(t.Name) }

// DescriptorVar returns the name of the descriptor variable of the component.
func (t *Type) DescriptorVar() string {
	return strings.ToLower(t.Name[:1]) + t.Name[1:] + "Descriptor"
}

// FieldVar returns the name of the typed column variable of f.
func (t *Type) FieldVar(f *Field) string { return t.Name + f.Name }

// FileName returns the name of the generated file of the archetype.
func (a *Archetype) FileName() string { return fileName(a.Name) }

func fileName(name string) string {
	return inflect.Underscore(name) + ".go"
}
