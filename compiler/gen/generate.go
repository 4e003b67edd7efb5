package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/erm/compiler/load"
	"github.com/syssam/erm/schema/field"
)

// Import paths referenced by generated code.
const (
	ermPkg    = "github.com/syssam/erm"
	sqlPkg    = "github.com/syssam/erm/dialect/sql"
	schemaPkg = "github.com/syssam/erm/schema"
	fieldPkg  = "github.com/syssam/erm/schema/field"
	uuidPkg   = "github.com/google/uuid"
)

// Generator renders the files of a graph with jennifer.
type Generator struct {
	graph   *Graph
	log     *slog.Logger
	metrics *WriterMetrics
}

// NewGenerator creates a generator for g.
func NewGenerator(g *Graph) *Generator {
	return &Generator{
		graph:   g,
		log:     slog.Default(),
		metrics: &WriterMetrics{},
	}
}

// WithLogger sets the logger used to report generated files.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	if l != nil {
		g.log = l
	}
	return g
}

// Metrics returns the generation metrics.
func (g *Generator) Metrics() *WriterMetrics {
	return g.metrics
}

// Generate writes every file of the graph to the target directory. Files
// are rendered in parallel, bounded by the configured workers.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.graph.Target, 0o755); err != nil {
		return NewGenerationError("write", g.graph.Target, "create target directory", err)
	}
	w := &writer{dir: g.graph.Target, metrics: g.metrics}

	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.graph.Workers)
	for _, t := range g.graph.Components {
		errg.Go(func() error {
			return w.write(ctx, g.component(t), t.FileName())
		})
	}
	for _, a := range g.graph.Archetypes {
		errg.Go(func() error {
			return w.write(ctx, g.archetype(a), a.FileName())
		})
	}
	errg.Go(func() error {
		return w.write(ctx, g.register(), graphFile)
	})
	if err := errg.Wait(); err != nil {
		return err
	}
	if g.graph.Prune && g.graph.Header != "" {
		removed, err := prune(g.graph.Target, "// "+g.graph.Header, g.graph.Files())
		if err != nil {
			return err
		}
		for _, name := range removed {
			g.log.Info("removed stale file", "file", name)
		}
	}
	g.log.Debug("generated package",
		"package", g.graph.Package,
		"target", g.graph.Target,
		"files", g.metrics.FilesGenerated,
	)
	return nil
}

// GenerateFile loads the schema file at path and generates its package.
func GenerateFile(ctx context.Context, path string, log *slog.Logger, opts ...Option) (*WriterMetrics, error) {
	s, err := load.Load(path)
	if err != nil {
		return nil, err
	}
	g, err := NewGraph(s, opts...)
	if err != nil {
		return nil, err
	}
	gen := NewGenerator(g).WithLogger(log)
	if err := gen.Generate(ctx); err != nil {
		return nil, err
	}
	return gen.Metrics(), nil
}

// newFile creates a new jennifer file with the header comment.
func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.graph.Package)
	if g.graph.Header != "" {
		f.HeaderComment(g.graph.Header)
	}
	f.ImportNames(map[string]string{
		ermPkg:    "erm",
		sqlPkg:    "sql",
		schemaPkg: "schema",
		fieldPkg:  "field",
		uuidPkg:   "uuid",
	})
	return f
}

// component renders a component struct, its descriptor, codec methods and
// typed columns.
func (g *Generator) component(t *Type) *jen.File {
	f := g.newFile()
	var (
		fields  []jen.Code
		columns []jen.Code
		encode  []jen.Code
		decode  []jen.Code
		vars    []jen.Code
	)
	for i, fd := range t.Fields {
		if fd.Comment != "" {
			fields = append(fields, jen.Comment(fd.Comment))
		}
		fields = append(fields, jen.Id(fd.Name).Add(goType(fd)))

		col := []jen.Code{
			jen.Id("Name").Op(":").Lit(fd.Column),
			jen.Id("Type").Op(":").Qual(fieldPkg, fd.Type.ConstName()),
		}
		if fd.Nullable {
			col = append(col, jen.Id("Nullable").Op(":").True())
		}
		columns = append(columns, jen.Qual(schemaPkg, "Column").Values(col...))

		encode = append(encode, jen.Id("s").Dot("Bind").Call(jen.Id("c").Dot(fd.Name)))

		get := "TryGet"
		if fd.Nullable {
			get = "TryGetNull"
		}
		read := jen.List(jen.Id("c").Dot(fd.Name), jen.Err()).Op("=").Qual(sqlPkg, get).Types(baseType(fd.Type)).Call(jen.Id("cur"))
		if i == len(t.Fields)-1 {
			decode = append(decode, read, jen.Return())
		} else {
			decode = append(decode, jen.If(read, jen.Err().Op("!=").Nil()).Block(jen.Return()))
		}

		vars = append(vars, jen.Id(t.FieldVar(fd)).Op("=").Qual(sqlPkg, "NewField").Types(baseType(fd.Type)).Call(
			jen.Lit(t.Descriptor.Table), jen.Lit(fd.Column),
		))
	}

	comment := t.Comment
	if comment == "" {
		comment = fmt.Sprintf("%s is the component stored in table %s.", t.Name, t.Descriptor.Table)
	}
	f.Comment(comment)
	f.Type().Id(t.Name).Struct(fields...)

	args := append([]jen.Code{jen.Lit(t.Descriptor.Table)}, columns...)
	f.Var().Id(t.DescriptorVar()).Op("=").Qual(schemaPkg, "NewDescriptor").Custom(jen.Options{
		Open:      "(",
		Close:     ")",
		Separator: ",",
		Multi:     len(columns) > 0,
	}, args...)

	f.Commentf("Descriptor returns the table descriptor of %s.", t.Name)
	f.Func().Params(jen.Op("*").Id(t.Name)).Id("Descriptor").Params().Op("*").Qual(schemaPkg, "Descriptor").Block(
		jen.Return(jen.Id(t.DescriptorVar())),
	)

	if len(t.Fields) == 0 {
		f.Comment("Encode implements erm.Component. Markers bind no columns.")
		f.Func().Params(jen.Op("*").Id(t.Name)).Id("Encode").Params(jen.Op("*").Qual(sqlPkg, "Statement")).Block()
		f.Comment("Decode implements erm.Component. Markers read no columns.")
		f.Func().Params(jen.Op("*").Id(t.Name)).Id("Decode").Params(jen.Op("*").Qual(sqlPkg, "Cursor")).Error().Block(
			jen.Return(jen.Nil()),
		)
		return f
	}

	f.Commentf("Encode binds the columns of %s in declaration order.", t.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(t.Name)).Id("Encode").Params(
		jen.Id("s").Op("*").Qual(sqlPkg, "Statement"),
	).Block(encode...)

	f.Commentf("Decode reads the columns of %s in declaration order.", t.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(t.Name)).Id("Decode").Params(
		jen.Id("cur").Op("*").Qual(sqlPkg, "Cursor"),
	).Params(jen.Err().Error()).Block(decode...)

	f.Commentf("Typed columns of %s, for use in conditions.", t.Name)
	f.Var().Defs(vars...)
	return f
}

// archetype renders an archetype struct and its Components method.
func (g *Generator) archetype(a *Archetype) *jen.File {
	f := g.newFile()
	var (
		fields  []jen.Code
		members []jen.Code
		names   []string
	)
	for _, m := range a.Members {
		typ := jen.Id(m.Name)
		if m.Optional {
			typ = jen.Qual(ermPkg, "Option").Types(jen.Id(m.Name))
		}
		fields = append(fields, jen.Id(m.Name).Add(typ))
		members = append(members, jen.Op("&").Id("a").Dot(m.Name))
		names = append(names, m.Name)
	}
	comment := a.Comment
	if comment == "" {
		comment = fmt.Sprintf("%s is composed of %s.", a.Name, joinNames(names))
	}
	f.Comment(comment)
	f.Type().Id(a.Name).Struct(fields...)

	f.Commentf("Components returns the members of %s in declaration order.", a.Name)
	f.Func().Params(jen.Id("a").Op("*").Id(a.Name)).Id("Components").Params().Index().Any().Block(
		jen.Return(jen.Index().Any().Values(members...)),
	)
	return f
}

// register renders the package-level Components and Register functions.
func (g *Generator) register() *jen.File {
	f := g.newFile()
	values := make([]jen.Code, len(g.graph.Components))
	for i, t := range g.graph.Components {
		values[i] = jen.Op("&").Id(t.Name).Values()
	}
	f.Comment("Components returns a new value of every component of the package.")
	f.Func().Id("Components").Params().Index().Any().Block(
		jen.Return(jen.Index().Any().Values(values...)),
	)

	f.Comment("Register creates the table of every component of the package.")
	f.Func().Id("Register").Types(jen.Id("E").Any()).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("b").Op("*").Qual(ermPkg, "Backend").Types(jen.Id("E")),
	).Error().Block(
		jen.Return(jen.Qual(ermPkg, "RegisterAll").Call(jen.Id("ctx"), jen.Id("b"), jen.Id("Components").Call().Op("..."))),
	)
	return f
}

// goType returns the Go type of a field, a pointer when nullable.
func goType(f *Field) jen.Code {
	if f.Nullable {
		return jen.Op("*").Add(baseType(f.Type))
	}
	return baseType(f.Type)
}

func baseType(t field.Type) jen.Code {
	switch t {
	case field.TypeBool:
		return jen.Bool()
	case field.TypeTime:
		return jen.Qual("time", "Time")
	case field.TypeJSON:
		return jen.Qual("encoding/json", "RawMessage")
	case field.TypeUUID:
		return jen.Qual(uuidPkg, "UUID")
	case field.TypeBytes:
		return jen.Index().Byte()
	case field.TypeString, field.TypeEnum:
		return jen.String()
	case field.TypeOther, field.TypeInvalid:
		return jen.Any()
	default:
		return jen.Id(t.String())
	}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " and " + names[len(names)-1]
}
