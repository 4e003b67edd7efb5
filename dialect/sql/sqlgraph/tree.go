package sqlgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/erm/dialect"
	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/schema"
)

// ErrInvalidTree is returned by Compile for trees that cannot be flattened
// into one select statement.
var ErrInvalidTree = errors.New("sqlgraph: invalid query tree")

// Node is a node of a query tree. The set of implementations is closed:
// Extract, Merge, Include, Exclude, Optional and Filter.
//
// Trees are owned top-down and never share nodes. Name is deterministic, so
// two trees built independently for the same query have equal names.
type Node interface {
	Name() string
	node()
}

type (
	// Extract selects the given columns of one table.
	Extract struct {
		Table   string
		Columns []string
	}

	// Merge inner-joins its children on entity and projects their columns
	// in order. Optional children are left-joined.
	Merge struct {
		Children []Node
	}

	// Include projects Base and requires a Required row for the same entity.
	Include struct {
		Base     Node
		Required Node
	}

	// Exclude projects Base and requires that no Excluded row exists for
	// the same entity.
	Exclude struct {
		Base     Node
		Excluded Node
	}

	// Optional marks a branch that may be absent. Its projected segment is
	// all NULL when no row exists.
	Optional struct {
		Inner Node
	}

	// Filter adds "column = placeholder" on the base table of Inner.
	Filter struct {
		Inner  Node
		Column string
	}
)

// ExtractOf returns the Extract node of a component descriptor.
func ExtractOf(d *schema.Descriptor) *Extract {
	return &Extract{Table: d.Table, Columns: d.ColumnNames()}
}

// MergeOf returns a Merge of the given archetype, one Extract per component.
func MergeOf(a schema.Archetype) *Merge {
	m := &Merge{Children: make([]Node, len(a))}
	for i, d := range a {
		m.Children[i] = ExtractOf(d)
	}
	return m
}

func (n *Extract) Name() string { return n.Table }

func (n *Merge) Name() string {
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Name()
	}
	return "merge(" + strings.Join(names, ",") + ")"
}

func (n *Include) Name() string {
	return "include(" + n.Base.Name() + "," + n.Required.Name() + ")"
}

func (n *Exclude) Name() string {
	return "exclude(" + n.Base.Name() + "," + n.Excluded.Name() + ")"
}

func (n *Optional) Name() string { return "optional(" + n.Inner.Name() + ")" }

func (n *Filter) Name() string {
	return "filter(" + n.Inner.Name() + "," + n.Column + ")"
}

func (*Extract) node()  {}
func (*Merge) node()    {}
func (*Include) node()  {}
func (*Exclude) node()  {}
func (*Optional) node() {}
func (*Filter) node()   {}

// JoinKind is the kind of a join clause.
type JoinKind uint8

// Join kinds.
const (
	InnerJoin JoinKind = iota
	LeftJoin
)

func (k JoinKind) String() string {
	if k == LeftJoin {
		return "left join"
	}
	return "inner join"
}

type (
	// Projection is one selected column.
	Projection struct {
		Table  string
		Column string
	}

	// Join joins Table on "On.entity = Table.entity".
	Join struct {
		Kind  JoinKind
		Table string
		On    string
	}

	// Where is an extra predicate of the plan. A where with IsNull set is
	// the anti-join check of an excluded table; otherwise it compares Column
	// with a placeholder.
	Where struct {
		Table  string
		Column string
		IsNull bool
	}
)

// Plan is a flattened query tree: the base table, the projected columns in
// declared order, the joins in dependency order and the extra predicates.
type Plan struct {
	Base    string
	Columns []Projection
	Joins   []Join
	Wheres  []Where
}

// Compile flattens a query tree into a Plan. Joins are deduplicated by
// table: a table is joined at most once, and an inner requirement upgrades
// an existing left join of the same table.
func Compile(n Node) (*Plan, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrInvalidTree)
	}
	if _, ok := n.(*Optional); ok {
		return nil, fmt.Errorf("%w: optional root %s", ErrInvalidTree, n.Name())
	}
	p := &Plan{}
	if _, err := p.visit(n, "", InnerJoin, true); err != nil {
		return nil, err
	}
	return p, nil
}

// visit adds n to the plan. parent is the table n is joined to, kind the
// join kind of the enclosing branch and project whether the columns of n
// are selected. It returns the base table of n.
func (p *Plan) visit(n Node, parent string, kind JoinKind, project bool) (string, error) {
	switch n := n.(type) {
	case *Extract:
		if p.Base == "" {
			p.Base = n.Table
		} else {
			p.join(kind, n.Table, parent)
		}
		if project {
			for _, c := range n.Columns {
				p.Columns = append(p.Columns, Projection{Table: n.Table, Column: c})
			}
		}
		return n.Table, nil
	case *Merge:
		if len(n.Children) == 0 {
			return "", fmt.Errorf("%w: empty merge", ErrInvalidTree)
		}
		first, err := p.visit(n.Children[0], parent, kind, project)
		if err != nil {
			return "", err
		}
		for _, c := range n.Children[1:] {
			if _, err := p.visit(c, first, kind, project); err != nil {
				return "", err
			}
		}
		return first, nil
	case *Include:
		base, err := p.visit(n.Base, parent, kind, project)
		if err != nil {
			return "", err
		}
		if _, err := p.visit(n.Required, base, kind, false); err != nil {
			return "", err
		}
		return base, nil
	case *Exclude:
		if kind == LeftJoin {
			return "", fmt.Errorf("%w: exclude inside optional branch %s", ErrInvalidTree, n.Name())
		}
		base, err := p.visit(n.Base, parent, kind, project)
		if err != nil {
			return "", err
		}
		excluded, err := p.visit(n.Excluded, base, LeftJoin, false)
		if err != nil {
			return "", err
		}
		// The null check is taken from the right-hand key of the join that
		// brought the excluded table in.
		key := excluded
		if j := p.lookup(excluded); j != nil {
			key = j.Table
		}
		p.Wheres = append(p.Wheres, Where{Table: key, Column: schema.EntityColumn, IsNull: true})
		return base, nil
	case *Optional:
		if p.Base == "" {
			return "", fmt.Errorf("%w: optional base %s", ErrInvalidTree, n.Name())
		}
		before := len(p.Columns)
		base, err := p.visit(n.Inner, parent, LeftJoin, project)
		if err != nil {
			return "", err
		}
		if project && len(p.Columns) == before {
			return "", fmt.Errorf("%w: optional %s projects no columns", ErrInvalidTree, n.Inner.Name())
		}
		return base, nil
	case *Filter:
		if kind == LeftJoin {
			return "", fmt.Errorf("%w: filter inside optional branch %s", ErrInvalidTree, n.Name())
		}
		base, err := p.visit(n.Inner, parent, kind, project)
		if err != nil {
			return "", err
		}
		p.Wheres = append(p.Wheres, Where{Table: base, Column: n.Column})
		return base, nil
	default:
		return "", fmt.Errorf("%w: unexpected node %T", ErrInvalidTree, n)
	}
}

// join adds a join of table to on, unless table is already present.
func (p *Plan) join(kind JoinKind, table, on string) {
	if table == p.Base {
		return
	}
	if j := p.lookup(table); j != nil {
		if kind == InnerJoin {
			j.Kind = InnerJoin
		}
		return
	}
	if on == "" {
		on = p.Base
	}
	p.Joins = append(p.Joins, Join{Kind: kind, Table: table, On: on})
}

func (p *Plan) lookup(table string) *Join {
	for i := range p.Joins {
		if p.Joins[i].Table == table {
			return &p.Joins[i]
		}
	}
	return nil
}

// Placeholders returns the number of placeholders the plan writes before
// any appended condition.
func (p *Plan) Placeholders() int {
	n := 0
	for _, w := range p.Wheres {
		if !w.IsNull {
			n++
		}
	}
	return n
}

// Width returns the number of projected columns, excluding the entity.
func (p *Plan) Width() int { return len(p.Columns) }

// Query writes the select statement of the plan to b. A non-nil cond is
// appended to the where clause after the plan's own predicates, so its
// placeholders continue the numbering of the filter placeholders.
func (p *Plan) Query(b *sql.Builder, cond sql.Condition) {
	b.WriteString("select ").Ident(p.Base, schema.EntityColumn)
	for _, c := range p.Columns {
		b.WriteString(", ").Ident(c.Table, c.Column)
	}
	b.WriteString(" from ").WriteString(p.Base)
	for _, j := range p.Joins {
		b.WriteByte(' ').WriteString(j.Kind.String()).WriteByte(' ').WriteString(j.Table).
			WriteString(" on ").Ident(j.On, schema.EntityColumn).
			WriteString(" = ").Ident(j.Table, schema.EntityColumn)
	}
	if len(p.Wheres) == 0 && cond == nil {
		return
	}
	b.WriteString(" where ")
	for i, w := range p.Wheres {
		if i > 0 {
			b.WriteString(" and ")
		}
		b.Ident(w.Table, w.Column)
		if w.IsNull {
			b.WriteString(" is null")
		} else {
			b.WriteString(" = ").Arg()
		}
	}
	if cond != nil {
		if len(p.Wheres) > 0 {
			b.WriteString(" and ")
		}
		cond.Serialize(b)
	}
}

// String renders the plan with SQLite placeholders and no condition.
func (p *Plan) String() string {
	b := sql.NewBuilder(dialect.SQLite)
	p.Query(b, nil)
	return b.String()
}
