package erm

import (
	"context"
	"fmt"
	"iter"

	"github.com/syssam/erm/dialect/sql"
	"github.com/syssam/erm/dialect/sql/sqlgraph"
	"github.com/syssam/erm/schema"
)

// Entry is one listed entity and its value.
type Entry[E, T any] struct {
	Entity E
	Value  T
}

// Query is the builder of a list of T values. It is not safe for
// concurrent modification, but a built query may be fetched many times.
//
//	adults := erm.List[Person](b).
//		With(&Animal{}).
//		Where(AgeField.GTE(18))
//	for e, err := range adults.Fetch(ctx) {
//		...
//	}
type Query[E, T any] struct {
	b       *Backend[E]
	with    []Component
	without []Component
	cond    sql.Condition

	entities   []E
	restricted bool
}

// List returns a query over every entity that has all required components
// of T.
func List[T any, E any](b *Backend[E]) *Query[E, T] {
	return &Query[E, T]{b: b}
}

// ListAll returns every T stored in b.
func ListAll[T any, E any](ctx context.Context, b *Backend[E]) ([]T, error) {
	return List[T](b).AllComponents(ctx)
}

// With restricts the query to entities that also have the given components.
// Their values are not projected.
func (q *Query[E, T]) With(cs ...Component) *Query[E, T] {
	q.with = append(q.with, cs...)
	return q
}

// Without restricts the query to entities that have none of the given
// components.
func (q *Query[E, T]) Without(cs ...Component) *Query[E, T] {
	q.without = append(q.without, cs...)
	return q
}

// Where sets the condition of the query, replacing any previous one.
func (q *Query[E, T]) Where(c sql.Condition) *Query[E, T] {
	q.cond = c
	return q
}

// And narrows the condition of the query with c.
func (q *Query[E, T]) And(c sql.Condition) *Query[E, T] {
	if q.cond == nil {
		return q.Where(c)
	}
	q.cond = q.cond.And(c)
	return q
}

// Or widens the condition of the query with c.
func (q *Query[E, T]) Or(c sql.Condition) *Query[E, T] {
	if q.cond == nil {
		return q.Where(c)
	}
	q.cond = q.cond.Or(c)
	return q
}

// Entities restricts the query to the given entities. It composes with the
// condition of the query. A query restricted to no entities matches nothing
// and is not sent to the database.
//
// The restriction renders one equality per entity, so every distinct count
// is a separate cached statement. Callers batching arbitrary key sets should
// bound the counts they use, as contrib/dataloader does.
func (q *Query[E, T]) Entities(es ...E) *Query[E, T] {
	q.entities = append(q.entities, es...)
	q.restricted = true
	return q
}

// condition returns the full condition of q, nil for every row.
func (q *Query[E, T]) condition() (sql.Condition, error) {
	switch {
	case q.restricted && len(q.entities) == 0:
		return sql.None(), nil
	case len(q.entities) == 0:
		return q.cond, nil
	}
	a, err := descriptors(new(T))
	if err != nil {
		return nil, err
	}
	eqs := make([]sql.Condition, len(q.entities))
	for i, e := range q.entities {
		eqs[i] = sql.EQ(a[0].Table, schema.EntityColumn, e)
	}
	c := sql.Or(eqs...)
	if q.cond != nil {
		c = c.And(q.cond)
	}
	return c, nil
}

// tree returns the query tree of q.
func (q *Query[E, T]) tree() (sqlgraph.Node, error) {
	n, err := nodeOf(new(T))
	if err != nil {
		return nil, err
	}
	for _, c := range q.with {
		n = &sqlgraph.Include{Base: n, Required: sqlgraph.ExtractOf(c.Descriptor())}
	}
	for _, c := range q.without {
		n = &sqlgraph.Exclude{Base: n, Excluded: sqlgraph.ExtractOf(c.Descriptor())}
	}
	return n, nil
}

// SQL returns the statement text and arguments of the query.
func (q *Query[E, T]) SQL() (string, []any, error) {
	n, err := q.tree()
	if err != nil {
		return "", nil, err
	}
	cond, err := q.condition()
	if err != nil {
		return "", nil, err
	}
	k := cacheKey{
		Op:      "list",
		Dialect: q.b.Dialect(),
		Type:    typeKey(new(T)),
		Tree:    n.Name(),
		Cond:    sql.Shape(cond),
	}
	c, err := statements.query(k, func() (*cachedQuery, error) {
		return compile(q.b.Dialect(), n, cond)
	})
	if err != nil {
		return "", nil, err
	}
	args := make([]any, 0, c.Filters)
	if cond != nil {
		args = cond.Bind(args)
	}
	return c.Text, args, nil
}

// Fetch streams the entities and values of the query. Rows are read lazily
// and closed when the loop ends. A failure is yielded once as the last
// element.
func (q *Query[E, T]) Fetch(ctx context.Context) iter.Seq2[Entry[E, T], error] {
	return func(yield func(Entry[E, T], error) bool) {
		var zero Entry[E, T]
		if q.restricted && len(q.entities) == 0 {
			return
		}
		typ := typeName(new(T))
		query, args, err := q.SQL()
		if err != nil {
			yield(zero, err)
			return
		}
		rows := &sql.Rows{}
		if err := q.b.drv.Query(ctx, query, args, rows); err != nil {
			yield(zero, queryError(typ, "list", query, err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEntry[E, T](rows, typ)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, queryError(typ, "list", query, err))
		}
	}
}

func scanEntry[E, T any](rows *sql.Rows, typ string) (Entry[E, T], error) {
	var e Entry[E, T]
	c, err := sql.ScanCursor(rows)
	if err != nil {
		return e, err
	}
	if e.Entity, err = sql.TryGet[E](c); err != nil {
		return e, err
	}
	if err := decode(&e.Value, c); err != nil {
		return e, err
	}
	if n := c.Remaining(); n != 0 {
		return e, fmt.Errorf("erm: %s left %d columns undecoded", typ, n)
	}
	return e, nil
}

// IDs streams the entities of the query.
func (q *Query[E, T]) IDs(ctx context.Context) iter.Seq2[E, error] {
	return Map(ctx, q, func(e Entry[E, T]) E { return e.Entity })
}

// Components streams the values of the query.
func (q *Query[E, T]) Components(ctx context.Context) iter.Seq2[T, error] {
	return Map(ctx, q, func(e Entry[E, T]) T { return e.Value })
}

// Map streams the entries of q transformed by fn.
func Map[E, T, R any](ctx context.Context, q *Query[E, T], fn func(Entry[E, T]) R) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		for e, err := range q.Fetch(ctx) {
			if err != nil {
				var zero R
				yield(zero, err)
				return
			}
			if !yield(fn(e), nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[V any](seq iter.Seq2[V, error]) ([]V, error) {
	var vs []V
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// All returns every entry of the query.
func (q *Query[E, T]) All(ctx context.Context) ([]Entry[E, T], error) {
	return Collect(q.Fetch(ctx))
}

// AllIDs returns every entity of the query.
func (q *Query[E, T]) AllIDs(ctx context.Context) ([]E, error) {
	return Collect(q.IDs(ctx))
}

// AllComponents returns every value of the query.
func (q *Query[E, T]) AllComponents(ctx context.Context) ([]T, error) {
	return Collect(q.Components(ctx))
}

// Count returns the number of entities matched by the query.
func (q *Query[E, T]) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range q.Fetch(ctx) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
