package erm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/erm/dialect"
	"github.com/syssam/erm/dialect/sql"
	sqlschema "github.com/syssam/erm/dialect/sql/schema"
	"github.com/syssam/erm/dialect/sql/sqlgraph"
	"github.com/syssam/erm/schema"
	"github.com/syssam/erm/schema/field"
)

// Backend stores components keyed by entities of type E.
//
//	b := erm.New[int64](drv, nil)
//	if err := erm.Register[Person](ctx, b); err != nil {
//		return err
//	}
//	err := b.Insert(ctx, 1, &Person{Name: Name{"Jimothy"}, Age: Age{30}})
type Backend[E any] struct {
	drv     dialect.Driver
	dialect *sql.DialectBuilder
	log     *slog.Logger
}

// New returns a backend over drv. A nil logger logs to slog.Default.
func New[E any](drv dialect.Driver, log *slog.Logger) *Backend[E] {
	if log == nil {
		log = slog.Default()
	}
	return &Backend[E]{
		drv:     drv,
		dialect: sql.Dialect(drv.Dialect()),
		log:     log,
	}
}

// Driver returns the driver of the backend.
func (b *Backend[E]) Driver() dialect.Driver { return b.drv }

// Dialect returns the normalized dialect name of the backend.
func (b *Backend[E]) Dialect() string { return b.dialect.Name() }

// Close closes the underlying driver.
func (b *Backend[E]) Close() error { return b.drv.Close() }

// Ping verifies the connection to the database, when the driver supports it.
func (b *Backend[E]) Ping(ctx context.Context) error {
	p, ok := unwrapDriver(b.drv).(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return NewConnectionError("ping", err)
	}
	return nil
}

// unwrapDriver returns the innermost driver of a stats or debug stack.
func unwrapDriver(drv dialect.Driver) dialect.Driver {
	for {
		switch d := drv.(type) {
		case *sql.StatsDriver:
			drv = d.Driver
		case *sql.DebugDriver:
			drv = d.Driver
		default:
			return drv
		}
	}
}

// Register creates the tables of every component in T. Tables that already
// exist are left untouched, so Register is idempotent.
func Register[T any, E any](ctx context.Context, b *Backend[E]) error {
	return b.register(ctx, new(T))
}

// RegisterAll creates the tables of every given component or archetype
// concurrently. vs are pointers, e.g. RegisterAll(ctx, b, &Person{}, &Pet{}).
func RegisterAll[E any](ctx context.Context, b *Backend[E], vs ...any) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, v := range vs {
		g.Go(func() error {
			return b.register(ctx, v)
		})
	}
	return g.Wait()
}

func (b *Backend[E]) register(ctx context.Context, v any) error {
	typ := typeName(v)
	a, err := descriptors(v)
	if err != nil {
		return err
	}
	res := sqlschema.ValidateArchetype(a)
	for _, w := range res.Warnings {
		b.log.WarnContext(ctx, "erm: component descriptor", "type", typ, "table", w.Table, "warning", w.Message)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("erm: register %s: %w", typ, err)
	}
	entity := field.TypeOf[E]()
	for _, d := range a {
		k := cacheKey{Op: "create", Dialect: b.Dialect(), Tree: tableKey(d), Cond: entity.String()}
		query := statements.text(k, func() string { return b.dialect.CreateTable(d, entity) })
		if err := b.drv.Exec(ctx, query, []any{}, nil); err != nil {
			b.log.WarnContext(ctx, "erm: register failed", "op", "register", "table", d.Table, "error", err)
			return queryError(typ, "register", query, err)
		}
		b.log.DebugContext(ctx, "erm: component registered", "type", typ, "table", d.Table)
	}
	return nil
}

// Insert writes every component of v for entity e in one transaction. v is
// a pointer to a component or archetype; no rows are written if any insert
// fails.
func (b *Backend[E]) Insert(ctx context.Context, e E, v any) error {
	return b.write(ctx, "insert", e, v)
}

// Update overwrites every component of v for entity e in one transaction.
// Marker components have no columns and are skipped.
func (b *Backend[E]) Update(ctx context.Context, e E, v any) error {
	return b.write(ctx, "update", e, v)
}

// Spawn inserts v for a newly generated entity and returns the entity.
// It requires a string or UUID entity type.
func (b *Backend[E]) Spawn(ctx context.Context, v any) (E, error) {
	e, err := NewEntity[E]()
	if err != nil {
		return e, err
	}
	return e, b.Insert(ctx, e, v)
}

func (b *Backend[E]) write(ctx context.Context, op string, e E, v any) error {
	var batch Batch
	err := walk(v, func(p part) error {
		d := p.desc()
		k := cacheKey{Op: op, Dialect: b.Dialect(), Tree: tableKey(d)}
		var query string
		switch op {
		case "insert":
			query = statements.text(k, func() string { return b.dialect.Insert(d) })
		default:
			query = statements.text(k, func() string { return b.dialect.Update(d) })
			if query == "" {
				return nil
			}
		}
		s := sql.NewStatement(query, e)
		if op == "update" && b.dialect.EntityLast() {
			s.EntityLast()
		}
		if err := encode(p, s); err != nil {
			return err
		}
		batch.Add(s)
		return nil
	})
	if err != nil {
		return err
	}
	if err := batch.Exec(ctx, b.drv); err != nil {
		b.log.WarnContext(ctx, "erm: write failed", "op", op, "type", typeName(v), "entity", e, "error", err)
		return err
	}
	return nil
}

// Remove deletes every component of T for entity e in one transaction.
// Missing rows are not an error.
func Remove[T any, E any](ctx context.Context, b *Backend[E], e E) error {
	var batch Batch
	err := walk(new(T), func(p part) error {
		d := p.desc()
		k := cacheKey{Op: "delete", Dialect: b.Dialect(), Tree: d.Table}
		query := statements.text(k, func() string { return b.dialect.Delete(d) })
		batch.Add(sql.NewStatement(query, e))
		return nil
	})
	if err != nil {
		return err
	}
	if err := batch.Exec(ctx, b.drv); err != nil {
		b.log.WarnContext(ctx, "erm: write failed", "op", "remove", "type", typeName(new(T)), "entity", e, "error", err)
		return err
	}
	return nil
}

// Get returns the T stored for entity e. A *NotFoundError is returned when
// any required component of T is missing.
func Get[T any, E any](ctx context.Context, b *Backend[E], e E) (T, error) {
	var v T
	typ := typeName(&v)
	n, err := nodeOf(&v)
	if err != nil {
		return v, err
	}
	k := cacheKey{Op: "get", Dialect: b.Dialect(), Type: typeKey(&v), Tree: n.Name()}
	q, err := statements.query(k, func() (*cachedQuery, error) {
		return compile(b.Dialect(), &sqlgraph.Filter{Inner: n, Column: schema.EntityColumn}, nil)
	})
	if err != nil {
		return v, err
	}
	err = sql.QueryOne(ctx, b.drv, q.Text, []any{e}, func(c *sql.Cursor) error {
		c.Skip(1)
		if err := decode(&v, c); err != nil {
			return err
		}
		if n := c.Remaining(); n != 0 {
			return fmt.Errorf("erm: %s left %d columns undecoded", typ, n)
		}
		return nil
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return v, NewNotFoundError(typ, e)
	case IsDecodeError(err):
		return v, err
	case err != nil:
		return v, queryError(typ, "get", q.Text, err)
	}
	return v, nil
}

// tableKey identifies the table of d in cache keys, columns included.
func tableKey(d *schema.Descriptor) string {
	return fmt.Sprintf("%s%v", d.Table, d.Columns)
}

// compile renders the select statement of n with cond appended.
func compile(name string, n sqlgraph.Node, cond sql.Condition) (*cachedQuery, error) {
	p, err := sqlgraph.Compile(n)
	if err != nil {
		return nil, err
	}
	sb := sql.NewBuilder(name)
	p.Query(sb, cond)
	return &cachedQuery{Text: sb.String(), Filters: p.Placeholders(), Width: p.Width()}, nil
}
