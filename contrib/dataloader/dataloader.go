// Package dataloader batches erm lookups by entity.
//
// A Loader collects the entities requested during one request and fetches
// them with a single list query instead of one Get per entity:
//
//	people := dataloader.New[Person](backend)
//	values, errs := people.Load(ctx, 1, 2, 3)
//
// Loaded values are cached per Loader. Writes should Clear or Prime the
// affected entities:
//
//	if err := backend.Update(ctx, 2, &p); err == nil {
//	    people.Prime(2, p)
//	}
//
// Loaders can be carried through a request context with WithLoaders and For.
package dataloader

import (
	"context"
	"reflect"
	"sync"

	"github.com/syssam/erm"
)

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys reorders values to match the order of requested keys. Keys
// without a value get the zero value and a not-found error built by missing.
//
// The result slices always have the length of keys.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V], missing func(K) error) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = missing(key)
		}
	}
	return result, errs
}

// MaxBatch is the most entities a Loader reads with one query. Larger key
// sets are split into several queries.
const MaxBatch = 64

// Loader loads T values by entity with one query per batch.
// It is safe for concurrent use.
type Loader[T any, E comparable] struct {
	b *erm.Backend[E]

	mu    sync.Mutex
	cache map[E]T
}

// New returns a Loader of T values stored in b.
func New[T any, E comparable](b *erm.Backend[E]) *Loader[T, E] {
	return &Loader[T, E]{b: b, cache: make(map[E]T)}
}

// Load returns the values of keys in key order. Cached entities are not
// queried again, the rest are read in batches of at most MaxBatch.
// Entities without a value get an *erm.NotFoundError, and a query failure is
// reported for every key of the failed batch.
func (l *Loader[T, E]) Load(ctx context.Context, keys ...E) ([]T, []error) {
	values := make([]T, len(keys))
	errs := make([]error, len(keys))

	var (
		pending []E
		index   = make(map[E][]int)
	)
	l.mu.Lock()
	for i, k := range keys {
		if v, ok := l.cache[k]; ok {
			values[i] = v
			continue
		}
		if _, ok := index[k]; !ok {
			pending = append(pending, k)
		}
		index[k] = append(index[k], i)
	}
	l.mu.Unlock()
	for _, chunk := range batches(pending, MaxBatch) {
		l.fetch(ctx, chunk, index, values, errs)
	}
	return values, errs
}

func (l *Loader[T, E]) fetch(ctx context.Context, keys []E, index map[E][]int, values []T, errs []error) {
	entries, err := erm.List[T](l.b).Entities(pad(keys)...).All(ctx)
	if err != nil {
		for _, k := range keys {
			for _, i := range index[k] {
				errs[i] = err
			}
		}
		return
	}
	loaded, lerrs := OrderByKeys(keys, entries,
		func(e erm.Entry[E, T]) E { return e.Entity },
		func(k E) error { return erm.NewNotFoundError(typeName[T](), k) },
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	for j, k := range keys {
		for _, i := range index[k] {
			values[i], errs[i] = loaded[j].Value, lerrs[j]
		}
		if lerrs[j] == nil {
			l.cache[k] = loaded[j].Value
		}
	}
}

// batches splits keys into runs of at most n.
func batches[E any](keys []E, n int) [][]E {
	var out [][]E
	for len(keys) > n {
		out = append(out, keys[:n:n])
		keys = keys[n:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

// pad repeats the last key up to the next power of two, so a type is read
// with a handful of cached statements instead of one per batch size.
func pad[E any](keys []E) []E {
	n := 1
	for n < len(keys) {
		n <<= 1
	}
	out := make([]E, n)
	copy(out, keys)
	for i := len(keys); i < n; i++ {
		out[i] = keys[len(keys)-1]
	}
	return out
}

// LoadOne returns the value of one entity.
func (l *Loader[T, E]) LoadOne(ctx context.Context, key E) (T, error) {
	values, errs := l.Load(ctx, key)
	return values[0], errs[0]
}

// Prime stores a known value in the cache.
func (l *Loader[T, E]) Prime(key E, value T) {
	l.mu.Lock()
	l.cache[key] = value
	l.mu.Unlock()
}

// Clear drops keys from the cache.
func (l *Loader[T, E]) Clear(keys ...E) {
	l.mu.Lock()
	for _, k := range keys {
		delete(l.cache, k)
	}
	l.mu.Unlock()
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// ctxKey is the context key for storing loaders.
type ctxKey struct{}

// WithLoaders injects loaders into the context, typically once per request:
//
//	ctx := dataloader.WithLoaders(r.Context(), &Loaders{
//	    People: dataloader.New[Person](backend),
//	})
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For extracts loaders from context.
//
//	people := dataloader.For[*Loaders](ctx).People
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}
