package erm

import (
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// cacheKey identifies one rendered statement. Two keys are equal exactly
// when the statements they describe have the same text.
type cacheKey struct {
	Op      string // Operation (e.g., "list", "get", "insert")
	Dialect string // Normalized dialect name
	Type    string // Component or archetype type
	Tree    string // Query tree name or table
	Cond    string // Condition shape, values excluded
}

// String returns the string representation of the cache key.
func (k cacheKey) String() string {
	return strings.Join([]string{k.Op, k.Dialect, k.Type, k.Tree, k.Cond}, ":")
}

// cachedQuery is a rendered select statement.
type cachedQuery struct {
	Text    string
	Filters int // Placeholders written before the condition
	Width   int // Projected columns, excluding the entity
}

// stmtCache holds rendered statement text for the lifetime of the process.
// Concurrent first callers of one key build the value once; every caller
// observes the same published value.
type stmtCache struct {
	m      sync.Map // cacheKey -> any
	group  singleflight.Group
	builds atomic.Int64
}

// statements is the process-wide statement cache.
var statements stmtCache

// load returns the value of k, building and publishing it on first use.
func (c *stmtCache) load(k cacheKey, build func() (any, error)) (any, error) {
	if v, ok := c.m.Load(k); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(k.String(), func() (any, error) {
		if v, ok := c.m.Load(k); ok {
			return v, nil
		}
		v, err := build()
		if err != nil {
			return nil, err
		}
		c.builds.Add(1)
		v, _ = c.m.LoadOrStore(k, v)
		return v, nil
	})
	return v, err
}

// query returns the cached select statement of k.
func (c *stmtCache) query(k cacheKey, build func() (*cachedQuery, error)) (*cachedQuery, error) {
	v, err := c.load(k, func() (any, error) { return build() })
	if err != nil {
		return nil, err
	}
	return v.(*cachedQuery), nil
}

// text returns the cached write or DDL statement of k.
func (c *stmtCache) text(k cacheKey, build func() string) string {
	v, _ := c.load(k, func() (any, error) { return build(), nil })
	return v.(string)
}

// len returns the number of cached statements.
func (c *stmtCache) len() int {
	n := 0
	c.m.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
