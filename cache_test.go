package erm

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent first callers of a key observe one published value.
func TestStmtCache_Concurrent(t *testing.T) {
	var (
		c     stmtCache
		wg    sync.WaitGroup
		start = make(chan struct{})
		k     = cacheKey{Op: "list", Dialect: "sqlite", Type: "erm.T", Tree: "merge(name,age)"}
	)
	results := make([]*cachedQuery, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			q, err := c.query(k, func() (*cachedQuery, error) {
				return &cachedQuery{Text: "select 1"}, nil
			})
			assert.NoError(t, err)
			results[i] = q
		}()
	}
	close(start)
	wg.Wait()

	for _, q := range results {
		assert.Same(t, results[0], q)
	}
	assert.Equal(t, int64(1), c.builds.Load())
	assert.Equal(t, 1, c.len())
}

func TestStmtCache_Keys(t *testing.T) {
	var c stmtCache
	base := cacheKey{Op: "list", Dialect: "sqlite", Type: "erm.T", Tree: "name"}
	keys := []cacheKey{
		base,
		{Op: "get", Dialect: "sqlite", Type: "erm.T", Tree: "name"},
		{Op: "list", Dialect: "postgres", Type: "erm.T", Tree: "name"},
		{Op: "list", Dialect: "sqlite", Type: "erm.T", Tree: "name", Cond: "name.name = ?"},
	}
	for i, k := range keys {
		got := c.text(k, func() string { return k.String() })
		assert.Equal(t, keys[i].String(), got)
	}
	assert.Equal(t, len(keys), c.len())

	// A published value is never rebuilt.
	got := c.text(base, func() string { return "rebuilt" })
	assert.Equal(t, base.String(), got)
	assert.Equal(t, int64(len(keys)), c.builds.Load())
}

func TestStmtCache_Error(t *testing.T) {
	var c stmtCache
	k := cacheKey{Op: "get", Tree: "bad"}
	boom := errors.New("boom")
	_, err := c.query(k, func() (*cachedQuery, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.len())

	// Failures are not cached.
	q, err := c.query(k, func() (*cachedQuery, error) { return &cachedQuery{Text: "ok"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", q.Text)
}
