package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string
	Count int
}

func TestLRUSetGet(t *testing.T) {
	c, err := NewLRU(10, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 2}))

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	ok, err = c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	c, err := NewLRU(10, time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", payload{Name: "a"}))

	c.now = func() time.Time { return now.Add(2 * time.Second) }
	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLRUDeleteAndEviction(t *testing.T) {
	c, err := NewLRU(2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))
	require.NoError(t, c.Delete(ctx, "a"))

	var v int
	ok, _ := c.Get(ctx, "a", &v)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "c", 3))
	require.NoError(t, c.Set(ctx, "d", 4))
	ok, _ = c.Get(ctx, "b", &v)
	assert.False(t, ok, "oldest entry should be evicted")
	ok, _ = c.Get(ctx, "d", &v)
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}
