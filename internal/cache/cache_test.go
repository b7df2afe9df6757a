package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c := New[[]int](time.Minute, 0)
	c.Put("k", []int{1, 2, 3})

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expires(t *testing.T) {
	c := New[string](50*time.Millisecond, 0)
	c.Put("k", "v")

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_ReadsDoNotExtendLifetime(t *testing.T) {
	c := New[string](100*time.Millisecond, 0)
	c.Put("k", "v")

	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		c.Get("k")
	}
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := New[string](time.Minute, 0)
	c.Put("a", "1")
	c.Put("b", "2")

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_ReconfigureDropsEntries(t *testing.T) {
	c := New[string](time.Minute, 0)
	c.Put("k", "v")

	c.Reconfigure(2 * time.Minute)
	assert.Equal(t, 2*time.Minute, c.TTL())
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", "w")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "w", got)
}

func TestCache_Capacity(t *testing.T) {
	c := New[int](time.Minute, 2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](time.Minute, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Put(key, i)
			c.Get(key)
			if i%7 == 0 {
				c.Reconfigure(time.Minute)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 5)
}
