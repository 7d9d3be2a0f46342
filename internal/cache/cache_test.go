package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/cache"
)

func TestMemoryGetSet(t *testing.T) {
	c := cache.NewMemory()

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("slots:10", []byte("payload"), time.Minute)
	got, ok := c.Get("slots:10")
	require.True(t, ok)
	require.Equal(t, []byte("payload"), got)
}

func TestMemoryTTLExpiry(t *testing.T) {
	c := cache.NewMemory()
	c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestMemoryInvalidateByPrefix(t *testing.T) {
	c := cache.NewMemory()
	c.Set("slots:10:a", []byte("a"), time.Minute)
	c.Set("slots:10:b", []byte("b"), time.Minute)
	c.Set("slots:11:a", []byte("c"), time.Minute)

	c.Invalidate("slots:10:")

	_, ok := c.Get("slots:10:a")
	require.False(t, ok)
	_, ok = c.Get("slots:10:b")
	require.False(t, ok)
	_, ok = c.Get("slots:11:a")
	require.True(t, ok)
}

func TestMemoryEvictExpired(t *testing.T) {
	c := cache.NewMemory()
	c.Set("old", []byte("v"), 5*time.Millisecond)
	c.Set("fresh", []byte("v"), time.Minute)

	time.Sleep(10 * time.Millisecond)
	require.Equal(t, 1, c.EvictExpired())

	_, ok := c.Get("fresh")
	require.True(t, ok)
}

func TestMemoryZeroTTLIgnored(t *testing.T) {
	c := cache.NewMemory()
	c.Set("k", []byte("v"), 0)
	_, ok := c.Get("k")
	require.False(t, ok)
}
