package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheMissThenHit(t *testing.T) {
	c := New[string]()

	_, ok := c.Get("m1")
	require.False(t, ok)

	c.Set("m1", "payload")
	got, ok := c.Get("m1")
	require.True(t, ok)
	require.Equal(t, "payload", got)
}

func TestCacheNewMarkerDisplacesOld(t *testing.T) {
	c := New[string]()
	c.Set("m1", "old")
	c.Set("m2", "new")

	got, ok := c.Get("m2")
	require.True(t, ok)
	require.Equal(t, "new", got)

	_, ok = c.Get("m1")
	require.False(t, ok)
}
