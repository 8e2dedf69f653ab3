package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/chatroom/internal/models"
)

func TestProfileCacheExpires(t *testing.T) {
	cache := newProfileCache(time.Minute, 4)
	now := time.Unix(1000, 0)
	cache.now = func() time.Time { return now }

	cache.put(models.Profile{ID: "u2", DisplayName: "Bob"})
	got, ok := cache.get("u2")
	require.True(t, ok)
	require.Equal(t, "Bob", got.DisplayName)

	now = now.Add(time.Minute)
	_, ok = cache.get("u2")
	require.False(t, ok)
	require.Zero(t, cache.len())
}

func TestProfileCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newProfileCache(time.Hour, 2)
	cache.put(models.Profile{ID: "a"})
	cache.put(models.Profile{ID: "b"})
	_, ok := cache.get("a")
	require.True(t, ok)

	cache.put(models.Profile{ID: "c"})
	_, ok = cache.get("b")
	require.False(t, ok)
	_, ok = cache.get("a")
	require.True(t, ok)
	require.Equal(t, 2, cache.len())
}
