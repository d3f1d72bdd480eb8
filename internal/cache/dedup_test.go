package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicatorRejectsReplay(t *testing.T) {
	d := NewDeduplicator(10)
	ctx := context.Background()

	require.False(t, d.Seen(ctx, 100))
	assert.True(t, d.Seen(ctx, 100))
	assert.True(t, d.Seen(ctx, 100))
}

func TestDeduplicatorBatchEviction(t *testing.T) {
	d := NewDeduplicator(10)
	ctx := context.Background()

	for id := int64(0); id < 10; id++ {
		require.False(t, d.Seen(ctx, id))
	}

	// Admitting one more evicts the oldest half (ids 0..4) in one batch.
	require.False(t, d.Seen(ctx, 10))

	assert.False(t, d.Seen(ctx, 2), "evicted id should be admitted again")
	assert.True(t, d.Seen(ctx, 7), "recent id should survive the batch eviction")
	assert.True(t, d.Seen(ctx, 10))
}

func TestDeduplicatorDefaultCapacity(t *testing.T) {
	d := NewDeduplicator(0)
	ctx := context.Background()

	for id := int64(0); id < DefaultDedupCapacity; id++ {
		require.False(t, d.Seen(ctx, id))
	}
	// Still within the window before any eviction.
	assert.True(t, d.Seen(ctx, DefaultDedupCapacity-1))
}

func TestTokenStores(t *testing.T) {
	for name, store := range map[string]TokenStore{
		"memory": NewMemoryTokenStore(),
		"lru":    NewLRUTokenStore(8),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := store.Get(1)
			require.False(t, ok)

			store.Put(1, "tok-a")
			got, ok := store.Get(1)
			require.True(t, ok)
			assert.Equal(t, "tok-a", got)

			store.Evict(1)
			_, ok = store.Get(1)
			assert.False(t, ok)
		})
	}
}

func TestLRUTokenStoreBounded(t *testing.T) {
	store := NewLRUTokenStore(2)
	store.Put(1, "a")
	store.Put(2, "b")
	store.Put(3, "c")

	_, ok := store.Get(1)
	assert.False(t, ok, "oldest entry should be evicted at capacity")
	_, ok = store.Get(3)
	assert.True(t, ok)
}
