package pending

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

func TestMemoryStorePutGetPop(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok := store.Get(ctx, 42)
	assert.False(t, ok)

	store.Put(ctx, &entities.PendingSelection{UserID: 42, URL: "https://youtube.com/watch?v=a"})

	sel, ok := store.Get(ctx, 42)
	require.True(t, ok)
	assert.Equal(t, "https://youtube.com/watch?v=a", sel.URL)
	assert.False(t, sel.CreatedAt.IsZero())

	sel, ok = store.Pop(ctx, 42)
	require.True(t, ok)
	assert.Equal(t, int64(42), sel.UserID)

	// Consumed: second pop is a miss
	_, ok = store.Pop(ctx, 42)
	assert.False(t, ok)
}

func TestMemoryStorePopMissingIsNoop(t *testing.T) {
	store := NewMemoryStore()

	sel, ok := store.Pop(context.Background(), 7)
	assert.False(t, ok)
	assert.Nil(t, sel)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, &entities.PendingSelection{UserID: 1, URL: "first"})
	store.Put(ctx, &entities.PendingSelection{UserID: 1, URL: "second"})

	sel, ok := store.Pop(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "second", sel.URL)

	// Exactly one entry existed
	_, ok = store.Pop(ctx, 1)
	assert.False(t, ok)
}

func TestMemoryStoreUsersAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, &entities.PendingSelection{UserID: 1, URL: "one"})
	store.Put(ctx, &entities.PendingSelection{UserID: 2, URL: "two"})

	sel, ok := store.Pop(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "one", sel.URL)

	sel, ok = store.Pop(ctx, 2)
	require.True(t, ok)
	assert.Equal(t, "two", sel.URL)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			store.Put(ctx, &entities.PendingSelection{UserID: n % 5, URL: "u"})
			store.Get(ctx, n%5)
			store.Pop(ctx, n%5)
		}(int64(i))
	}
	wg.Wait()
}
