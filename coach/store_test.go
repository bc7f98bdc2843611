package coach

import (
	"sync"
	"testing"

	"nutricoach"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	state := &nutricoach.CoachState{TDEE: 2500}
	store.Put("s1", state)

	got, ok := store.Get("s1")
	require.True(t, ok)
	assert.Equal(t, 2500, got.TDEE)

	store.Delete("s1")
	_, ok = store.Get("s1")
	assert.False(t, ok)

	// Deleting an unknown id is a no-op.
	store.Delete("never-existed")
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put("shared", &nutricoach.CoachState{})
			store.Get("shared")
			store.Delete("shared")
		}()
	}
	wg.Wait()
}
