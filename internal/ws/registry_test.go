package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookupAbsent(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("nobody")
	assert.False(t, ok)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", "conn-1")

	connID, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "conn-1", connID)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", "conn-1")
	r.Register("alice", "conn-2")

	connID, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "conn-2", connID)
	assert.Equal(t, 1, r.Len())

	// the stale connection's disconnect must not remove the new mapping
	r.Unregister("conn-1")
	connID, ok = r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "conn-2", connID)
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", "conn-1")
	r.Unregister("conn-1")

	_, ok := r.Lookup("alice")
	assert.False(t, ok)
}

func TestRegistryUnregisterUnknownIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", "conn-1")
	r.Unregister("conn-unknown")

	_, ok := r.Lookup("alice")
	assert.True(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%10)
			conn := fmt.Sprintf("conn-%d", i)
			r.Register(user, conn)
			r.Lookup(user)
			r.Unregister(conn)
		}(i)
	}
	wg.Wait()
}
