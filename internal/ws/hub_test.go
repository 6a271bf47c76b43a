package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/whisper-backend/internal/config"
)

type fakeMirror struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{online: make(map[string]bool)}
}

func (m *fakeMirror) SetPresence(_ context.Context, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[userID] = true
	return nil
}

func (m *fakeMirror) ClearPresence(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[userID] = false
	return nil
}

func (m *fakeMirror) isOnline(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online[userID]
}

// stubConn stands in for a websocket connection; no pump reads from it, so a
// tiny send buffer fills immediately.
type stubConn struct{}

func (stubConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("closed") }
func (stubConn) WriteMessage(int, []byte) error    { return nil }
func (stubConn) SetWriteDeadline(time.Time) error  { return nil }
func (stubConn) SetReadLimit(int64)                {}
func (stubConn) Close() error                      { return nil }

func hubFixture() (*Hub, *fakeMirror) {
	cfg := &config.Config{PresenceTTL: time.Minute}
	mirror := newFakeMirror()
	return NewHub(NewRegistry(), mirror, cfg, testLogger()), mirror
}

func TestHubSlowConsumerDisconnected(t *testing.T) {
	hub, mirror := hubFixture()
	c := newClient(stubConn{}, "bob", "conn-b", 1, 10)
	hub.Add(c)
	require.True(t, mirror.isOnline("bob"))

	// first push fills the buffer, second hits the slow-consumer branch
	hub.Push("conn-b", EventReceiveMessage, map[string]string{"n": "1"})
	hub.Push("conn-b", EventReceiveMessage, map[string]string{"n": "2"})

	_, ok := hub.Registry().Lookup("bob")
	assert.False(t, ok)
	assert.False(t, mirror.isOnline("bob"))

	// further pushes find no client and drop
	hub.Push("conn-b", EventReceiveMessage, map[string]string{"n": "3"})

	select {
	case <-c.done:
	default:
		t.Fatal("client was not closed")
	}
}

func TestHubConcurrentPushDuringDisconnect(t *testing.T) {
	// two senders racing against the slow-consumer disconnect must never
	// enqueue onto a closed channel
	hub, _ := hubFixture()
	c := newClient(stubConn{}, "bob", "conn-b", 1, 10)
	hub.Add(c)

	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hub.Push("conn-b", EventReceiveMessage, map[string]int{"i": i})
			}
		}()
	}
	wg.Wait()

	_, ok := hub.Registry().Lookup("bob")
	assert.False(t, ok)
}

func TestHubCloseDisconnectsAll(t *testing.T) {
	hub, _ := hubFixture()
	a := newClient(stubConn{}, "alice", "conn-a", 4, 10)
	b := newClient(stubConn{}, "bob", "conn-b", 4, 10)
	hub.Add(a)
	hub.Add(b)

	hub.Close()

	_, ok := hub.Registry().Lookup("alice")
	assert.False(t, ok)
	_, ok = hub.Registry().Lookup("bob")
	assert.False(t, ok)
	select {
	case <-a.done:
	default:
		t.Fatal("alice's client was not closed")
	}

	// pushing after shutdown is a no-op
	hub.Push("conn-a", EventReceiveMessage, map[string]string{})
}
