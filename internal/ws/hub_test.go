package ws

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestHub(origins ...string) *Hub {
	return NewHub(zap.NewNop().Sugar(), nil, origins)
}

func addClient(h *Hub, userID int) *Client {
	c := &Client{hub: h, send: make(chan []byte, 256), userID: userID}
	c.touch()
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func TestCleanupEvictsIdleClients(t *testing.T) {
	h := newTestHub()

	idle := addClient(h, 1)
	idle.lastActive.Store(time.Now().Add(-2 * time.Minute).UnixNano())
	fresh := addClient(h, 2)

	h.cleanupInactiveClients()

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.NotContains(t, h.clients, idle)
	assert.Contains(t, h.clients, fresh)
}

func TestLastActiveIsSafeUnderConcurrentCleanup(t *testing.T) {
	h := newTestHub()
	c := addClient(h, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.touch()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			h.cleanupInactiveClients()
		}
	}()
	wg.Wait()

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.Contains(t, h.clients, c)
}

func TestCheckOrigin(t *testing.T) {
	h := newTestHub("https://eduhub.com")

	req := func(origin string) *http.Request {
		r, _ := http.NewRequest(http.MethodGet, "/v1/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, h.checkOrigin(req("")))
	assert.True(t, h.checkOrigin(req("https://eduhub.com")))
	assert.False(t, h.checkOrigin(req("https://evil.example")))

	wild := newTestHub("*")
	assert.True(t, wild.checkOrigin(req("https://anything.example")))
}
