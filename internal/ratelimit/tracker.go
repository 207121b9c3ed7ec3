package ratelimit

import (
	"sync"
	"time"
)

// window is the fixed counting window of one client.
type window struct {
	start  time.Time
	counts map[string]int
}

// Tracker counts requests per client and route within fixed windows.
// Windows reset lazily on the next request after they expire, and clients
// whose window expired are swept at most once per window length.
type Tracker struct {
	mu        sync.Mutex
	clients   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{clients: make(map[string]*window), now: time.Now}
}

// Admit returns the count for (client, route) and increments it when the
// count is below max, as one step.
func (t *Tracker) Admit(client, route string, span time.Duration, max int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= span {
		t.sweep(now, span)
		t.lastSweep = now
	}

	w := t.clients[client]
	if w == nil || now.Sub(w.start) >= span {
		w = &window{start: now, counts: make(map[string]int)}
		t.clients[client] = w
	}
	count := w.counts[route]
	if count < max {
		w.counts[route]++
	}
	return count
}

// Len returns the number of tracked clients.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

func (t *Tracker) sweep(now time.Time, span time.Duration) {
	for id, w := range t.clients {
		if now.Sub(w.start) >= span {
			delete(t.clients, id)
		}
	}
}
