package client

import "sync"

// Guard tracks which fetch of a named view is the current one. UIs that
// re-request the same view rapidly (switching weeks on a calendar, say)
// can receive responses out of order; applying a stale response would
// show the wrong data. Each Begin call supersedes all earlier tickets
// for that key, and Ticket.Current reports whether a response should
// still be applied when it lands.
type Guard struct {
	mu  sync.Mutex
	seq map[string]uint64
}

func NewGuard() *Guard {
	return &Guard{seq: make(map[string]uint64)}
}

// Begin registers a new fetch of the view named by key and returns its
// ticket. Any ticket issued earlier for the same key becomes stale.
func (g *Guard) Begin(key string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq[key]++
	return Ticket{guard: g, key: key, seq: g.seq[key]}
}

// Ticket identifies one fetch of a view.
type Ticket struct {
	guard *Guard
	key   string
	seq   uint64
}

// Current reports whether this ticket's fetch is still the latest one
// for its view. A response arriving on a stale ticket must be discarded.
func (t Ticket) Current() bool {
	if t.guard == nil {
		return false
	}
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	return t.guard.seq[t.key] == t.seq
}
