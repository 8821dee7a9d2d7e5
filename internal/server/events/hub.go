// Package events fans out "entries changed" signals to the sessions watching
// a user's journal.
package events

import "sync"

// Hub keeps per-user subscriber channels. Notify never blocks: a subscriber
// that has not drained its previous signal simply keeps the pending one,
// which is enough since subscribers re-read the whole bucket.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe registers interest in userID's changes. The returned cancel
// func must be called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan struct{}, 1)
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan struct{})
	}
	h.subs[userID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Notify signals every subscriber of userID.
func (h *Hub) Notify(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many sessions watch userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
