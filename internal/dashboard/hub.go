package dashboard

import (
	"sync"

	"github.com/rzbill/myriad/internal/widget"
)

// Update is pushed to hub subscribers whenever a widget changes.
type Update struct {
	// Type is "state" for a new widget state and "removed" when a widget is gone.
	Type   string        `json:"type"`
	ID     string        `json:"id"`
	Widget *widget.State `json:"widget,omitempty"`
}

// Hub fans widget updates out to subscribers. Slow subscribers miss updates
// rather than blocking the dashboard.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Update]struct{}
}

// NewHub returns a Hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Update]struct{})}
}

func (h *Hub) publish(u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Subscribe registers a subscriber with a buffer of n updates. The returned
// func unsubscribes and closes the channel.
func (h *Hub) Subscribe(n int) (<-chan Update, func()) {
	if n <= 0 {
		n = 256
	}
	ch := make(chan Update, n)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
