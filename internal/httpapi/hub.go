package httpapi

import (
	"sync"

	"github.com/andyrahman/waresponder/internal/store"
)

const subscriberBuffer = 64

// Hub fans persisted turns out to dashboard stream subscribers, keyed by
// counterpart phone number. Publishing never blocks: a subscriber that falls
// behind loses turns rather than stalling the webhook pipeline.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan store.Turn]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan store.Turn]struct{})}
}

// Publish delivers a turn to every subscriber of counterpart.
func (h *Hub) Publish(counterpart string, turn store.Turn) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[counterpart] {
		select {
		case ch <- turn:
		default:
		}
	}
}

// Subscribe registers interest in one counterpart's turns. The returned
// cancel func must be called exactly once; the channel is closed by it.
func (h *Hub) Subscribe(counterpart string) (<-chan store.Turn, func()) {
	ch := make(chan store.Turn, subscriberBuffer)

	h.mu.Lock()
	if h.subs[counterpart] == nil {
		h.subs[counterpart] = make(map[chan store.Turn]struct{})
	}
	h.subs[counterpart][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[counterpart], ch)
		if len(h.subs[counterpart]) == 0 {
			delete(h.subs, counterpart)
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// SubscriberCount reports active subscribers across all counterparts.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}
