package relay

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/hexrelay/internal/observability"
	"github.com/google/uuid"
)

const DefaultSubscriberBuffer = 64

var ErrHubClosed = errors.New("relay: hub closed")

// Subscriber receives envelopes on C until it is unsubscribed or the hub
// closes, after which C is closed.
type Subscriber struct {
	ID          string
	ConnectedAt time.Time
	C           <-chan Envelope

	ch      chan Envelope
	dropped atomic.Int64
}

// Dropped reports how many envelopes this subscriber missed on a full buffer.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

// Hub fans envelopes out to subscribers keyed by a stable id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe() (*Subscriber, error) {
	ch := make(chan Envelope, h.buffer)
	sub := &Subscriber{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		C:           ch,
		ch:          ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.subs[sub.ID] = sub
	observability.SetSubscribers(len(h.subs))
	return sub, nil
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	key := strings.TrimSpace(id)
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[key]
	if !ok {
		return
	}
	delete(h.subs, key)
	close(sub.ch)
	observability.SetSubscribers(len(h.subs))
}

// Publish offers env to every subscriber without blocking and returns how
// many accepted it. A subscriber with a full buffer misses env.
func (h *Hub) Publish(env Envelope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, sub := range h.subs {
		select {
		case sub.ch <- env:
			delivered++
		default:
			sub.dropped.Add(1)
			observability.RecordDropped()
		}
	}
	return delivered
}

// Subscribers lists subscriber ids in sorted order.
func (h *Hub) Subscribers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.subs))
	for id := range h.subs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	observability.SetSubscribers(0)
}
