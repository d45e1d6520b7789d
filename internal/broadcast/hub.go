package broadcast

import (
	"sync"

	"github.com/cyberguard/backend/internal/logger"
	"github.com/cyberguard/backend/internal/metrics"
	"github.com/cyberguard/backend/internal/models"
)

// Hub fans traffic events out to every subscribed observer. Publish never
// blocks: each subscription has a bounded queue and an event that does not
// fit is dropped for that subscription only.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

// NewHub returns a hub whose subscriptions queue up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
	}
}

// Subscription is one observer's view of the feed.
type Subscription struct {
	id   uint64
	name string
	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Events delivers published events. The channel is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Name identifies the observer in logs and metrics.
func (s *Subscription) Name() string {
	return s.name
}

// Close unsubscribes; it is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Subscribe registers a new observer.
func (h *Hub) Subscribe(name string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:   h.nextID,
		name: name,
		ch:   make(chan Event, h.buffer),
		hub:  h,
	}
	h.subs[sub.id] = sub
	metrics.SetObservers(len(h.subs))
	logger.Component("broadcast").WithField("observer", name).Debug("observer subscribed")
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	// Publish only sends while holding the read lock, so closing under the
	// write lock cannot race with a send.
	close(sub.ch)
	metrics.SetObservers(len(h.subs))
	logger.Component("broadcast").WithField("observer", sub.name).Debug("observer unsubscribed")
}

// Len returns the number of current subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish derives the event for a persisted record and offers it to every
// observer. It returns the event that was offered.
func (h *Hub) Publish(rec *models.AuditRecord) Event {
	evt := NewEvent(rec)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			metrics.IncDropped(sub.name)
		}
	}
	metrics.IncPublished()
	return evt
}

// Close unsubscribes every observer. Their event channels are closed so
// the goroutines draining them return.
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}
