package websocket

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/cameroncuttingedge/place/events"
	"github.com/cameroncuttingedge/place/utils"
	"github.com/rs/zerolog/log"
)

var ErrHubClosed = errors.New("hub is closed")

// Sink is the write side of one live connection.
type Sink interface {
	Send(msg events.Message) error
	Close() error
}

// Subscriber is a registered connection. Messages queue in publish order
// and are written by a single goroutine.
type Subscriber struct {
	ID   string
	User string

	sink    Sink
	queue   chan events.Message
	removed bool // guarded by Hub.mu
}

type Stats struct {
	Subscribers int
	Published   uint64
	Delivered   uint64
	Evicted     uint64
}

// Hub owns the set of live subscribers and fans draws out to them.
type Hub struct {
	mu        sync.RWMutex
	subs      map[string]*Subscriber
	queueSize int
	closed    bool

	published atomic.Uint64
	delivered atomic.Uint64
	evicted   atomic.Uint64
}

func NewHub(queueSize int) *Hub {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Hub{
		subs:      make(map[string]*Subscriber),
		queueSize: queueSize,
	}
}

// Subscribe registers sink. It receives every draw published after this
// call returns, until it is unsubscribed.
func (h *Hub) Subscribe(user string, sink Sink) (*Subscriber, error) {
	s := &Subscriber{
		ID:    utils.GenerateUUIDString(),
		User:  user,
		sink:  sink,
		queue: make(chan events.Message, h.queueSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.subs[s.ID] = s
	count := len(h.subs)
	h.mu.Unlock()

	go h.pump(s)

	log.Info().Str("subscriber", s.ID).Str("user", user).Int("connectionsCount", count).Msg("WebSocket subscriber registered")
	return s, nil
}

// Unsubscribe removes s and closes its sink. Calling it again is a no-op.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.remove(s)
}

// evict removes s after a delivery failure.
func (h *Hub) evict(s *Subscriber) {
	if h.remove(s) {
		h.evicted.Add(1)
	}
}

func (h *Hub) remove(s *Subscriber) bool {
	h.mu.Lock()
	if s.removed {
		h.mu.Unlock()
		return false
	}
	s.removed = true
	delete(h.subs, s.ID)
	// Publish only sends under the read lock, so closing here is safe.
	close(s.queue)
	remaining := len(h.subs)
	h.mu.Unlock()

	if err := s.sink.Close(); err != nil {
		log.Debug().Err(err).Str("subscriber", s.ID).Msg("Closing subscriber sink")
	}
	log.Info().Str("subscriber", s.ID).Int("remainingConnections", remaining).Msg("WebSocket subscriber deregistered")
	return true
}

// Publish queues ev for every current subscriber without waiting for any
// write. A subscriber whose queue is full is evicted.
func (h *Hub) Publish(ev canvas.DrawEvent) {
	msg := events.FromDraw(ev)
	h.published.Add(1)

	var stalled []*Subscriber
	h.mu.RLock()
	for _, s := range h.subs {
		select {
		case s.queue <- msg:
		default:
			stalled = append(stalled, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range stalled {
		log.Warn().Str("subscriber", s.ID).Str("user", s.User).Msg("Subscriber queue full, evicting")
		h.evict(s)
	}
}

func (h *Hub) pump(s *Subscriber) {
	for msg := range s.queue {
		if err := s.sink.Send(msg); err != nil {
			log.Error().Err(err).Str("subscriber", s.ID).Msg("Failed to deliver draw, evicting subscriber")
			h.evict(s)
			return
		}
		h.delivered.Add(1)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Stats() Stats {
	return Stats{
		Subscribers: h.Len(),
		Published:   h.published.Load(),
		Delivered:   h.delivered.Load(),
		Evicted:     h.evicted.Load(),
	}
}

// Close unsubscribes everyone and rejects new subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		h.Unsubscribe(s)
	}
}
