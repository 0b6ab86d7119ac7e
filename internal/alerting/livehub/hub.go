// Package livehub fans alert events out to connected clients of one user.
package livehub

import (
	"errors"
	"strings"
	"sync"

	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
)

const (
	EventNewAlert = "new_alert"

	DefaultBufferSize       = 20
	DefaultSubscriberBuffer = 16
)

// AlertEvent is the envelope delivered to subscribers. At-most-once,
// best-effort: a slow subscriber drops events rather than blocking the writer.
type AlertEvent struct {
	Event string            `json:"event"`
	Alert alertdomain.Alert `json:"alert"`
}

type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []AlertEvent
	subs   map[uint64]chan AlertEvent
	nextID uint64
}

type Subscription struct {
	hub    *Hub
	userID string
	id     uint64
	ch     chan AlertEvent
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish delivers an event to every connected client of the user. Events for
// users with no subscribers are dropped; the alert row is the source of truth.
func (h *Hub) Publish(userID string, event AlertEvent) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(userID)
	if key == "" {
		return
	}
	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	stream.buffer = append(stream.buffer, event)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan AlertEvent, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a client for the user's alert stream and returns the
// buffered backlog so late joiners catch recent events.
func (h *Hub) Subscribe(userID string) (*Subscription, []AlertEvent, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	key := strings.TrimSpace(userID)
	if key == "" {
		return nil, nil, errors.New("invalid_user")
	}

	stream := h.ensureStream(key)
	stream.mu.Lock()
	if stream.subs == nil {
		stream.subs = make(map[uint64]chan AlertEvent)
	}
	id := stream.nextID
	stream.nextID++
	ch := make(chan AlertEvent, h.subscriberBuffer)
	stream.subs[id] = ch
	backlog := append([]AlertEvent(nil), stream.buffer...)
	stream.mu.Unlock()

	return &Subscription{
		hub:    h,
		userID: key,
		id:     id,
		ch:     ch,
	}, backlog, nil
}

func (h *Hub) ensureStream(userID string) *stream {
	h.mu.RLock()
	current := h.streams[userID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[userID]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan AlertEvent)}
		h.streams[userID] = current
	}
	return current
}

func (h *Hub) unsubscribe(userID string, id uint64) {
	if h == nil {
		return
	}

	h.mu.RLock()
	stream := h.streams[userID]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	delete(stream.subs, id)
	remaining := len(stream.subs)
	stream.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.streams[userID]
	if current == stream {
		stream.mu.Lock()
		if len(stream.subs) == 0 {
			delete(h.streams, userID)
		}
		stream.mu.Unlock()
	}
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan AlertEvent {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.userID, s.id)
	})
}
