package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/metrics"
)

// ErrBrokerClosed is returned by a broker after Close.
var ErrBrokerClosed = errors.New("feed broker closed")

// ErrMalformedPayload ends a subscription whose feed delivered an undecodable message.
var ErrMalformedPayload = errors.New("malformed feed payload")

// room groups subscriptions to the same room.
type room struct {
	id   string
	subs map[*subscription]struct{}
}

func newRoom(id string) *room {
	return &room{id: id, subs: make(map[*subscription]struct{})}
}

func (r *room) add(s *subscription) {
	r.subs[s] = struct{}{}
}

// remove deletes a subscription. Returns true if removed.
func (r *room) remove(s *subscription) bool {
	if _, ok := r.subs[s]; !ok {
		return false
	}
	delete(r.subs, s)
	return true
}

func (r *room) empty() bool {
	return len(r.subs) == 0
}

// Hub is an in-process Broker. It serves a single backend instance.
type Hub struct {
	log *zerolog.Logger

	mu     sync.Mutex
	rooms  map[string]*room
	closed bool
}

// NewHub creates an in-process broker.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:   logger,
		rooms: make(map[string]*room),
	}
}

// Subscribe registers a subscriber for roomID.
func (h *Hub) Subscribe(_ context.Context, roomID string) (backend.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrBrokerClosed
	}

	var sub *subscription
	sub = newSubscription(roomID, func() { h.remove(sub) })

	r, ok := h.rooms[roomID]
	if !ok {
		r = newRoom(roomID)
		h.rooms[roomID] = r
	}
	r.add(sub)
	metrics.ActiveSubscriptions.Inc()

	h.log.Debug().Str("room_id", roomID).Int("subscribers", len(r.subs)).Msg("feed subscriber added")
	return sub, nil
}

// Publish delivers msg to the room's subscribers without blocking on any of them.
func (h *Hub) Publish(_ context.Context, msg core.Message) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrBrokerClosed
	}
	var targets []*subscription
	if r, ok := h.rooms[msg.RoomID]; ok {
		targets = make([]*subscription, 0, len(r.subs))
		for s := range r.subs {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		if !s.offer(msg) && s.Err() != nil {
			metrics.SlowConsumers.Inc()
			h.log.Warn().Str("room_id", msg.RoomID).Msg("dropped slow feed subscriber")
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions for roomID.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[roomID]; ok {
		return len(r.subs)
	}
	return 0
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var all []*subscription
	for _, r := range h.rooms {
		for s := range r.subs {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		s.end(ErrBrokerClosed)
	}
	return nil
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[s.roomID]
	if !ok || !r.remove(s) {
		return
	}
	metrics.ActiveSubscriptions.Dec()
	if r.empty() {
		delete(h.rooms, s.roomID)
	}
}
