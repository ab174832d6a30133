// Package feed fans inserted messages out to live room subscribers.
package feed

import (
	"context"
	"sync"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
)

// subscriberBuffer is how many undelivered messages a subscriber may hold
// before it is cut off as a slow consumer.
const subscriberBuffer = 256

// Broker publishes messages to the subscribers of their room.
type Broker interface {
	// Publish delivers msg to every current subscriber of msg.RoomID.
	Publish(ctx context.Context, msg core.Message) error
	// Subscribe registers a subscriber for roomID. The subscription is
	// active when Subscribe returns.
	Subscribe(ctx context.Context, roomID string) (backend.Subscription, error)
	// Close terminates all subscriptions and releases the broker.
	Close() error
}

// subscription is the channel-backed backend.Subscription shared by brokers.
type subscription struct {
	roomID  string
	ch      chan core.Message
	release func()

	mu     sync.Mutex
	closed bool
	err    error
}

func newSubscription(roomID string, release func()) *subscription {
	return &subscription{
		roomID:  roomID,
		ch:      make(chan core.Message, subscriberBuffer),
		release: release,
	}
}

func (s *subscription) Messages() <-chan core.Message {
	return s.ch
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.end(nil)
	return nil
}

// offer attempts a non-blocking delivery. A full buffer ends the
// subscription with ErrSlowConsumer so the gap is visible downstream.
func (s *subscription) offer(msg core.Message) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	select {
	case s.ch <- msg:
		s.mu.Unlock()
		return true
	default:
	}
	s.mu.Unlock()
	s.end(core.ErrSlowConsumer)
	return false
}

func (s *subscription) end(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	close(s.ch)
	s.mu.Unlock()

	if s.release != nil {
		s.release()
	}
}
