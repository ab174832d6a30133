// Package backend defines the capabilities a chat client needs from the
// realtime data service: room listing, historical reads, writes and a live
// feed of inserted messages.
package backend

import (
	"context"

	"github.com/vovakirdan/anonchat/internal/core"
)

const (
	// DefaultPageSize caps the historical read issued when a room is opened.
	DefaultPageSize = 100
	// MaxPageSize is the largest history read a backend accepts.
	MaxPageSize = 500
)

// RoomLister lists available rooms.
type RoomLister interface {
	// ListRooms returns all rooms ordered by name ascending.
	ListRooms(ctx context.Context) ([]core.Room, error)
}

// MessageReader reads persisted room history.
type MessageReader interface {
	// ListMessages returns at most limit messages of the room, the most recent
	// page, ordered by creation time ascending.
	ListMessages(ctx context.Context, roomID string, limit int) ([]core.Message, error)
}

// MessageWriter submits new messages.
type MessageWriter interface {
	// InsertMessage persists msg. The stored message is delivered back
	// through the live feed rather than returned.
	InsertMessage(ctx context.Context, msg core.NewMessage) error
}

// Subscriber opens live feeds.
type Subscriber interface {
	// Subscribe returns once the feed of new messages for roomID is confirmed.
	Subscribe(ctx context.Context, roomID string) (Subscription, error)
}

// Subscription is a live, non-restartable feed of messages created in one room.
type Subscription interface {
	// Messages yields messages in the order the backend emits them. The
	// channel is closed when the feed ends for any reason.
	Messages() <-chan core.Message
	// Err returns why the feed ended, or nil if it was closed by Close.
	// Only meaningful after Messages is closed.
	Err() error
	// Close releases the feed. It is safe to call more than once.
	Close() error
}

// Backend aggregates every capability used by the chat front-end.
type Backend interface {
	RoomLister
	MessageReader
	MessageWriter
	Subscriber
}
