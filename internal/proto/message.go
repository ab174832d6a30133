package proto

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/anonchat/internal/core"
)

// Inbound is the envelope for realtime frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventSubscribed = "subscribed"
	EventInsert     = "insert"
)

// JoinData requests the live feed of a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for realtime frames sent to the client.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// EventSubscribedData confirms the feed is live.
type EventSubscribedData struct {
	Room     string `json:"room"`
	Protocol int    `json:"protocol"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Room is the wire form of a room row.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
}

// Message is the wire form of a message row.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertMessage is the body of a message write.
type InsertMessage struct {
	UserID   string `json:"user_id" binding:"required,max=64"`
	Username string `json:"username" binding:"required,max=64"`
	Content  string `json:"content" binding:"required"`
}

// RoomFromCore converts a domain room to its wire form.
func RoomFromCore(r core.Room) Room {
	return Room{ID: r.ID, Name: r.Name, Description: r.Description, Theme: string(r.Theme)}
}

// ToCore converts a wire room to the domain model.
func (r Room) ToCore() core.Room {
	return core.Room{ID: r.ID, Name: r.Name, Description: r.Description, Theme: core.Theme(r.Theme)}
}

// MessageFromCore converts a domain message to its wire form.
func MessageFromCore(m core.Message) Message {
	return Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.AuthorID,
		Username:  m.AuthorName,
		Content:   m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// ToCore converts a wire message to the domain model.
func (m Message) ToCore() core.Message {
	return core.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		AuthorID:   m.UserID,
		AuthorName: m.Username,
		Text:       m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// NewEvent builds an event envelope with a JSON-encoded payload.
func NewEvent(event string, data any) (Outbound, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{Type: OutboundTypeEvent, Event: event, Data: raw}, nil
}

// NewError builds an error envelope.
func NewError(code, msg string) Outbound {
	return Outbound{Type: OutboundTypeError, Error: &Error{Code: code, Msg: msg}}
}
