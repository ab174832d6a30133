package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the longest message body accepted, in characters.
const MaxMessageLength = 500

// Message is the domain model for a chat message.
type Message struct {
	ID         string
	RoomID     string
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

// Before reports whether m sorts ahead of other in a room timeline.
// Messages are ordered by creation time; ties fall back to the id.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// NewMessage is a message as submitted by a client, before the backend
// assigns its id and creation time.
type NewMessage struct {
	RoomID     string
	AuthorID   string
	AuthorName string
	Text       string
}

// NormalizeText trims surrounding whitespace and checks the length bounds.
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}
