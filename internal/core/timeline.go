package core

import "sort"

// Timeline is the ordered, duplicate-free message sequence of one room.
// It is not safe for concurrent use.
type Timeline struct {
	messages []Message
	seen     map[string]struct{}
}

// NewTimeline constructs an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

// Insert places msg at its ordered position. It returns false and leaves the
// timeline untouched when a message with the same id is already present.
func (t *Timeline) Insert(msg Message) bool {
	if _, dup := t.seen[msg.ID]; dup {
		return false
	}
	t.seen[msg.ID] = struct{}{}

	// Live messages almost always land at the tail.
	n := len(t.messages)
	if n == 0 || t.messages[n-1].Before(msg) {
		t.messages = append(t.messages, msg)
		return true
	}

	idx := sort.Search(n, func(i int) bool { return msg.Before(t.messages[i]) })
	t.messages = append(t.messages, Message{})
	copy(t.messages[idx+1:], t.messages[idx:])
	t.messages[idx] = msg
	return true
}

// Merge inserts every message and returns how many were new.
func (t *Timeline) Merge(msgs []Message) int {
	added := 0
	for _, msg := range msgs {
		if t.Insert(msg) {
			added++
		}
	}
	return added
}

// Contains reports whether a message id is already in the timeline.
func (t *Timeline) Contains(id string) bool {
	_, ok := t.seen[id]
	return ok
}

// Len returns the number of messages.
func (t *Timeline) Len() int {
	return len(t.messages)
}

// Messages returns a copy of the ordered sequence.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}
