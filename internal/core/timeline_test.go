package core

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

func msgAt(id string, sec int) Message {
	return Message{ID: id, RoomID: "r1", Text: id, CreatedAt: time.Unix(int64(sec), 0)}
}

func ids(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func assertIDs(t *testing.T, got []Message, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotIDs)
		}
	}
}

func TestTimelineHistoryThenLive(t *testing.T) {
	tl := NewTimeline()
	tl.Merge([]Message{msgAt("a", 1), msgAt("b", 2)})

	if !tl.Insert(msgAt("c", 3)) {
		t.Fatal("expected live message to be inserted")
	}
	assertIDs(t, tl.Messages(), "a", "b", "c")
}

func TestTimelineDropsRedeliveredMessage(t *testing.T) {
	tl := NewTimeline()
	tl.Merge([]Message{msgAt("a", 1), msgAt("b", 2)})

	if tl.Insert(msgAt("b", 2)) {
		t.Fatal("duplicate must not be inserted")
	}
	tl.Insert(msgAt("c", 3))
	assertIDs(t, tl.Messages(), "a", "b", "c")
}

func TestTimelineLiveBeforeHistory(t *testing.T) {
	// Live events buffered while the history read is in flight.
	tl := NewTimeline()
	tl.Insert(msgAt("c", 3))
	tl.Insert(msgAt("b", 2))

	added := tl.Merge([]Message{msgAt("a", 1), msgAt("b", 2)})
	if added != 1 {
		t.Fatalf("expected 1 new message from history, got %d", added)
	}
	assertIDs(t, tl.Messages(), "a", "b", "c")
}

func TestTimelineTieBreaksOnID(t *testing.T) {
	tl := NewTimeline()
	tl.Insert(msgAt("y", 5))
	tl.Insert(msgAt("x", 5))
	tl.Insert(msgAt("z", 5))
	assertIDs(t, tl.Messages(), "x", "y", "z")
}

func TestTimelineMessagesReturnsCopy(t *testing.T) {
	tl := NewTimeline()
	tl.Insert(msgAt("a", 1))

	msgs := tl.Messages()
	msgs[0].Text = "modified"

	if tl.Messages()[0].Text != "a" {
		t.Fatal("Messages should return a copy, not the backing slice")
	}
}

func TestTimelineMergeProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := range 50 {
		n, m := rng.IntN(40), rng.IntN(40)
		all := make([]Message, 0, n+m)
		for i := range n + m {
			all = append(all, msgAt(fmt.Sprintf("m%03d", i), i))
		}
		history, live := all[:n], all[n:]

		tl := NewTimeline()
		// Live feed may redeliver part of the history tail.
		overlap := 0
		if n > 0 {
			overlap = rng.IntN(n)
		}
		tl.Merge(history)
		for _, msg := range history[n-overlap:] {
			tl.Insert(msg)
		}
		for _, msg := range live {
			tl.Insert(msg)
		}

		got := tl.Messages()
		if len(got) != n+m {
			t.Fatalf("round %d: expected %d messages, got %d", round, n+m, len(got))
		}
		seen := make(map[string]bool, len(got))
		for i, msg := range got {
			if seen[msg.ID] {
				t.Fatalf("round %d: duplicate id %s", round, msg.ID)
			}
			seen[msg.ID] = true
			if i > 0 && !got[i-1].CreatedAt.Before(msg.CreatedAt) {
				t.Fatalf("round %d: sequence not strictly ascending at %d", round, i)
			}
		}
	}
}
