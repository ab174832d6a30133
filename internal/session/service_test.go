package session

import (
	"context"
	"testing"

	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/feed"
	"github.com/vovakirdan/anonchat/internal/service/chat"
	"github.com/vovakirdan/anonchat/internal/store/sqlite"
)

func TestSessionAgainstChatService(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer st.Close()
	hub := feed.NewHub(nil)
	defer hub.Close()

	svc := chat.New(st, hub, nil)
	if _, err := svc.SeedRooms(ctx, chat.DefaultRooms); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rooms, err := svc.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	room := rooms[0]

	other := core.Identity{ID: "anon_other", Name: "BraveFox1"}
	if _, err := svc.Post(ctx, core.NewMessage{RoomID: room.ID, AuthorID: other.ID, AuthorName: other.Name, Text: "before"}); err != nil {
		t.Fatalf("post: %v", err)
	}

	alice := core.Identity{ID: "anon_alice", Name: "KindPanda2"}
	s, err := Open(ctx, svc, room, alice, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	snap := mustEvent(t, s, EventSnapshot)
	if len(snap.Messages) != 1 || snap.Messages[0].Text != "before" {
		t.Fatalf("unexpected snapshot: %+v", snap.Messages)
	}

	if err := s.Send(ctx, "  hello  "); err != nil {
		t.Fatalf("send: %v", err)
	}
	ev := mustEvent(t, s, EventMessage)
	if ev.Message.Text != "hello" || !s.IsMine(ev.Message) {
		t.Fatalf("unexpected echo: %+v", ev.Message)
	}

	if hub.Subscribers(room.ID) != 1 {
		t.Fatalf("expected 1 live subscriber, got %d", hub.Subscribers(room.ID))
	}
	s.Leave()
	if hub.Subscribers(room.ID) != 0 {
		t.Fatalf("leave must release the subscription, got %d", hub.Subscribers(room.ID))
	}

	// Rejoin: history now carries both messages, each exactly once.
	again, err := Open(ctx, svc, room, alice, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Leave()
	snap = mustEvent(t, again, EventSnapshot)
	if len(snap.Messages) != 2 || snap.Messages[0].Text != "before" || snap.Messages[1].Text != "hello" {
		t.Fatalf("unexpected snapshot after rejoin: %+v", snap.Messages)
	}
}
