package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vovakirdan/anonchat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", Migrate)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestListRoomsOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"Tech Talk", "Fun Zone", "General Chat"} {
		err := s.CreateRoom(ctx, &store.Room{ID: fmt.Sprintf("room-%d", i), Name: name, Theme: "general"})
		if err != nil {
			t.Fatalf("create room %s: %v", name, err)
		}
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	expected := []string{"Fun Zone", "General Chat", "Tech Talk"}
	if len(rooms) != len(expected) {
		t.Fatalf("expected %d rooms, got %d", len(expected), len(rooms))
	}
	for i, room := range rooms {
		if room.Name != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, room.Name)
		}
	}

	n, err := s.CountRooms(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 rooms, got %d (err %v)", n, err)
	}
}

func TestGetRoomByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRoomByID(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMessagesReturnsLatestPageAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateRoom(ctx, &store.Room{ID: "r1", Name: "General", Theme: "general"}); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := s.CreateRoom(ctx, &store.Room{ID: "r2", Name: "Other", Theme: "fun"}); err != nil {
		t.Fatalf("create room: %v", err)
	}

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		msg := &store.Message{
			ID:        fmt.Sprintf("m%d", i),
			RoomID:    "r1",
			UserID:    "anon_1",
			Username:  "HappyPanda1",
			Content:   fmt.Sprintf("hello %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}
	if err := s.SaveMessage(ctx, &store.Message{ID: "x", RoomID: "r2", UserID: "u", Username: "u", Content: "elsewhere", CreatedAt: base}); err != nil {
		t.Fatalf("save message: %v", err)
	}

	msgs, err := s.ListMessages(ctx, "r1", 3)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}

	expected := []string{"m2", "m3", "m4"}
	if len(msgs) != len(expected) {
		t.Fatalf("expected %d messages, got %d", len(expected), len(msgs))
	}
	for i, msg := range msgs {
		if msg.ID != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, msg.ID)
		}
	}
	if !msgs[0].CreatedAt.Equal(base.Add(2 * time.Millisecond)) {
		t.Errorf("created_at not preserved: %v", msgs[0].CreatedAt)
	}
}

func TestSaveMessageRejectsUnknownRoom(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveMessage(context.Background(), &store.Message{ID: "m", RoomID: "ghost", UserID: "u", Username: "u", Content: "hi", CreatedAt: time.Now()})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown room")
	}
}
