package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/feed"
	"github.com/vovakirdan/anonchat/internal/service/chat"
	"github.com/vovakirdan/anonchat/internal/store/sqlite"
)

var me = core.Identity{ID: "anon_me", Name: "CalmOtter12"}

type fixture struct {
	svc *chat.Service
	hub *feed.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	hub := feed.NewHub(nil)
	t.Cleanup(func() { hub.Close() })

	svc := chat.New(st, hub, nil)
	if _, err := svc.SeedRooms(context.Background(), chat.DefaultRooms); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &fixture{svc: svc, hub: hub}
}

type failingRooms struct {
	backend.Backend
}

func (failingRooms) ListRooms(context.Context) ([]core.Room, error) {
	return nil, errors.New("network down")
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model, cmd
}

// run executes a command with a timeout so a blocked read fails the test.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()

	if cmd == nil {
		t.Fatal("expected a command")
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("command did not complete")
	}
	return nil
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T, be backend.Backend) Model {
	t.Helper()

	m := New(Options{Backend: be, Identity: me})
	m, _ = update(t, m, run(t, m.loadRooms()))
	return m
}

// joinedModel enters the first room and consumes the snapshot event.
// The returned command waits for the next session event.
func joinedModel(t *testing.T, fx *fixture) (Model, tea.Cmd) {
	t.Helper()

	m := loadedModel(t, fx.svc)
	m, cmd := update(t, m, key(tea.KeyEnter))
	if m.screen != screenRoom {
		t.Fatal("expected room screen after enter")
	}
	m, cmd = update(t, m, run(t, cmd))
	if m.session == nil {
		t.Fatalf("expected open session, status %q", m.status)
	}
	m, cmd = update(t, m, run(t, cmd))
	t.Cleanup(func() {
		if m.session != nil {
			m.session.Leave()
		}
	})
	return m, cmd
}

func TestDirectoryListsRoomsByName(t *testing.T) {
	fx := newFixture(t)
	m := loadedModel(t, fx.svc)

	if len(m.rooms) != len(chat.DefaultRooms) {
		t.Fatalf("expected %d rooms, got %d", len(chat.DefaultRooms), len(m.rooms))
	}
	for i := 1; i < len(m.rooms); i++ {
		if strings.ToLower(m.rooms[i-1].Name) > strings.ToLower(m.rooms[i].Name) {
			t.Fatalf("rooms not sorted: %v", m.rooms)
		}
	}

	m, _ = update(t, m, key(tea.KeyDown))
	m, _ = update(t, m, key(tea.KeyDown))
	m, _ = update(t, m, key(tea.KeyUp))
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.cursor)
	}
	if !strings.Contains(m.View(), "> "+m.rooms[1].Name) {
		t.Fatalf("selected room not highlighted:\n%s", m.View())
	}
}

func TestDirectoryFailureShowsStatus(t *testing.T) {
	m := loadedModel(t, failingRooms{})

	if len(m.rooms) != 0 {
		t.Fatalf("expected no rooms, got %d", len(m.rooms))
	}
	if !strings.Contains(m.status, "Could not load rooms") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if _, cmd := update(t, m, key(tea.KeyEnter)); cmd != nil {
		t.Fatal("enter on an empty directory must do nothing")
	}

	m, cmd := update(t, m, runes("r"))
	if !m.loadingRooms || cmd == nil {
		t.Fatal("r must trigger a refresh")
	}
}

func TestRoomSendClearsInputAfterEcho(t *testing.T) {
	fx := newFixture(t)
	m, wait := joinedModel(t, fx)

	m.input.SetValue("hello there")
	m, sendCmd := update(t, m, key(tea.KeyEnter))
	if m.input.Value() != "hello there" {
		t.Fatal("input must stay until the write succeeds")
	}

	m, _ = update(t, m, run(t, sendCmd))
	if m.input.Value() != "" || m.status != "" {
		t.Fatalf("expected cleared input, got %q (status %q)", m.input.Value(), m.status)
	}

	m, _ = update(t, m, run(t, wait))
	if len(m.messages) != 1 {
		t.Fatalf("expected echoed message, got %d", len(m.messages))
	}
	if !strings.Contains(m.viewport.View(), "You: hello there") {
		t.Fatalf("own message not labelled:\n%s", m.viewport.View())
	}
}

func TestRoomWhitespaceEnterIgnored(t *testing.T) {
	fx := newFixture(t)
	m, _ := joinedModel(t, fx)

	m.input.SetValue("   ")
	m, cmd := update(t, m, key(tea.KeyEnter))
	if cmd != nil {
		t.Fatal("whitespace input must not send")
	}
	if m.input.Value() != "   " {
		t.Fatalf("whitespace input must be left untouched, got %q", m.input.Value())
	}
}

func TestRoomFeedDropKeepsInputOnFailedSend(t *testing.T) {
	fx := newFixture(t)
	m, wait := joinedModel(t, fx)

	fx.hub.Close()
	m, _ = update(t, m, run(t, wait))
	if !strings.Contains(m.status, "Live updates unavailable") {
		t.Fatalf("expected feed notice, got %q", m.status)
	}

	m.input.SetValue("anyone?")
	m, sendCmd := update(t, m, key(tea.KeyEnter))
	m, _ = update(t, m, run(t, sendCmd))
	if m.input.Value() != "anyone?" {
		t.Fatalf("failed send must keep input, got %q", m.input.Value())
	}
	if m.status == "" {
		t.Fatal("failed send must show a status")
	}
}

func TestLeavingDiscardsLateSession(t *testing.T) {
	fx := newFixture(t)
	m := loadedModel(t, fx.svc)
	room := m.rooms[0]

	m, openCmd := update(t, m, key(tea.KeyEnter))
	// The session finishes loading, but the user leaves before the result lands.
	late := run(t, openCmd)
	if fx.hub.Subscribers(room.ID) != 1 {
		t.Fatalf("expected open feed, got %d", fx.hub.Subscribers(room.ID))
	}

	m, _ = update(t, m, key(tea.KeyEsc))
	if m.screen != screenDirectory {
		t.Fatal("esc must return to the directory")
	}

	m, closeCmd := update(t, m, late)
	if m.session != nil {
		t.Fatal("late session must not be adopted")
	}
	run(t, closeCmd)
	if fx.hub.Subscribers(room.ID) != 0 {
		t.Fatalf("late session must be closed, got %d subscribers", fx.hub.Subscribers(room.ID))
	}
}

func TestEscLeavesRoom(t *testing.T) {
	fx := newFixture(t)
	m, _ := joinedModel(t, fx)
	room := m.room
	s := m.session

	m, cmd := update(t, m, key(tea.KeyEsc))
	if m.screen != screenDirectory || m.session != nil {
		t.Fatal("esc must leave the room")
	}
	if cmd == nil {
		t.Fatal("expected leave and refresh commands")
	}

	s.Leave()
	if fx.hub.Subscribers(room.ID) != 0 {
		t.Fatalf("expected released feed, got %d", fx.hub.Subscribers(room.ID))
	}
}
