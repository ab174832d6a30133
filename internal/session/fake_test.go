package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
)

// fakeSub is a hand-driven live feed.
type fakeSub struct {
	mu     sync.Mutex
	ch     chan core.Message
	closed bool
	err    error
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan core.Message, 32)}
}

func (f *fakeSub) Messages() <-chan core.Message { return f.ch }

func (f *fakeSub) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSub) Close() error {
	f.end(nil)
	return nil
}

// push delivers msg unless the feed is closed; it reports whether it did.
func (f *fakeSub) push(msg core.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.ch <- msg
	return true
}

func (f *fakeSub) end(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.err = err
	close(f.ch)
}

func (f *fakeSub) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeBackend records calls and lets tests script each capability.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	subs     []*fakeSub
	inserted []core.NewMessage
	limits   []int

	history      []core.Message
	listErr      error
	subscribeErr error
	insertErr    error
	// onList runs inside ListMessages, after the feed is open.
	onList func(ctx context.Context, sub *fakeSub)
}

var _ backend.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) ListRooms(context.Context) ([]core.Room, error) {
	f.record("rooms")
	return nil, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, _ string, limit int) ([]core.Message, error) {
	f.record("list")
	f.mu.Lock()
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.onList != nil {
		f.onList(ctx, f.lastSub())
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := f.history
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append([]core.Message(nil), out...), nil
}

func (f *fakeBackend) InsertMessage(_ context.Context, msg core.NewMessage) error {
	f.record("insert")
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	f.inserted = append(f.inserted, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Subscribe(context.Context, string) (backend.Subscription, error) {
	f.record("subscribe")
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	sub := newFakeSub()
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeBackend) lastSub() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) insertedMessages() []core.NewMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.NewMessage(nil), f.inserted...)
}

var errBackend = errors.New("backend unavailable")

func msgAt(id string, sec int) core.Message {
	return core.Message{ID: id, RoomID: "room-1", AuthorID: "anon_other", AuthorName: "Other", Text: id, CreatedAt: time.Unix(int64(sec), 0)}
}

func mustEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("event stream closed before event kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}

func waitForIDs(t *testing.T, s *Session, want ...string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var got []string
	for time.Now().Before(deadline) {
		got = got[:0]
		for _, m := range s.Messages() {
			got = append(got, m.ID)
		}
		if equalIDs(got, want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected messages %v, got %v", want, got)
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
