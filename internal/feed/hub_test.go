package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
)

func mustMessage(t *testing.T, sub backend.Subscription) core.Message {
	t.Helper()

	select {
	case msg, ok := <-sub.Messages():
		if !ok {
			t.Fatalf("feed closed unexpectedly: %v", sub.Err())
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected message not received")
	}
	return core.Message{}
}

func mustClosed(t *testing.T, sub backend.Subscription) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Messages():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected feed to be closed")
		}
	}
}

func TestHubDeliversOnlyToRoomSubscribers(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	defer hub.Close()

	general, err := hub.Subscribe(ctx, "general")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	tech, err := hub.Subscribe(ctx, "tech")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := hub.Publish(ctx, core.Message{ID: "1", RoomID: "general", Text: "hi"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := mustMessage(t, general)
	if got.ID != "1" || got.Text != "hi" {
		t.Fatalf("unexpected message: %+v", got)
	}

	select {
	case msg := <-tech.Messages():
		t.Fatalf("tech subscriber received foreign message: %+v", msg)
	default:
	}
}

func TestHubCloseReleasesSubscription(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	defer hub.Close()

	sub, err := hub.Subscribe(ctx, "general")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if hub.Subscribers("general") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers("general"))
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Idempotent.
	_ = sub.Close()

	mustClosed(t, sub)
	if sub.Err() != nil {
		t.Fatalf("explicit close should not report an error, got %v", sub.Err())
	}
	if hub.Subscribers("general") != 0 {
		t.Fatalf("expected subscriber to be released, got %d", hub.Subscribers("general"))
	}

	// Publishing after release is a no-op for the old subscriber.
	if err := hub.Publish(ctx, core.Message{ID: "late", RoomID: "general"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestHubCutsOffSlowConsumer(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	defer hub.Close()

	slow, err := hub.Subscribe(ctx, "general")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for i := range subscriberBuffer + 1 {
		if err := hub.Publish(ctx, core.Message{ID: fmt.Sprint(i), RoomID: "general"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	mustClosed(t, slow)
	if !errors.Is(slow.Err(), core.ErrSlowConsumer) {
		t.Fatalf("expected slow consumer error, got %v", slow.Err())
	}
	if hub.Subscribers("general") != 0 {
		t.Fatal("slow consumer should be removed from the room")
	}
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)

	sub, err := hub.Subscribe(ctx, "general")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	hub.Close()

	mustClosed(t, sub)
	if !errors.Is(sub.Err(), ErrBrokerClosed) {
		t.Fatalf("expected broker closed error, got %v", sub.Err())
	}
	if _, err := hub.Subscribe(ctx, "general"); !errors.Is(err, ErrBrokerClosed) {
		t.Fatalf("expected subscribe after close to fail, got %v", err)
	}
}
