package core

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "trims surrounding whitespace", input: "  hello  ", want: "hello"},
		{name: "keeps inner whitespace", input: "hi  there", want: "hi  there"},
		{name: "whitespace only", input: "   ", wantErr: ErrEmptyMessage},
		{name: "empty", input: "", wantErr: ErrEmptyMessage},
		{name: "exactly at limit", input: strings.Repeat("a", MaxMessageLength), want: strings.Repeat("a", MaxMessageLength)},
		{name: "over limit", input: strings.Repeat("a", MaxMessageLength+1), wantErr: ErrMessageTooLong},
		{name: "limit counts characters not bytes", input: strings.Repeat("é", MaxMessageLength), want: strings.Repeat("é", MaxMessageLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeText(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	var fetchErr *FetchError
	if !errors.As(error(&FetchError{Room: "r", Err: cause}), &fetchErr) || !errors.Is(fetchErr, cause) {
		t.Fatal("FetchError should unwrap to its cause")
	}
	if (&DeliveryError{Err: cause}).Code() != ErrCodeDeliveryFailed {
		t.Fatal("unexpected delivery error code")
	}
	if !errors.Is(&SubscriptionError{Err: ErrSlowConsumer}, ErrSlowConsumer) {
		t.Fatal("SubscriptionError should unwrap to slow consumer sentinel")
	}
}

func TestNewIdentityFormat(t *testing.T) {
	namePattern := regexp.MustCompile(`^(Happy|Clever|Brave|Kind|Swift|Wise|Cool|Smart)(Panda|Tiger|Eagle|Dolphin|Fox|Wolf|Bear|Lion)\d{1,3}$`)
	idPattern := regexp.MustCompile(`^anon_[0-9a-f]{9}$`)

	rng := rand.New(rand.NewPCG(7, 7))
	for range 20 {
		id := NewIdentityWith(rng)
		if !namePattern.MatchString(id.Name) {
			t.Fatalf("unexpected name %q", id.Name)
		}
		if !idPattern.MatchString(id.ID) {
			t.Fatalf("unexpected id %q", id.ID)
		}
	}

	a, b := NewIdentity(), NewIdentity()
	if a.ID == b.ID {
		t.Fatal("identities should not share ids")
	}
}

func TestIdentityOwns(t *testing.T) {
	me := Identity{ID: "anon_1", Name: "Me"}
	if !me.Owns(Message{AuthorID: "anon_1"}) {
		t.Fatal("expected own message")
	}
	if me.Owns(Message{AuthorID: "anon_2"}) {
		t.Fatal("did not expect foreign message")
	}
	if (Identity{}).Owns(Message{}) {
		t.Fatal("zero identity owns nothing")
	}
}

func TestSortRooms(t *testing.T) {
	rooms := []Room{
		{ID: "3", Name: "tech Talk"},
		{ID: "2", Name: "Fun Zone"},
		{ID: "1", Name: "General Chat"},
		{ID: "0", Name: "Fun Zone"},
	}
	SortRooms(rooms)

	want := []string{"0", "2", "1", "3"}
	for i, r := range rooms {
		if r.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], r.ID)
		}
	}
}

func TestThemeDisplayFallsBack(t *testing.T) {
	if Theme("cooking").Display() != ThemeGeneral {
		t.Fatal("unknown theme should display as general")
	}
	if ThemeGaming.Display() != ThemeGaming {
		t.Fatal("known theme should display as itself")
	}
}
