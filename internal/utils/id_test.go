package utils

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	a := NewID("ws")
	b := NewID("ws")
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if !strings.HasPrefix(a, "ws_") || len(a) != len("ws_")+16 {
		t.Fatalf("unexpected id format: %s", a)
	}
	if strings.Contains(NewID(""), "_") {
		t.Fatal("empty prefix must not add a separator")
	}
}
