package core

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

var (
	nameAdjectives = []string{"Happy", "Clever", "Brave", "Kind", "Swift", "Wise", "Cool", "Smart"}
	nameNouns      = []string{"Panda", "Tiger", "Eagle", "Dolphin", "Fox", "Wolf", "Bear", "Lion"}
)

// Identity is the ephemeral, unauthenticated display identity of one client run.
// It only tells "my messages" apart from others and carries no security guarantee.
type Identity struct {
	ID   string
	Name string
}

// NewIdentity generates a fresh identity from the global random source.
func NewIdentity() Identity {
	return NewIdentityWith(nil)
}

// NewIdentityWith generates an identity drawing the display name from rng.
// A nil rng uses the global source.
func NewIdentityWith(rng *rand.Rand) Identity {
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	name := fmt.Sprintf("%s%s%d",
		nameAdjectives[intn(len(nameAdjectives))],
		nameNouns[intn(len(nameNouns))],
		intn(1000),
	)
	return Identity{
		ID:   "anon_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9],
		Name: name,
	}
}

// Owns reports whether msg was written under this identity.
func (i Identity) Owns(msg Message) bool {
	return i.ID != "" && msg.AuthorID == i.ID
}
