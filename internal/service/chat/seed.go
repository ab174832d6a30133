package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/store"
)

// DefaultRooms are created on first start of an empty backend.
var DefaultRooms = []core.Room{
	{Name: "General Chat", Description: "Talk about anything and everything", Theme: core.ThemeGeneral},
	{Name: "Study Hall", Description: "Quiet focus, homework help and study buddies", Theme: core.ThemeStudy},
	{Name: "Fun Zone", Description: "Jokes, memes and random fun", Theme: core.ThemeFun},
	{Name: "Tech Talk", Description: "Programming, gadgets and everything tech", Theme: core.ThemeTech},
	{Name: "Gaming Lounge", Description: "Find teammates and talk games", Theme: core.ThemeGaming},
}

// SeedRooms creates rooms when the store has none. It returns how many were created.
func (s *Service) SeedRooms(ctx context.Context, rooms []core.Room) (int, error) {
	n, err := s.store.CountRooms(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for _, r := range rooms {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		row := &store.Room{ID: id, Name: r.Name, Description: r.Description, Theme: string(r.Theme)}
		if err := s.store.CreateRoom(ctx, row); err != nil {
			return 0, fmt.Errorf("seed room %q: %w", r.Name, err)
		}
	}

	s.log.Info().Int("rooms", len(rooms)).Msg("seeded default rooms")
	return len(rooms), nil
}
