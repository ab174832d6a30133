// Package directory lists the chat rooms a user can enter.
package directory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
)

// Directory reads the room list. It keeps no cache.
type Directory struct {
	rooms backend.RoomLister
	log   *zerolog.Logger
}

// New creates a directory over a room lister.
func New(rooms backend.RoomLister, logger *zerolog.Logger) *Directory {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Directory{rooms: rooms, log: logger}
}

// List returns all rooms sorted by name. On failure it logs, and returns an
// empty list with a *core.FetchError; nothing is retried.
func (d *Directory) List(ctx context.Context) ([]core.Room, error) {
	rooms, err := d.rooms.ListRooms(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to fetch rooms")
		return []core.Room{}, &core.FetchError{Err: err}
	}

	out := make([]core.Room, len(rooms))
	copy(out, rooms)
	core.SortRooms(out)

	d.log.Debug().Int("room_count", len(out)).Msg("rooms listed")
	return out, nil
}
