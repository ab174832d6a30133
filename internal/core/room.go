package core

import (
	"sort"
	"strings"
)

// Theme tags a room with a topic.
type Theme string

const (
	ThemeGeneral Theme = "general"
	ThemeStudy   Theme = "study"
	ThemeFun     Theme = "fun"
	ThemeTech    Theme = "tech"
	ThemeGaming  Theme = "gaming"
)

// Known reports whether the theme is one of the predefined tags.
func (t Theme) Known() bool {
	switch t {
	case ThemeGeneral, ThemeStudy, ThemeFun, ThemeTech, ThemeGaming:
		return true
	}
	return false
}

// Display returns the theme used for presentation, falling back to general.
func (t Theme) Display() Theme {
	if t.Known() {
		return t
	}
	return ThemeGeneral
}

// Room is a named, themed channel grouping a set of messages.
type Room struct {
	ID          string
	Name        string
	Description string
	Theme       Theme
}

// SortRooms orders rooms by name (case-insensitive), then by id.
func SortRooms(rooms []Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := strings.ToLower(rooms[i].Name), strings.ToLower(rooms[j].Name)
		if a != b {
			return a < b
		}
		return rooms[i].ID < rooms[j].ID
	})
}
