package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/feed"
	"github.com/vovakirdan/anonchat/internal/metrics"
	"github.com/vovakirdan/anonchat/internal/store"
)

// MaxPageSize bounds a single history read.
const MaxPageSize = backend.MaxPageSize

// maxAuthorField bounds author id and display name lengths.
const maxAuthorField = 64

// Service is the in-process realtime backend: rooms and messages persisted in
// a store, inserts fanned out through a feed broker. It satisfies
// backend.Backend so front-ends can run against it directly.
type Service struct {
	store  store.Store
	broker feed.Broker
	log    *zerolog.Logger
	now    func() time.Time
}

var _ backend.Backend = (*Service)(nil)

// New creates a chat service.
func New(st store.Store, broker feed.Broker, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:  st,
		broker: broker,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListRooms returns all rooms ordered by name.
func (s *Service) ListRooms(ctx context.Context) ([]core.Room, error) {
	rows, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]core.Room, 0, len(rows))
	for _, r := range rows {
		rooms = append(rooms, roomFromStore(r))
	}
	core.SortRooms(rooms)
	return rooms, nil
}

// GetRoom returns a single room.
func (s *Service) GetRoom(ctx context.Context, roomID string) (core.Room, error) {
	r, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Room{}, core.ErrRoomNotFound
		}
		return core.Room{}, fmt.Errorf("get room: %w", err)
	}
	return roomFromStore(r), nil
}

// ListMessages returns the latest limit messages of a room, oldest first.
func (s *Service) ListMessages(ctx context.Context, roomID string, limit int) ([]core.Message, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = backend.DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	rows, err := s.store.ListMessages(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	metrics.HistoryReads.Inc()

	msgs := make([]core.Message, 0, len(rows))
	for _, m := range rows {
		msgs = append(msgs, messageFromStore(m))
	}
	return msgs, nil
}

// Post validates, persists and publishes a new message.
func (s *Service) Post(ctx context.Context, nm core.NewMessage) (core.Message, error) {
	text, err := core.NormalizeText(nm.Text)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(rejectReason(err)).Inc()
		return core.Message{}, err
	}
	authorID := strings.TrimSpace(nm.AuthorID)
	authorName := strings.TrimSpace(nm.AuthorName)
	if authorID == "" || authorName == "" || len(authorID) > maxAuthorField || len(authorName) > maxAuthorField {
		metrics.MessagesRejected.WithLabelValues(core.ErrCodeBadRequest).Inc()
		return core.Message{}, core.ErrBadRequest
	}

	room, err := s.GetRoom(ctx, nm.RoomID)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(rejectReason(err)).Inc()
		return core.Message{}, err
	}

	msg := core.Message{
		ID:         ulid.Make().String(),
		RoomID:     room.ID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       text,
		CreatedAt:  s.now(),
	}
	if err := s.store.SaveMessage(ctx, messageToStore(msg)); err != nil {
		return core.Message{}, fmt.Errorf("save message: %w", err)
	}
	metrics.MessagesPosted.WithLabelValues(string(room.Theme.Display())).Inc()

	// The row is committed at this point; publish failures are logged only.
	if err := s.broker.Publish(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("room_id", msg.RoomID).Str("message_id", msg.ID).Msg("failed to publish message")
	}

	s.log.Debug().Str("room_id", msg.RoomID).Str("message_id", msg.ID).Str("user_id", msg.AuthorID).Msg("message posted")
	return msg, nil
}

// InsertMessage implements backend.MessageWriter.
func (s *Service) InsertMessage(ctx context.Context, nm core.NewMessage) error {
	_, err := s.Post(ctx, nm)
	return err
}

// Subscribe opens the live feed of a room.
func (s *Service) Subscribe(ctx context.Context, roomID string) (backend.Subscription, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	sub, err := s.broker.Subscribe(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

func rejectReason(err error) string {
	var ce *core.CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return "internal"
}

func roomFromStore(r *store.Room) core.Room {
	return core.Room{ID: r.ID, Name: r.Name, Description: r.Description, Theme: core.Theme(r.Theme)}
}

func messageFromStore(m *store.Message) core.Message {
	return core.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		AuthorID:   m.UserID,
		AuthorName: m.Username,
		Text:       m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

func messageToStore(m core.Message) *store.Message {
	return &store.Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.AuthorID,
		Username:  m.AuthorName,
		Content:   m.Text,
		CreatedAt: m.CreatedAt,
	}
}
