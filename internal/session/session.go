// Package session keeps one room's message sequence in sync for as long as
// the user has the room open.
//
// Opening a session subscribes to the room's live feed first and only then
// reads history, so nothing created in between is missed. Both sources are
// merged by message id into a single timeline ordered by creation time.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
)

// errFeedEnded is reported when a feed closes without a cause.
var errFeedEnded = errors.New("live feed ended")

// eventBuffer is the capacity of the session event stream.
const eventBuffer = 64

// State is the lifecycle phase of a session.
type State int

const (
	// StateLoading: history read in flight; input is refused.
	StateLoading State = iota
	// StateActive: history merged and feed live; input accepted.
	StateActive
	// StateClosed: feed released. Terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventKind describes what changed in a session.
type EventKind int

const (
	// EventSnapshot carries the full sequence once the session is active.
	EventSnapshot EventKind = iota
	// EventMessage carries a newly inserted live message.
	EventMessage
	// EventNotice carries a recoverable error to show to the user.
	EventNotice
)

// Event is emitted on the session event stream.
type Event struct {
	Kind     EventKind
	Messages []core.Message // EventSnapshot
	Message  core.Message   // EventMessage
	Err      error          // EventNotice
}

// Options tunes a session.
type Options struct {
	// PageSize caps the history read. Defaults to backend.DefaultPageSize.
	PageSize int
	Logger   *zerolog.Logger
}

type fetchResult struct {
	messages []core.Message
	err      error
}

// Session is an open room. It owns its live subscription exclusively.
type Session struct {
	room     core.Room
	identity core.Identity
	backend  backend.Backend
	pageSize int
	log      *zerolog.Logger

	mu       sync.Mutex
	state    State
	timeline *core.Timeline
	closeErr error

	sub     backend.Subscription
	fetched chan fetchResult
	events  chan Event
	ready   chan struct{}
	quit    chan struct{}
	done    chan struct{}

	leaveOnce sync.Once
}

// Open enters room and returns once the session is active.
//
// It fails with a *core.SubscriptionError when the live feed cannot be
// established. A failed history read does not fail Open: the session starts
// with an empty history and the *core.FetchError is emitted as a notice.
// Cancelling ctx while loading closes the session and discards the result.
func Open(ctx context.Context, be backend.Backend, room core.Room, identity core.Identity, opts Options) (*Session, error) {
	s := newSession(be, room, identity, opts)

	sub, err := be.Subscribe(ctx, room.ID)
	if err != nil {
		s.state = StateClosed
		serr := &core.SubscriptionError{Room: room.ID, Err: err}
		s.log.Warn().Err(err).Msg("failed to open live feed")
		return nil, serr
	}
	s.sub = sub
	go s.loop()

	history, err := be.ListMessages(ctx, room.ID, s.pageSize)
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.Leave()
		return nil, ctxErr
	}
	res := fetchResult{messages: history}
	if err != nil {
		res.messages = nil
		res.err = &core.FetchError{Room: room.ID, Err: err}
		s.log.Warn().Err(err).Msg("failed to load room history")
	}
	s.fetched <- res

	select {
	case <-s.ready:
		return s, nil
	case <-s.done:
	}
	select {
	case <-s.ready:
		return s, nil
	default:
	}
	return nil, s.Err()
}

func newSession(be backend.Backend, room core.Room, identity core.Identity, opts Options) *Session {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = backend.DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("room_id", room.ID).Str("user_id", identity.ID).Logger()
	if pageSize > backend.MaxPageSize {
		l.Warn().Int("page_size", pageSize).Int("max", backend.MaxPageSize).Msg("page size clamped")
		pageSize = backend.MaxPageSize
	}

	return &Session{
		room:     room,
		identity: identity,
		backend:  be,
		pageSize: pageSize,
		log:      &l,
		state:    StateLoading,
		timeline: core.NewTimeline(),
		fetched:  make(chan fetchResult, 1),
		events:   make(chan Event, eventBuffer),
		ready:    make(chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// loop is the single writer of the timeline and the event stream.
func (s *Session) loop() {
	defer close(s.done)
	defer close(s.events)
	defer s.sub.Close()

	feed := s.sub.Messages()
	for {
		select {
		case <-s.quit:
			return

		case res := <-s.fetched:
			s.mu.Lock()
			s.timeline.Merge(res.messages)
			s.state = StateActive
			snapshot := s.timeline.Messages()
			s.mu.Unlock()
			close(s.ready)

			s.log.Debug().Int("messages", len(snapshot)).Msg("room session active")
			if res.err != nil && !s.emit(Event{Kind: EventNotice, Err: res.err}) {
				return
			}
			if !s.emit(Event{Kind: EventSnapshot, Messages: snapshot}) {
				return
			}

		case msg, ok := <-feed:
			if !ok {
				s.feedEnded()
				return
			}
			if msg.RoomID != "" && msg.RoomID != s.room.ID {
				continue
			}
			s.mu.Lock()
			added := s.timeline.Insert(msg)
			active := s.state == StateActive
			s.mu.Unlock()

			if added && active && !s.emit(Event{Kind: EventMessage, Message: msg}) {
				return
			}
		}
	}
}

// feedEnded closes the session after the live feed dropped. There is no
// automatic reconnect; the user rejoins the room.
func (s *Session) feedEnded() {
	cause := s.sub.Err()
	if cause == nil {
		cause = errFeedEnded
	}
	serr := &core.SubscriptionError{Room: s.room.ID, Err: cause}

	s.mu.Lock()
	wasActive := s.state == StateActive
	s.state = StateClosed
	s.closeErr = serr
	s.mu.Unlock()

	s.log.Warn().Err(cause).Msg("live feed dropped")
	if wasActive {
		s.emit(Event{Kind: EventNotice, Err: serr})
	}
}

func (s *Session) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// Send submits text to the room. The message is not added locally; it
// arrives through the live feed like everyone else's.
func (s *Session) Send(ctx context.Context, text string) error {
	if s.State() != StateActive {
		return core.ErrNotActive
	}
	body, err := core.NormalizeText(text)
	if err != nil {
		return err
	}

	err = s.backend.InsertMessage(ctx, core.NewMessage{
		RoomID:     s.room.ID,
		AuthorID:   s.identity.ID,
		AuthorName: s.identity.Name,
		Text:       body,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to send message")
		return &core.DeliveryError{Room: s.room.ID, Err: err}
	}
	return nil
}

// Leave releases the live feed and closes the event stream. It returns once
// the subscription is released and is safe to call more than once.
func (s *Session) Leave() {
	s.leaveOnce.Do(func() {
		close(s.quit)
		<-s.done

		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		s.log.Debug().Msg("left room")
	})
}

// Events streams snapshot, message and notice events. It is closed when the
// session closes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Messages returns a copy of the current ordered sequence.
func (s *Session) Messages() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Messages()
}

// State returns the lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns why the session closed on its own, if it did.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}

// Room returns the room this session is bound to.
func (s *Session) Room() core.Room {
	return s.room
}

// Identity returns the identity messages are sent under.
func (s *Session) Identity() core.Identity {
	return s.identity
}

// IsMine reports whether msg was sent under this session's identity.
func (s *Session) IsMine(msg core.Message) bool {
	return s.identity.Owns(msg)
}
