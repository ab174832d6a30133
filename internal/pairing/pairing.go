// Package pairing simulates one-on-one "stranger" chats entirely on the
// client: a partner is found after a random delay and answers every message
// with a scripted line. There is no matchmaking and no transport.
package pairing

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/core"
)

// DefaultResponses is the scripted reply pool.
var DefaultResponses = []string{
	"Hey! How's it going?",
	"That's interesting, tell me more.",
	"Haha, I know right?",
	"Where are you from?",
	"I was just thinking the same thing.",
	"What do you do for fun?",
	"No way, really?",
	"Cool! I've never tried that.",
	"Sorry, got distracted for a sec. What were we saying?",
	"Nice to meet you, stranger.",
}

// Config tunes the simulator.
type Config struct {
	MatchDelayMin time.Duration
	MatchDelayMax time.Duration
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
	Responses     []string

	Clock  clock.Clock
	Rand   *rand.Rand
	Logger *zerolog.Logger
}

// DefaultConfig returns the delays of the original prototype.
func DefaultConfig() Config {
	return Config{
		MatchDelayMin: 2 * time.Second,
		MatchDelayMax: 4 * time.Second,
		ReplyDelayMin: 1 * time.Second,
		ReplyDelayMax: 3 * time.Second,
	}
}

// EventKind describes a change in the conversation.
type EventKind int

const (
	// EventSearching: looking for a partner.
	EventSearching EventKind = iota
	// EventPaired: a partner was found.
	EventPaired
	// EventMessage: a line was added to the conversation.
	EventMessage
)

// Event is emitted on the chat event stream.
type Event struct {
	Kind    EventKind
	Partner core.Identity
	Message core.Message
}

const eventBuffer = 64

// Chat is one scripted conversation.
type Chat struct {
	me  core.Identity
	cfg Config
	log *zerolog.Logger

	mu         sync.Mutex
	partner    *core.Identity
	generation int
	timers     map[int]*clock.Timer
	timerSeq   int
	seq        int
	closed     bool
	events     chan Event
}

// New creates a chat for identity me. Zero config fields take defaults.
func New(me core.Identity, cfg Config) *Chat {
	def := DefaultConfig()
	if cfg.MatchDelayMax <= 0 {
		cfg.MatchDelayMin, cfg.MatchDelayMax = def.MatchDelayMin, def.MatchDelayMax
	}
	if cfg.ReplyDelayMax <= 0 {
		cfg.ReplyDelayMin, cfg.ReplyDelayMax = def.ReplyDelayMin, def.ReplyDelayMax
	}
	if len(cfg.Responses) == 0 {
		cfg.Responses = DefaultResponses
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Chat{
		me:     me,
		cfg:    cfg,
		log:    logger,
		timers: make(map[int]*clock.Timer),
		events: make(chan Event, eventBuffer),
	}
}

// Events streams conversation changes. It is closed by Close.
func (c *Chat) Events() <-chan Event {
	return c.events
}

// Start begins searching for a partner.
func (c *Chat) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.searchLocked()
}

// Next drops the current partner and searches for a new one.
func (c *Chat) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimersLocked()
	c.searchLocked()
}

// Partner returns the current partner, if paired.
func (c *Chat) Partner() (core.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.partner == nil {
		return core.Identity{}, false
	}
	return *c.partner, true
}

// Send adds a line from the user and schedules the partner's reply.
func (c *Chat) Send(text string) (core.Message, error) {
	body, err := core.NormalizeText(text)
	if err != nil {
		return core.Message{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.partner == nil {
		return core.Message{}, core.ErrNotActive
	}

	msg := c.lineLocked(c.me, body)
	c.emitLocked(Event{Kind: EventMessage, Message: msg})

	gen := c.generation
	partner := *c.partner
	c.afterLocked(c.delayLocked(c.cfg.ReplyDelayMin, c.cfg.ReplyDelayMax), func() {
		if c.closed || gen != c.generation {
			return
		}
		reply := c.cfg.Responses[c.cfg.Rand.IntN(len(c.cfg.Responses))]
		c.emitLocked(Event{Kind: EventMessage, Message: c.lineLocked(partner, reply)})
	})
	return msg, nil
}

// Close stops pending timers and closes the event stream.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimersLocked()
	close(c.events)
}

func (c *Chat) searchLocked() {
	c.generation++
	c.partner = nil
	c.emitLocked(Event{Kind: EventSearching})

	gen := c.generation
	c.afterLocked(c.delayLocked(c.cfg.MatchDelayMin, c.cfg.MatchDelayMax), func() {
		if c.closed || gen != c.generation {
			return
		}
		partner := core.NewIdentityWith(c.cfg.Rand)
		c.partner = &partner
		c.log.Debug().Str("partner", partner.Name).Msg("paired with stranger")
		c.emitLocked(Event{Kind: EventPaired, Partner: partner})
	})
}

// afterLocked runs fn with c.mu held once d has passed. A fired timer
// removes itself from the pending set.
func (c *Chat) afterLocked(d time.Duration, fn func()) {
	c.timerSeq++
	id := c.timerSeq
	c.timers[id] = c.cfg.Clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.timers, id)
		fn()
	})
}

func (c *Chat) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Chat) stopTimersLocked() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	// Bump so timers already firing become no-ops.
	c.generation++
	c.partner = nil
}

// delayLocked picks a uniform delay in [min, max].
func (c *Chat) delayLocked(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(c.cfg.Rand.Int64N(int64(max-min)+1))
}

func (c *Chat) lineLocked(from core.Identity, text string) core.Message {
	c.seq++
	return core.Message{
		ID:         fmt.Sprintf("local-%d", c.seq),
		AuthorID:   from.ID,
		AuthorName: from.Name,
		Text:       text,
		CreatedAt:  c.cfg.Clock.Now(),
	}
}

func (c *Chat) emitLocked(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn().Int("kind", int(ev.Kind)).Msg("pairing event dropped, consumer too slow")
	}
}
