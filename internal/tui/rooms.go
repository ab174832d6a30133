package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/directory"
	"github.com/vovakirdan/anonchat/internal/session"
)

const defaultRequestTimeout = 10 * time.Second

// Options configures the rooms front-end.
type Options struct {
	Backend        backend.Backend
	Identity       core.Identity
	PageSize       int
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
}

type screen int

const (
	screenDirectory screen = iota
	screenRoom
)

type (
	roomsLoadedMsg struct {
		rooms []core.Room
		err   error
	}

	// gen ties async results to the room visit that started them.
	sessionOpenedMsg struct {
		gen     int
		session *session.Session
		err     error
	}

	sessionEventMsg struct {
		gen    int
		event  session.Event
		closed bool
	}

	sendResultMsg struct {
		gen int
		err error
	}
)

// Model is the directory plus room view. At most one session is open.
type Model struct {
	opts Options
	dir  *directory.Directory
	log  *zerolog.Logger

	screen screen
	width  int
	height int
	status string

	rooms        []core.Room
	cursor       int
	loadingRooms bool

	gen        int
	room       core.Room
	session    *session.Session
	cancelOpen context.CancelFunc
	messages   []core.Message
	sending    bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
}

// New creates the rooms front-end.
func New(opts Options) Model {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return Model{
		opts:         opts,
		dir:          directory.New(opts.Backend, logger),
		log:          logger,
		width:        defaultWidth,
		height:       defaultHeight,
		loadingRooms: true,
		input:        newInput("Type a message..."),
		viewport:     newViewport(),
		spinner:      newSpinner(),
	}
}

// Init loads the room list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadRooms(), m.spinner.Tick, textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		resize(&m.viewport, &m.input, msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case roomsLoadedMsg:
		m.loadingRooms = false
		m.rooms = msg.rooms
		if m.cursor >= len(m.rooms) {
			m.cursor = max(len(m.rooms)-1, 0)
		}
		if m.screen != screenDirectory {
			return m, nil
		}
		m.status = ""
		if msg.err != nil {
			m.status = describe(msg.err)
		}
		return m, nil

	case sessionOpenedMsg:
		return m.handleOpened(msg)

	case sessionEventMsg:
		return m.handleEvent(msg)

	case sendResultMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.sending = false
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("room_id", m.room.ID).Msg("send failed")
			m.status = describe(msg.err)
			return m, nil
		}
		m.status = ""
		m.input.Reset()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			s := m.leaveRoom()
			return m, tea.Sequence(closeSession(s), tea.Quit)
		}
		if m.screen == screenDirectory {
			return m.updateDirectory(msg)
		}
		return m.updateRoom(msg)
	}

	return m, nil
}

func (m Model) updateDirectory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rooms)-1 {
			m.cursor++
		}
	case "r":
		m.loadingRooms = true
		return m, m.loadRooms()
	case "enter":
		if len(m.rooms) == 0 {
			return m, nil
		}
		return m.joinRoom(m.rooms[m.cursor])
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateRoom(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s := m.leaveRoom()
		m.loadingRooms = true
		return m, tea.Batch(closeSession(s), m.loadRooms())
	case "enter":
		return m.submit()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input. Whitespace-only input is ignored and left as is;
// the input is cleared only once the write succeeds.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" || m.sending {
		return m, nil
	}
	if m.session == nil {
		m.status = describe(core.ErrNotActive)
		return m, nil
	}

	m.sending = true
	s, gen, timeout := m.session, m.gen, m.opts.RequestTimeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sendResultMsg{gen: gen, err: s.Send(ctx, text)}
	}
}

func (m Model) joinRoom(room core.Room) (tea.Model, tea.Cmd) {
	m.gen++
	m.screen = screenRoom
	m.room = room
	m.session = nil
	m.messages = nil
	m.sending = false
	m.status = ""
	m.input.Reset()
	m.refreshViewport()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelOpen = cancel

	gen, opts := m.gen, m.opts
	sessOpts := session.Options{PageSize: opts.PageSize, Logger: m.log}
	m.log.Info().Str("room_id", room.ID).Str("room", room.Name).Msg("joining room")
	return m, func() tea.Msg {
		s, err := session.Open(ctx, opts.Backend, room, opts.Identity, sessOpts)
		return sessionOpenedMsg{gen: gen, session: s, err: err}
	}
}

// leaveRoom forgets the current visit and returns the session to close.
// Results still in flight for the old visit are discarded by generation.
func (m *Model) leaveRoom() *session.Session {
	s := m.session
	if m.cancelOpen != nil {
		m.cancelOpen()
		m.cancelOpen = nil
	}
	if m.screen == screenRoom {
		m.log.Info().Str("room_id", m.room.ID).Msg("leaving room")
	}
	m.gen++
	m.screen = screenDirectory
	m.session = nil
	m.messages = nil
	m.sending = false
	m.status = ""
	m.input.Reset()
	return s
}

func (m Model) handleOpened(msg sessionOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		// The user left before loading finished.
		return m, closeSession(msg.session)
	}
	m.cancelOpen = nil
	if msg.err != nil {
		m.log.Error().Err(msg.err).Str("room_id", m.room.ID).Msg("failed to open room")
		m.status = describe(msg.err)
		return m, nil
	}
	m.session = msg.session
	return m, waitForEvent(m.gen, m.session)
}

func (m Model) handleEvent(msg sessionEventMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.session == nil {
		return m, nil
	}
	if msg.closed {
		return m, nil
	}

	switch msg.event.Kind {
	case session.EventSnapshot, session.EventMessage:
		m.messages = m.session.Messages()
		m.refreshViewport()
	case session.EventNotice:
		m.log.Warn().Err(msg.event.Err).Str("room_id", m.room.ID).Msg("room notice")
		m.status = describe(msg.event.Err)
	}
	return m, waitForEvent(m.gen, m.session)
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(renderMessages(m.messages, m.opts.Identity, "No messages yet. Say hi!"))
	m.viewport.GotoBottom()
}

func (m Model) loadRooms() tea.Cmd {
	dir, timeout := m.dir, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		rooms, err := dir.List(ctx)
		return roomsLoadedMsg{rooms: rooms, err: err}
	}
}

func waitForEvent(gen int, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		return sessionEventMsg{gen: gen, event: ev, closed: !ok}
	}
}

func closeSession(s *session.Session) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		s.Leave()
		return nil
	}
}

func (m Model) View() string {
	if m.screen == screenRoom {
		return m.roomView()
	}
	return m.directoryView()
}

func (m Model) directoryView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "anonchat rooms · you are %s\n\n", m.opts.Identity.Name)

	switch {
	case m.loadingRooms && len(m.rooms) == 0:
		fmt.Fprintf(&b, "%s Loading rooms...\n", m.spinner.View())
	case len(m.rooms) == 0:
		b.WriteString("No rooms available.\n")
	default:
		for i, room := range m.rooms {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}
			fmt.Fprintf(&b, "%s%s [%s]\n", cursor, room.Name, room.Theme.Display())
			if room.Description != "" {
				fmt.Fprintf(&b, "    %s\n", room.Description)
			}
		}
	}

	b.WriteString("\n" + statusLine(m.status) + "\n")
	b.WriteString("up/down select · enter join · r refresh · q quit")
	return b.String()
}

func (m Model) roomView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s [%s] · you are %s\n", m.room.Name, m.room.Theme.Display(), m.opts.Identity.Name)

	if m.session == nil && m.status == "" {
		fmt.Fprintf(&b, "%s Joining room...\n", m.spinner.View())
	} else {
		b.WriteString(m.viewport.View() + "\n")
	}

	b.WriteString(m.input.View() + "\n")
	b.WriteString(statusLine(m.status) + "\n")
	b.WriteString("enter send · pgup/pgdown scroll · esc leave")
	return b.String()
}
