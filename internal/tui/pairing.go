package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/pairing"
)

type pairEventMsg struct {
	event pairing.Event
	ok    bool
}

// PairingModel is the one-on-one stranger chat view.
type PairingModel struct {
	chat *pairing.Chat
	me   core.Identity

	partner  core.Identity
	paired   bool
	lines    []core.Message
	status   string
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
}

// NewPairing creates the pairing view over a scripted chat.
func NewPairing(chat *pairing.Chat, me core.Identity) PairingModel {
	return PairingModel{
		chat:     chat,
		me:       me,
		input:    newInput("Say something to the stranger..."),
		viewport: newViewport(),
		spinner:  newSpinner(),
	}
}

// Init starts searching for a partner.
func (m PairingModel) Init() tea.Cmd {
	chat := m.chat
	start := func() tea.Msg {
		chat.Start()
		return nil
	}
	return tea.Batch(start, waitForPair(chat), m.spinner.Tick, textinput.Blink)
}

func (m PairingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		resize(&m.viewport, &m.input, msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pairEventMsg:
		if !msg.ok {
			return m, nil
		}
		switch msg.event.Kind {
		case pairing.EventSearching:
			m.paired = false
			m.partner = core.Identity{}
			m.lines = nil
		case pairing.EventPaired:
			m.paired = true
			m.partner = msg.event.Partner
			m.status = ""
		case pairing.EventMessage:
			m.lines = append(m.lines, msg.event.Message)
		}
		m.refreshViewport()
		return m, waitForPair(m.chat)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.chat.Close()
			return m, tea.Quit
		case "ctrl+n":
			m.status = ""
			m.chat.Next()
			return m, nil
		case "enter":
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			if _, err := m.chat.Send(text); err != nil {
				m.status = describe(err)
				return m, nil
			}
			m.status = ""
			m.input.Reset()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *PairingModel) refreshViewport() {
	m.viewport.SetContent(renderMessages(m.lines, m.me, "Say hello!"))
	m.viewport.GotoBottom()
}

func waitForPair(chat *pairing.Chat) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-chat.Events()
		return pairEventMsg{event: ev, ok: ok}
	}
}

func (m PairingModel) View() string {
	var b strings.Builder
	if m.paired {
		fmt.Fprintf(&b, "You are chatting with %s · you are %s\n", m.partner.Name, m.me.Name)
		b.WriteString(m.viewport.View() + "\n")
	} else {
		fmt.Fprintf(&b, "Stranger chat · you are %s\n", m.me.Name)
		fmt.Fprintf(&b, "%s Looking for a stranger...\n", m.spinner.View())
	}

	b.WriteString(m.input.View() + "\n")
	b.WriteString(statusLine(m.status) + "\n")
	b.WriteString("enter send · ctrl+n next stranger · esc quit")
	return b.String()
}
