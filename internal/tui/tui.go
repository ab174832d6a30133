// Package tui is the terminal front-end: a room directory, a room view backed
// by a session, and the scripted pairing view.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/vovakirdan/anonchat/internal/core"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// header, input, status and help lines around the viewport
	chromeHeight = 6

	timeLayout = "15:04"
)

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = core.MaxMessageLength
	ti.Width = defaultWidth - 4
	ti.Focus()
	return ti
}

func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return sp
}

func newViewport() viewport.Model {
	return viewport.New(defaultWidth, defaultHeight-chromeHeight)
}

func resize(vp *viewport.Model, ti *textinput.Model, width, height int) {
	vp.Width = width
	vp.Height = max(height-chromeHeight, 3)
	ti.Width = max(width-4, 10)
}

// formatLine renders one message; own messages are labelled "You".
func formatLine(msg core.Message, me core.Identity) string {
	author := msg.AuthorName
	if me.Owns(msg) {
		author = "You"
	}
	return fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Local().Format(timeLayout), author, msg.Text)
}

func renderMessages(msgs []core.Message, me core.Identity, empty string) string {
	if len(msgs) == 0 {
		return empty
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatLine(msg, me))
	}
	return b.String()
}

// describe turns an error into the status line text.
func describe(err error) string {
	var (
		fetchErr    *core.FetchError
		deliveryErr *core.DeliveryError
		subErr      *core.SubscriptionError
	)
	switch {
	case errors.As(err, &fetchErr) && fetchErr.Room == "":
		return "Could not load rooms: " + fetchErr.Err.Error()
	case errors.As(err, &fetchErr):
		return "Could not load earlier messages: " + fetchErr.Err.Error()
	case errors.As(err, &deliveryErr):
		return "Message not sent: " + deliveryErr.Err.Error()
	case errors.As(err, &subErr):
		return "Live updates unavailable: " + subErr.Err.Error() + " (esc to go back and rejoin)"
	case errors.Is(err, core.ErrNotActive):
		return "Not connected to the room yet"
	default:
		return err.Error()
	}
}

func statusLine(status string) string {
	if status == "" {
		return ""
	}
	return "! " + status
}
