package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mellow-player/mellow/style"
)

const noticeLifetime = 3 * time.Second

// notice is a short message shown next to the last line until it expires.
type notice struct {
	text string
	// generation tells a stale clear apart from the one for the current text
	generation int
}

type noticeMsg string

type clearNoticeMsg struct {
	generation int
}

func notify(text string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(text)
	}
}

func (n *notice) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case noticeMsg:
		n.text = string(msg)
		n.generation++
		generation := n.generation
		return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
			return clearNoticeMsg{generation: generation}
		})
	case clearNoticeMsg:
		if msg.generation == n.generation {
			n.text = ""
		}
	}
	return nil
}

func (n *notice) View(content string) string {
	if n.text == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Faint(n.text)
	return strings.Join(lines, "\n")
}
