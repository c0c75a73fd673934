package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"StreamChat/internal/session"
)

type sessionItem struct {
	data session.Session
}

func (i sessionItem) Title() string { return i.data.Title }
func (i sessionItem) Description() string {
	return fmt.Sprintf("%d messages - %s", len(i.data.Messages), i.data.LastUpdated.Format("Jan 2 15:04"))
}
func (i sessionItem) FilterValue() string { return i.data.Title }

func buildSessionItems(in []session.Session) []list.Item {
	items := make([]list.Item, 0, len(in))
	for _, sess := range in {
		items = append(items, sessionItem{data: sess})
	}
	return items
}

// renderTranscript lays out messages top to bottom. Model replies go through
// the markdown renderer when one is set.
func renderTranscript(msgs []session.Message, loading bool, renderer *glamour.TermRenderer, width int) string {
	if len(msgs) == 0 {
		return dimStyle.Render("Start a conversation by typing below.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case session.RoleUser:
			b.WriteString(userLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content))
			b.WriteString("\n")
		case session.RoleModel:
			b.WriteString(modelLabelStyle.Render("Assistant"))
			b.WriteString("\n")
			last := i == len(msgs)-1
			if msg.Content == "" && last && loading {
				b.WriteString(dimStyle.Render("…"))
				b.WriteString("\n")
				continue
			}
			b.WriteString(renderMarkdown(renderer, msg.Content, width))
		}
	}
	return b.String()
}

func renderMarkdown(renderer *glamour.TermRenderer, content string, width int) string {
	if renderer != nil {
		if out, err := renderer.Render(content); err == nil {
			return out
		}
	}
	return lipgloss.NewStyle().Width(width).Render(content) + "\n"
}
