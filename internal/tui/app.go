// Package tui renders the chat sidebar, transcript and input box.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"StreamChat/internal/session"
)

const (
	sidebarWidth = 34
	inputHeight  = 3
)

const (
	focusInput = iota
	focusSidebar
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	userLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	modelLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	inputBackground = lipgloss.AdaptiveColor{Light: "252", Dark: "236"}
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	sidebarStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(lipgloss.Color("240"))
)

// Controller is the chat state the UI drives
type Controller interface {
	Submit(ctx context.Context, text string) error
	NewSession()
	SelectSession(id string) bool
	DeleteSession(id string) bool
	Snapshot() session.Snapshot
	Changes() <-chan struct{}
}

type model struct {
	ctx        context.Context
	controller Controller
	snap       session.Snapshot

	width  int
	height int

	sidebar     list.Model
	sidebarOpen bool
	focus       int
	transcript  viewport.Model
	input       textarea.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap

	mdStyle   string // glamour style name; empty renders replies as plain text
	renderer  *glamour.TermRenderer
	wrapWidth int

	errMsg string
}

type changedMsg struct{}

type submitDoneMsg struct{ err error }

// Run starts the full-screen chat UI and blocks until the user quits
func Run(ctx context.Context, controller Controller) error {
	// Query the terminal once, before bubbletea takes over stdin
	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}

	p := tea.NewProgram(newModel(ctx, controller, style), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, controller Controller, mdStyle string) model {
	input := textarea.New()
	input.Placeholder = "Ask anything"
	input.Prompt = ""
	input.ShowLineNumbers = false
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.FocusedStyle.Base = input.FocusedStyle.Base.Background(inputBackground)
	input.FocusedStyle.CursorLine = input.FocusedStyle.CursorLine.Background(inputBackground)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = dimStyle

	sidebar := list.New([]list.Item{}, list.NewDefaultDelegate(), sidebarWidth, 0)
	sidebar.Title = "Chats"
	sidebar.SetShowHelp(false)
	sidebar.SetShowStatusBar(false)
	sidebar.SetFilteringEnabled(false)

	m := model{
		ctx:        ctx,
		controller: controller,
		sidebar:    sidebar,
		transcript: viewport.New(0, 0),
		input:      input,
		spinner:    spin,
		help:       help.New(),
		keys:       defaultKeyMap,
		mdStyle:    mdStyle,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.controller.Changes()), textarea.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.controller.Changes())

	case submitDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewChat):
		m.controller.NewSession()
		m.closeSidebar()
		m.errMsg = ""
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		if m.sidebarOpen {
			m.closeSidebar()
		} else {
			m.sidebarOpen = true
			m.setFocus(focusSidebar)
		}
		m.layout()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.sidebarOpen {
			if m.focus == focusInput {
				m.setFocus(focusSidebar)
			} else {
				m.setFocus(focusInput)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Send) {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.Reset()
		m.errMsg = ""
		return m, submitCmd(m.ctx, m.controller, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		if item, ok := m.sidebar.SelectedItem().(sessionItem); ok {
			m.controller.SelectSession(item.data.ID)
			m.closeSidebar()
			m.layout()
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.sidebar.SelectedItem().(sessionItem); ok {
			m.controller.DeleteSession(item.data.ID)
			m.refresh()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.sidebar, cmd = m.sidebar.Update(msg)
	return m, cmd
}

func (m *model) closeSidebar() {
	m.sidebarOpen = false
	m.setFocus(focusInput)
}

func (m *model) setFocus(focus int) {
	m.focus = focus
	if focus == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// refresh pulls a fresh snapshot and rebuilds the sidebar and transcript
func (m *model) refresh() {
	m.snap = m.controller.Snapshot()

	selected := m.sidebar.Index()
	m.sidebar.SetItems(buildSessionItems(m.snap.Sessions))
	if n := len(m.snap.Sessions); selected >= n && n > 0 {
		selected = n - 1
	}
	m.sidebar.Select(selected)

	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(renderTranscript(m.snap.Messages(), m.snap.Loading, m.renderer, m.transcript.Width))
	if atBottom || m.snap.Loading {
		m.transcript.GotoBottom()
	}
}

func (m *model) layout() {
	chatWidth := m.width
	if m.sidebarOpen {
		chatWidth -= sidebarWidth + 1
		m.sidebar.SetSize(sidebarWidth, max(m.height-2, 0))
	}
	if chatWidth < 20 {
		chatWidth = 20
	}

	// header + status + help, plus the bordered input box
	transcriptHeight := m.height - 3 - (inputHeight + 2)
	if transcriptHeight < 1 {
		transcriptHeight = 1
	}

	m.transcript.Width = chatWidth
	m.transcript.Height = transcriptHeight
	m.resizeRenderer(chatWidth)
	m.input.SetWidth(max(chatWidth-2, 10))
	m.help.Width = m.width
}

// resizeRenderer rebuilds the markdown renderer when the chat width changes
func (m *model) resizeRenderer(width int) {
	if m.mdStyle == "" || width == m.wrapWidth {
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.mdStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	m.renderer = renderer
	m.wrapWidth = width
}

func (m model) View() string {
	header := headerStyle.Render(m.title())

	status := ""
	if m.snap.Loading {
		status = m.spinner.View() + dimStyle.Render(" thinking")
	}
	if m.errMsg != "" {
		status = errStyle.Render(m.errMsg)
	}

	chat := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.transcript.View(),
		status,
		inputBoxStyle.Render(m.input.View()),
	)

	body := chat
	if m.sidebarOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(m.sidebar.View()), " ", chat)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.help.View(m.keys))
}

func (m model) title() string {
	if sess, ok := m.snap.Active(); ok {
		return sess.Title
	}
	return "New chat"
}

// waitForChange blocks until the controller reports a state change
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// submitCmd runs a submit off the UI loop; progress arrives as changedMsg
func submitCmd(ctx context.Context, controller Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: controller.Submit(ctx, text)}
	}
}
