package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StreamChat/internal/session"
)

type fakeController struct {
	mu        sync.Mutex
	snap      session.Snapshot
	submitted []string
	selected  []string
	deleted   []string
	newChats  int
	changes   chan struct{}
}

func newFakeController(sessions ...session.Session) *fakeController {
	return &fakeController{
		snap:    session.Snapshot{Sessions: sessions},
		changes: make(chan struct{}, 1),
	}
}

func (f *fakeController) Submit(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
	return nil
}

func (f *fakeController) NewSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newChats++
	f.snap.ActiveID = ""
}

func (f *fakeController) SelectSession(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, id)
	f.snap.ActiveID = id
	return true
}

func (f *fakeController) DeleteSession(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.snap.Sessions[:0:0]
	for _, s := range f.snap.Sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.snap.Sessions = kept
	return true
}

func (f *fakeController) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Changes() <-chan struct{} { return f.changes }

func sized(t *testing.T, m model) model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(model)
}

func typeText(m model, text string) model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(model)
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: k})
	return updated.(model), cmd
}

func TestModel_EnterSubmitsInput(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, newModel(context.Background(), ctrl, ""))

	m = typeText(m, "Hello")
	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())

	msg := cmd()
	done, ok := msg.(submitDoneMsg)
	require.True(t, ok)
	assert.NoError(t, done.err)
	assert.Equal(t, []string{"Hello"}, ctrl.submitted)
}

func TestModel_EnterIgnoresBlankInput(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, newModel(context.Background(), ctrl, ""))

	m = typeText(m, "   ")
	_, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.submitted)
}

func TestModel_NewChatClosesSidebar(t *testing.T) {
	ctrl := newFakeController(session.NewSession("a", time.Now()))
	m := sized(t, newModel(context.Background(), ctrl, ""))

	m, _ = press(m, tea.KeyCtrlB)
	require.True(t, m.sidebarOpen)
	assert.Equal(t, focusSidebar, m.focus)

	m, _ = press(m, tea.KeyCtrlN)
	assert.Equal(t, 1, ctrl.newChats)
	assert.False(t, m.sidebarOpen)
	assert.Equal(t, focusInput, m.focus)
}

func TestModel_SidebarSelectAndDelete(t *testing.T) {
	older := session.NewSession("older", time.Now())
	newer := session.NewSession("newer", time.Now())
	ctrl := newFakeController(newer, older)
	m := sized(t, newModel(context.Background(), ctrl, ""))

	m, _ = press(m, tea.KeyCtrlB)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyEnter)

	assert.Equal(t, []string{older.ID}, ctrl.selected)
	assert.False(t, m.sidebarOpen)
	assert.Equal(t, "older", m.title())

	m, _ = press(m, tea.KeyCtrlB)
	m, _ = press(m, tea.KeyCtrlD)
	require.Len(t, ctrl.deleted, 1)
	assert.Len(t, m.sidebar.Items(), 1)
}

func TestModel_ChangedMsgRefreshesTranscript(t *testing.T) {
	sess := session.NewSession("Hi", time.Now())
	sess.Messages = []session.Message{
		session.NewMessage(session.RoleUser, "Hi", time.Now()),
		session.NewMessage(session.RoleModel, "", time.Now()),
	}
	ctrl := newFakeController(sess)
	ctrl.snap.ActiveID = sess.ID
	ctrl.snap.Loading = true
	m := sized(t, newModel(context.Background(), ctrl, ""))

	ctrl.mu.Lock()
	ctrl.snap.Sessions[0].Messages[1].Content = "streamed reply"
	ctrl.snap.Loading = false
	ctrl.mu.Unlock()

	updated, cmd := m.Update(changedMsg{})
	m = updated.(model)
	require.NotNil(t, cmd, "listener is re-armed")
	assert.False(t, m.snap.Loading)
	assert.Contains(t, m.View(), "streamed reply")
}

func TestRenderTranscript(t *testing.T) {
	msgs := []session.Message{
		session.NewMessage(session.RoleUser, "question", time.Now()),
		session.NewMessage(session.RoleModel, "", time.Now()),
	}

	out := renderTranscript(msgs, true, nil, 60)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "question")
	assert.Contains(t, out, "…")

	msgs[1].Content = "answer"
	out = renderTranscript(msgs, false, nil, 60)
	assert.Contains(t, out, "answer")
	assert.True(t, strings.Index(out, "question") < strings.Index(out, "answer"))

	assert.Contains(t, renderTranscript(nil, false, nil, 60), "Start a conversation")
}

func TestModel_MarkdownWrapFollowsChatWidth(t *testing.T) {
	ctrl := newFakeController()
	m := sized(t, newModel(context.Background(), ctrl, "notty"))

	require.NotNil(t, m.renderer)
	assert.Equal(t, 120, m.wrapWidth)

	m, _ = press(m, tea.KeyCtrlB)
	assert.Equal(t, m.transcript.Width, m.wrapWidth)
	assert.Less(t, m.wrapWidth, 120)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m = updated.(model)
	assert.Equal(t, m.transcript.Width, m.wrapWidth)
}

func TestModel_PlainTranscriptWithoutStyle(t *testing.T) {
	m := sized(t, newModel(context.Background(), newFakeController(), ""))
	assert.Nil(t, m.renderer)
	assert.Zero(t, m.wrapWidth)
}
