package chatbot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StreamChat/internal/backend"
	"StreamChat/internal/config"
)

type fakeLister struct {
	models []backend.OllamaModel
	err    error
}

func (f fakeLister) ListModels(context.Context) ([]backend.OllamaModel, error) {
	return f.models, f.err
}

func newTestBot(t *testing.T, s Streamer, input string) (*ChatBot, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	out := &bytes.Buffer{}
	return &ChatBot{
		config:     config.Config{Backend: config.BackendGemini, Plain: true},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		controller: newTestController(s),
		in:         strings.NewReader(input),
		out:        out,
	}, out
}

func TestREPL_StreamsReply(t *testing.T) {
	cb, out := newTestBot(t, &fakeStreamer{fragments: []string{"A", "B"}}, "Hi\n/quit\n")

	require.NoError(t, cb.Run(context.Background()))

	assert.Contains(t, out.String(), "Bot: AB")
	assert.Contains(t, out.String(), "Goodbye!")
	snap := cb.Controller().Snapshot()
	assert.Equal(t, []string{"user:Hi", "model:AB"}, contents(snap.Messages()))
}

func TestREPL_ShowsErrorMessageOnFailure(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"half"}, err: errors.New("boom")}
	cb, out := newTestBot(t, streamer, "Hi\n")

	require.NoError(t, cb.Run(context.Background()))

	assert.Contains(t, out.String(), ErrorMessage)
	assert.False(t, cb.Controller().Snapshot().Loading)
}

func TestREPL_SessionCommands(t *testing.T) {
	input := strings.Join([]string{
		"first",
		"/new",
		"second",
		"/list",
		"/select 2",
		"/delete 1",
		"/list",
		"/quit",
	}, "\n")
	cb, out := newTestBot(t, &fakeStreamer{fragments: []string{"ok"}}, input)

	require.NoError(t, cb.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Started a new chat")
	assert.Contains(t, text, "* 1. second")
	assert.Contains(t, text, "  2. first")
	assert.Contains(t, text, `Switched to "first"`)
	assert.Contains(t, text, `Deleted "second"`)

	snap := cb.Controller().Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, "first", snap.Sessions[0].Title)
	assert.Equal(t, snap.Sessions[0].ID, snap.ActiveID)
}

func TestREPL_SelectByID(t *testing.T) {
	cb, _ := newTestBot(t, &fakeStreamer{fragments: []string{"ok"}}, "")
	require.NoError(t, cb.Controller().Submit(context.Background(), "hello"))
	id := cb.Controller().Snapshot().ActiveID
	cb.Controller().NewSession()

	quit, err := cb.handleCommand(context.Background(), "/select "+id)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, id, cb.Controller().Snapshot().ActiveID)
}

func TestREPL_CommandErrors(t *testing.T) {
	cb, _ := newTestBot(t, &fakeStreamer{}, "")
	ctx := context.Background()

	tests := []struct {
		name    string
		command string
		wantErr string
	}{
		{"unknown", "/bogus", "unknown command"},
		{"select without argument", "/select", "usage"},
		{"select out of range", "/select 3", "no chat number 3"},
		{"delete unknown id", "/delete abc", "no chat with id abc"},
		{"models without ollama", "/models", "only available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quit, err := cb.handleCommand(ctx, tt.command)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, quit)
		})
	}
}

func TestREPL_ListModels(t *testing.T) {
	cb, out := newTestBot(t, &fakeStreamer{}, "")
	cb.models = fakeLister{models: []backend.OllamaModel{{Name: "llama3:latest", Size: 4 * 1024 * 1024 * 1024}}}

	_, err := cb.handleCommand(context.Background(), "/models")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1. llama3:latest - 4.00 GB")

	cb.models = fakeLister{err: errors.New("connection refused")}
	_, err = cb.handleCommand(context.Background(), "/models")
	assert.ErrorContains(t, err, "connection refused")
}

func TestREPL_QuitCommands(t *testing.T) {
	cb, _ := newTestBot(t, &fakeStreamer{}, "")
	for _, cmd := range []string{"/quit", "/exit"} {
		quit, err := cb.handleCommand(context.Background(), cmd)
		require.NoError(t, err)
		assert.True(t, quit)
	}
}
