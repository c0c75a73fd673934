package chatbot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"StreamChat/internal/session"
	"StreamChat/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorMessage replaces a reply when the chat service fails
const ErrorMessage = "Sorry, I encountered an error. Please try again."

// ErrEmptyMessage is returned by Submit for blank input
var ErrEmptyMessage = errors.New("message is empty")

// Streamer is the chat service the controller forwards conversations to
type Streamer interface {
	Stream(ctx context.Context, history []session.Message, onFragment func(string)) error
}

// Controller owns the session store, the active-session pointer and the
// loading flag. Presentation code reads Snapshots and issues commands.
type Controller struct {
	store    *session.Store
	streamer Streamer
	logger   *slog.Logger
	tracer   trace.Tracer
	inst     *telemetry.Instruments
	now      func() time.Time

	mu       sync.Mutex
	activeID string
	loading  bool
	// generation identifies the latest submit; only it may clear loading.
	generation uint64

	changes chan struct{}
}

// pending tracks one in-flight reply
type pending struct {
	sessionID     string
	placeholderID string
	history       []session.Message
	generation    uint64
}

// NewController creates a controller over store
func NewController(store *session.Store, streamer Streamer, logger *slog.Logger, tracer trace.Tracer, inst *telemetry.Instruments) *Controller {
	return &Controller{
		store:    store,
		streamer: streamer,
		logger:   logger,
		tracer:   tracer,
		inst:     inst,
		now:      time.Now,
		changes:  make(chan struct{}, 1),
	}
}

// Changes signals after every state change. Signals coalesce: a reader that
// falls behind sees one pending signal, then reads the latest Snapshot.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Snapshot returns a deep copy of the current state
func (c *Controller) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.Snapshot{
		Sessions: c.store.List(),
		ActiveID: c.activeID,
		Loading:  c.loading,
	}
}

// Submit sends text in the active session, opening a new session when none
// is active, and blocks until the reply has finished streaming. Chat service
// failures are written into the reply as ErrorMessage, not returned.
func (c *Controller) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	ctx, span := c.tracer.Start(ctx, "chat.submit")
	defer span.End()

	req := c.begin(ctx, text)
	span.SetAttributes(
		attribute.String("chat.session_id", req.sessionID),
		attribute.Int("chat.history_length", len(req.history)),
	)

	var reply strings.Builder
	err := c.streamer.Stream(ctx, req.history, func(fragment string) {
		reply.WriteString(fragment)
		c.setReply(req, reply.String())
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat stream failed")
	}
	c.finish(req, reply.Len(), err)
	return nil
}

// begin applies the synchronous part of a submit: pick or create the target
// session, append the user message and the empty placeholder together, and
// raise the loading flag.
func (c *Controller) begin(ctx context.Context, text string) pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.store.Find(c.activeID); !ok {
		sess := session.NewSession(text, now)
		c.store.InsertFront(sess)
		c.activeID = sess.ID
		c.inst.SessionsCreated.Add(ctx, 1)
		c.logger.Info("created new session", "session_id", sess.ID, "title", sess.Title)
	}

	userMsg := session.NewMessage(session.RoleUser, text, now)
	placeholder := session.NewMessage(session.RoleModel, "", now)

	var history []session.Message
	c.store.Update(c.activeID, func(s session.Session) session.Session {
		history = make([]session.Message, 0, len(s.Messages)+1)
		history = append(history, s.Messages...)
		history = append(history, userMsg)

		s.Messages = append(s.Messages, userMsg, placeholder)
		s.LastUpdated = now
		return s
	})

	c.loading = true
	c.generation++

	req := pending{
		sessionID:     c.activeID,
		placeholderID: placeholder.ID,
		history:       history,
		generation:    c.generation,
	}
	c.logger.Debug("submitted message", "session_id", req.sessionID, "history_length", len(history))
	c.notify()
	return req
}

// setReply overwrites the placeholder with the full reply so far
func (c *Controller) setReply(req pending, content string) {
	ok := c.store.UpdateMessage(req.sessionID, req.placeholderID, func(m session.Message) session.Message {
		m.Content = content
		return m
	})
	if !ok {
		c.logger.Debug("dropped fragment for removed session", "session_id", req.sessionID)
		return
	}
	c.notify()
}

func (c *Controller) finish(req pending, received int, err error) {
	if err != nil {
		c.logger.Error("chat request failed", "session_id", req.sessionID, "partial_bytes", received, "error", err)
		c.setReply(req, ErrorMessage)
	}

	c.mu.Lock()
	if c.generation == req.generation {
		c.loading = false
	}
	c.mu.Unlock()
	c.notify()
}

// NewSession closes the active chat without deleting anything
func (c *Controller) NewSession() {
	c.mu.Lock()
	c.activeID = ""
	c.loading = false
	c.mu.Unlock()

	c.logger.Info("started new chat")
	c.notify()
}

// SelectSession opens the session with the given id. An unknown id leaves no
// chat open. Reports whether the session exists.
func (c *Controller) SelectSession(id string) bool {
	c.mu.Lock()
	found := c.store.Contains(id)
	if found {
		c.activeID = id
	} else {
		c.activeID = ""
	}
	c.loading = false
	c.mu.Unlock()

	if !found {
		c.logger.Warn("selected unknown session", "session_id", id)
	}
	c.notify()
	return found
}

// DeleteSession removes the session with the given id, closing it first if
// it is the active one. Reports whether a session was removed.
func (c *Controller) DeleteSession(id string) bool {
	c.mu.Lock()
	removed := c.store.Remove(id)
	if c.activeID == id {
		c.activeID = ""
		c.loading = false
	}
	c.mu.Unlock()

	if removed {
		c.logger.Info("deleted session", "session_id", id, "remaining", c.store.Len())
	}
	c.notify()
	return removed
}
