package session

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// TitleLimit is the number of runes kept from the first prompt when naming a session
const TitleLimit = 25

// Message represents a single chat message
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a chat session
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewSession creates an empty session titled after the prompt that opened it
func NewSession(prompt string, now time.Time) Session {
	return Session{
		ID:          uuid.NewString(),
		Title:       DeriveTitle(prompt),
		Messages:    []Message{},
		LastUpdated: now,
	}
}

// NewMessage creates a message with a fresh id. Ids are ULIDs drawn from a
// monotonic source, so two messages made in the same millisecond still sort
// and compare distinct.
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}

// DeriveTitle returns text verbatim when short enough, else its first
// TitleLimit runes followed by an ellipsis.
func DeriveTitle(text string) string {
	if utf8.RuneCountInString(text) <= TitleLimit {
		return text
	}
	return string([]rune(text)[:TitleLimit]) + "…"
}

// Clone returns a deep copy of the session
func (s Session) Clone() Session {
	c := s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return c
}
