package session

import (
	"sync"
)

// Store is an ordered in-memory collection of sessions, newest first.
// Callers supply unique ids; the store does not validate them.
type Store struct {
	mu       sync.RWMutex
	sessions []Session
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sessions: []Session{}}
}

// InsertFront adds a session ahead of all existing ones
func (s *Store) InsertFront(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]Session{sess.Clone()}, s.sessions...)
}

// Find returns a copy of the session with the given id
func (s *Store) Find(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return Session{}, false
}

// Contains reports whether a session with the given id exists
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Update replaces the session with the given id by fn's result. The session
// keeps its id and position. Returns false if no such session exists.
func (s *Store) Update(id string, fn func(Session) Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	updated := fn(s.sessions[i].Clone())
	updated.ID = id
	s.sessions[i] = updated
	return true
}

// UpdateMessage replaces one message of one session by fn's result.
// Returns false if either the session or the message is gone.
func (s *Store) UpdateMessage(sessionID, messageID string, fn func(Message) Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sessionID)
	if i < 0 {
		return false
	}
	msgs := s.sessions[i].Messages
	for j := range msgs {
		if msgs[j].ID == messageID {
			updated := fn(msgs[j])
			updated.ID = messageID
			msgs[j] = updated
			return true
		}
	}
	return false
}

// Remove deletes the session with the given id
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	return true
}

// List returns a deep copy of all sessions in store order
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Len returns the number of sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) indexOf(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}
