package session

// Snapshot is a read-only copy of the chat state handed to presentation code
type Snapshot struct {
	Sessions []Session
	ActiveID string // Empty when no chat is open
	Loading  bool
}

// Active returns the open session, if any
func (s Snapshot) Active() (Session, bool) {
	if s.ActiveID == "" {
		return Session{}, false
	}
	for _, sess := range s.Sessions {
		if sess.ID == s.ActiveID {
			return sess, true
		}
	}
	return Session{}, false
}

// Messages returns the messages of the open session, or nil
func (s Snapshot) Messages() []Message {
	if sess, ok := s.Active(); ok {
		return sess.Messages
	}
	return nil
}
