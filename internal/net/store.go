package net

// SessionStore tracks live sessions for the tick loop. It is owned by
// the input system and only touched from the simulation goroutine, so
// it carries no locking.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (s *SessionStore) Add(sess *Session) {
	s.sessions[sess.ID] = sess
}

func (s *SessionStore) Remove(id uint64) {
	delete(s.sessions, id)
}

func (s *SessionStore) Get(id uint64) (*Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

// Raw exposes the underlying map for range loops. Callers must not
// mutate it.
func (s *SessionStore) Raw() map[uint64]*Session {
	return s.sessions
}

func (s *SessionStore) ForEach(fn func(*Session)) {
	for _, sess := range s.sessions {
		fn(sess)
	}
}

func (s *SessionStore) Len() int {
	return len(s.sessions)
}
