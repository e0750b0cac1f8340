// Package session tracks per-user conversational state between updates.
package session

import "sync"

type State int

const (
	// StateNone is the implicit state before the first /start.
	StateNone State = iota
	// StateWaitingForInput follows /start: the user is picking an appeal.
	StateWaitingForInput
	// StateWaitingForTitle means the user is naming a new appeal.
	StateWaitingForTitle
	// StateHandlingAppeal means messages route into the bound appeal.
	StateHandlingAppeal
)

// Session is the FSM context for one user. AppealID is set only in
// StateHandlingAppeal.
type Session struct {
	State    State
	AppealID string
}

// Store is a session repository keyed by Telegram user id.
type Store interface {
	Get(userID int64) Session
	Set(userID int64, s Session)
	Clear(userID int64)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]Session),
	}
}

func (s *MemoryStore) Get(userID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[userID]
}

func (s *MemoryStore) Set(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = sess
}

func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}
