package memory

import (
	"sync"

	"lesson-quiz-service/internal/quiz"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	attempts map[string]*quiz.Attempt
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		attempts: make(map[string]*quiz.Attempt),
	}
}

func (s *SessionStore) Save(attempt *quiz.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID()] = attempt
}

func (s *SessionStore) Get(attemptID string) (*quiz.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

// Delete drops the attempt and closes it in case the caller did not.
func (s *SessionStore) Delete(attemptID string) {
	s.mu.Lock()
	attempt, ok := s.attempts[attemptID]
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	if ok {
		attempt.Close()
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}
