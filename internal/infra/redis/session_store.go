package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"lesson-quiz-service/internal/quiz"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Attempts own a live timer and subscribers, so they stay in a local map.
//   - Redis marks attempt liveness so other instances and ops tooling can see
//     which attempts are open; the marker expires on its own if the process dies.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*quiz.Attempt
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*quiz.Attempt),
	}
}

func (s *SessionStore) Save(attempt *quiz.Attempt) {
	s.mu.Lock()
	s.attempts[attempt.ID()] = attempt
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(attempt.ID()), attempt.View().LessonID, s.markerTTL(attempt)).Err()
}

// Get also pushes the liveness marker forward, so active attempts never lose it.
func (s *SessionStore) Get(attemptID string) (*quiz.Attempt, bool) {
	s.mu.RLock()
	attempt, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if ok {
		_ = s.client.Expire(context.Background(), s.key(attemptID), s.markerTTL(attempt)).Err()
	}
	return attempt, ok
}

// markerTTL outlasts the whole countdown plus the configured idle grace.
func (s *SessionStore) markerTTL(attempt *quiz.Attempt) time.Duration {
	return s.ttl + time.Duration(attempt.Definition().TimeBudgetSeconds())*time.Second
}

func (s *SessionStore) Delete(attemptID string) {
	s.mu.Lock()
	attempt, ok := s.attempts[attemptID]
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	if ok {
		attempt.Close()
	}
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

func (s *SessionStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
