package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lesson-quiz-service/internal/domain"
)

// QuizLoader fetches lesson quiz payloads from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, lessonID string) (domain.Payload, error)
}

// QuizRepository caches payloads with TTL to avoid repeated DB hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedPayload
}

type cachedPayload struct {
	payload   domain.Payload
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPayload),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, lessonID string) (domain.Payload, error) {
	if p, ok := r.cached(lessonID); ok {
		return p, nil
	}

	result, err, _ := r.sf.Do(lessonID, func() (interface{}, error) {
		if p, ok := r.cached(lessonID); ok {
			return p, nil
		}

		payload, err := r.loader.LoadQuiz(ctx, lessonID)
		if err != nil {
			return domain.Payload{}, err
		}

		r.mu.Lock()
		r.cache[lessonID] = cachedPayload{
			payload:   payload,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		return domain.Payload{}, err
	}
	return result.(domain.Payload), nil
}

func (r *QuizRepository) cached(lessonID string) (domain.Payload, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[lessonID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Payload{}, false
	}
	return entry.payload, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a loader backed by raw JSON payloads in memory (useful for tests/demos).
type StaticQuizLoader struct {
	payloads map[string][]byte
}

func NewStaticQuizLoader(payloads map[string][]byte) *StaticQuizLoader {
	return &StaticQuizLoader{payloads: payloads}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, lessonID string) (domain.Payload, error) {
	raw, ok := l.payloads[lessonID]
	if !ok {
		return domain.Payload{}, domain.ErrQuizNotFound
	}
	return domain.DecodePayload(raw)
}
