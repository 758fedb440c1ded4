package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"lesson-quiz-service/internal/domain"
)

// QuizLoader fetches lesson quiz payloads from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, lessonID string) (domain.Payload, error)
}

// QuizRepository caches raw quiz payloads in Redis and falls back to a loader on cache miss.
// Payloads are stored as: SET quiz:{lessonID}:payload {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, lessonID string) (domain.Payload, error) {
	if p, ok := r.fromCache(ctx, lessonID); ok {
		return p, nil
	}

	result, err, _ := r.sf.Do(lessonID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if p, ok := r.fromCache(ctx, lessonID); ok {
			return p, nil
		}

		payload, err := r.loader.LoadQuiz(ctx, lessonID)
		if err != nil {
			return domain.Payload{}, err
		}
		if len(payload.Raw) > 0 {
			// best-effort; a failed write only costs another load
			_ = r.client.Set(ctx, r.payloadKey(lessonID), payload.Raw, r.ttlWithJitter()).Err()
		}
		return payload, nil
	})
	if err != nil {
		return domain.Payload{}, err
	}
	return result.(domain.Payload), nil
}

// Invalidate drops the cached payload, e.g. after a reseed.
func (r *QuizRepository) Invalidate(ctx context.Context, lessonID string) error {
	if err := r.client.Del(ctx, r.payloadKey(lessonID)).Err(); err != nil {
		return fmt.Errorf("invalidate quiz %s: %w", lessonID, err)
	}
	return nil
}

func (r *QuizRepository) fromCache(ctx context.Context, lessonID string) (domain.Payload, bool) {
	// redis.Nil and transport errors both fall through to the loader.
	raw, err := r.client.Get(ctx, r.payloadKey(lessonID)).Bytes()
	if err != nil {
		return domain.Payload{}, false
	}
	p, err := domain.DecodePayload(raw)
	if err != nil {
		return domain.Payload{}, false
	}
	return p, true
}

func (r *QuizRepository) payloadKey(lessonID string) string {
	return "quiz:" + lessonID + ":payload"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
