package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lesson-quiz-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string][]byte{
			"lesson-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	p, err := repo.GetQuiz(context.Background(), "lesson-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if p.Kind != domain.PayloadExternal {
		t.Fatalf("expected external payload, got %s", p.Kind)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string][]byte{"lesson-1": sampleQuiz()}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "lesson-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "lesson-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestStaticLoaderUnknownLesson(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, lessonID string) (domain.Payload, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, lessonID)
}

func sampleQuiz() []byte {
	return []byte(`{"title":"Demo","questions":[{"id":"q1","text":"What is 2 + 2?","points":1,"question_type":"MCQ",
		"choices":[{"id":"o1","text":"3"},{"id":"o2","text":"4","is_correct":true}]}]}`)
}
