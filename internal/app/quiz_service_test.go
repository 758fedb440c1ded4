package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lesson-quiz-service/internal/app"
	"lesson-quiz-service/internal/domain"
	"lesson-quiz-service/internal/infra/memory"
	"lesson-quiz-service/internal/quiz"
)

func TestStartAndSubmit(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()

	attempt, err := service.Start(ctx, app.StartRequest{LessonID: "lesson-1", UserID: "u1", CourseID: "c1", NextLessonID: "lesson-2"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := attempt.ID()
	if id != "attempt-1" || store.Len() != 1 {
		t.Fatalf("expected stored attempt-1, got %s (%d stored)", id, store.Len())
	}

	view, err := service.View(ctx, id)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.Phase != domain.PhaseInProgress || view.Title != "Сандар" || view.NextLessonID != "lesson-2" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Timer.RemainingSeconds != 600 || view.Timer.Display != "10:00" {
		t.Fatalf("expected 10 minute budget, got %+v", view.Timer)
	}

	if err := service.SelectChoice(ctx, id, "1", "12"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := service.Next(ctx, id); err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if err := service.SelectChoice(ctx, id, "2", "21"); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	res, err := service.Submit(ctx, id)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if res.CorrectAnswerCount != 1 || res.ScoreDisplay != "50.0" || res.Passed {
		t.Fatalf("expected 1 correct at 50.0 and failing, got %+v", res)
	}
	if _, err := service.Submit(ctx, id); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}

	if err := service.Review(ctx, id); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	view, _ = service.View(ctx, id)
	if !view.ReviewMode || len(view.Review) != 2 {
		t.Fatalf("expected review items, got %+v", view.Review)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	attempt, err := service.Start(ctx, app.StartRequest{LessonID: "lesson-1", UserID: "u1"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel, err := service.Subscribe(ctx, attempt.ID())
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if err := service.Next(ctx, attempt.ID()); err != nil {
		t.Fatalf("next failed: %v", err)
	}
	update := <-ch
	if update.QuestionNumber != 2 || update.PrimaryAction != domain.ActionSubmit {
		t.Fatalf("expected last question, got %+v", update)
	}
}

func TestUnknownLessonIsUnavailable(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	attempt, err := service.Start(ctx, app.StartRequest{LessonID: "missing", UserID: "u1"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if attempt.Available() {
		t.Fatalf("expected unavailable attempt")
	}
	view, _ := service.View(ctx, attempt.ID())
	if view.Phase != domain.PhaseUnavailable || view.Message != quiz.MsgUnavailable {
		t.Fatalf("unexpected view %+v", view)
	}

	summary, err := service.Summary(ctx, "missing")
	if err != nil || summary.Available {
		t.Fatalf("expected unavailable summary, got %+v %v", summary, err)
	}
}

func TestSummaryHidesAnswerKeys(t *testing.T) {
	service, _ := newTestService()
	summary, err := service.Summary(context.Background(), "lesson-1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !summary.Available || summary.QuestionCount != 2 || summary.TimeLimitMinutes != 10 || summary.PassingScorePercent != 70 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestLeaveRemovesAttempt(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()

	attempt, _ := service.Start(ctx, app.StartRequest{LessonID: "lesson-1", UserID: "u1", CourseID: "c1"})
	target, err := service.Leave(ctx, attempt.ID())
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if target.CourseID != "c1" || target.LessonID != "lesson-1" {
		t.Fatalf("unexpected target %+v", target)
	}
	if store.Len() != 0 {
		t.Fatalf("expected attempt removed")
	}
	if err := service.Next(ctx, attempt.ID()); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt not found, got %v", err)
	}
}

func TestLoaderErrorsPropagate(t *testing.T) {
	boom := errors.New("db down")
	repo := repoFunc(func(context.Context, string) (domain.Payload, error) { return domain.Payload{}, boom })
	service := app.NewQuizService(memory.NewSessionStore(), repo, app.WithTickInterval(0))

	if _, err := service.Start(context.Background(), app.StartRequest{LessonID: "x", UserID: "u1"}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

type repoFunc func(ctx context.Context, lessonID string) (domain.Payload, error)

func (f repoFunc) GetQuiz(ctx context.Context, lessonID string) (domain.Payload, error) {
	return f(ctx, lessonID)
}

func newTestService() (*app.QuizService, *memory.SessionStore) {
	sessionStore := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string][]byte{
		"lesson-1": []byte(`{
			"title": "Сандар",
			"time_limit": 10,
			"questions": [
				{"id": 1, "text": "2 + 2?", "points": 5, "question_type": "MCQ",
				 "choices": [{"id": 11, "text": "3"}, {"id": 12, "text": "4", "is_correct": true}]},
				{"id": 2, "text": "3 + 3?", "points": 5, "question_type": "MCQ",
				 "choices": [{"id": 21, "text": "5"}, {"id": 22, "text": "6", "is_correct": true}]}
			]
		}`),
	}), 5*time.Minute)
	ids := 0
	service := app.NewQuizService(sessionStore, quizRepo,
		app.WithSink(quiz.LocalSink{}),
		app.WithTickInterval(0),
		app.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("attempt-%d", ids)
		}),
	)
	return service, sessionStore
}
