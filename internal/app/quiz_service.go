package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"lesson-quiz-service/internal/domain"
	"lesson-quiz-service/internal/logger"
	"lesson-quiz-service/internal/quiz"
)

// SessionRepository abstracts where live attempts are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Save(attempt *quiz.Attempt)
	Get(attemptID string) (*quiz.Attempt, bool)
	Delete(attemptID string)
}

// QuizRepository loads lesson quiz payloads (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, lessonID string) (domain.Payload, error)
}

// StartRequest carries the host page context for a new attempt.
// Course and next lesson ids are passed through for display only.
type StartRequest struct {
	LessonID     string
	UserID       string
	CourseID     string
	NextLessonID string
}

// QuizService contains the quiz use cases exposed to the hosting page.
type QuizService struct {
	sessions     SessionRepository
	quizzes      QuizRepository
	normalizer   *quiz.Normalizer
	sink         quiz.Sink
	tickInterval time.Duration
	log          *logger.Logger
	newID        func() string
}

type Option func(*QuizService)

// WithSink replaces the default local scoring sink.
func WithSink(sink quiz.Sink) Option { return func(s *QuizService) { s.sink = sink } }

// WithTickInterval sets the countdown tick. Zero leaves ticking to the caller.
func WithTickInterval(d time.Duration) Option { return func(s *QuizService) { s.tickInterval = d } }

func WithLogger(l *logger.Logger) Option { return func(s *QuizService) { s.log = l } }

func WithIDGenerator(fn func() string) Option { return func(s *QuizService) { s.newID = fn } }

func NewQuizService(store SessionRepository, quizzes QuizRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:     store,
		quizzes:      quizzes,
		normalizer:   quiz.NewNormalizer(),
		sink:         quiz.LocalSink{Delay: quiz.DefaultSubmitDelay},
		tickInterval: time.Second,
		log:          logger.Nop(),
		newID:        uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start loads the lesson quiz and opens a new attempt for the learner.
// A lesson without a usable quiz still gets an attempt, rendered as unavailable.
func (s *QuizService) Start(ctx context.Context, req StartRequest) (*quiz.Attempt, error) {
	payload, err := s.quizzes.GetQuiz(ctx, req.LessonID)
	if err != nil {
		if !errors.Is(err, domain.ErrQuizNotFound) {
			return nil, err
		}
		payload = domain.AbsentPayload()
	}

	def, err := s.normalizer.Normalize(payload)
	if err != nil && !errors.Is(err, domain.ErrQuizUnavailable) {
		return nil, err
	}

	id := s.newID()
	attempt := quiz.NewAttempt(def, quiz.Options{
		ID:           id,
		CourseID:     req.CourseID,
		LessonID:     req.LessonID,
		NextLessonID: req.NextLessonID,
		Sink:         s.sink,
		TickInterval: s.tickInterval,
		Logger:       s.log.With("user_id", req.UserID),
	})
	s.sessions.Save(attempt)
	s.log.Info("quiz attempt started",
		"attempt_id", id,
		"lesson_id", req.LessonID,
		"user_id", req.UserID,
		"available", attempt.Available(),
		"payload_kind", payload.Kind.String(),
	)
	return attempt, nil
}

// Summary describes a lesson quiz without exposing answer keys.
func (s *QuizService) Summary(ctx context.Context, lessonID string) (domain.QuizSummary, error) {
	summary := domain.QuizSummary{LessonID: lessonID}
	payload, err := s.quizzes.GetQuiz(ctx, lessonID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return summary, nil
		}
		return summary, err
	}
	def, err := s.normalizer.Normalize(payload)
	if err != nil {
		if errors.Is(err, domain.ErrQuizUnavailable) {
			return summary, nil
		}
		return summary, err
	}
	summary.Available = true
	summary.Title = def.Title
	summary.Description = def.Description
	summary.TimeLimitMinutes = def.TimeLimitMinutes
	summary.PassingScorePercent = def.PassingScorePercent
	summary.QuestionCount = len(def.Questions)
	return summary, nil
}

func (s *QuizService) SelectChoice(_ context.Context, attemptID string, questionID, choiceID domain.ID) error {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return err
	}
	return attempt.SelectChoice(questionID, choiceID)
}

func (s *QuizService) AnswerText(_ context.Context, attemptID string, questionID domain.ID, text string) error {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return err
	}
	return attempt.AnswerText(questionID, text)
}

func (s *QuizService) Next(_ context.Context, attemptID string) error {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return err
	}
	return attempt.Next()
}

func (s *QuizService) Previous(_ context.Context, attemptID string) error {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return err
	}
	return attempt.Previous()
}

// Submit grades the attempt; it blocks for the sink round trip.
func (s *QuizService) Submit(ctx context.Context, attemptID string) (domain.QuizResult, error) {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	return attempt.Submit(ctx)
}

func (s *QuizService) Retake(_ context.Context, attemptID string) error {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return err
	}
	return attempt.Retake()
}

func (s *QuizService) Review(_ context.Context, attemptID string) error {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return err
	}
	return attempt.EnterReview()
}

func (s *QuizService) View(_ context.Context, attemptID string) (domain.View, error) {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return domain.View{}, err
	}
	return attempt.View(), nil
}

// Subscribe returns a channel that receives view updates for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, attemptID string) (<-chan domain.View, func(), error) {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := attempt.Subscribe()
	return ch, cancel, nil
}

// Leave tears the attempt down and returns where the learner goes back to.
func (s *QuizService) Leave(_ context.Context, attemptID string) (domain.NavigationTarget, error) {
	attempt, err := s.attempt(attemptID)
	if err != nil {
		return domain.NavigationTarget{}, err
	}
	target := attempt.Leave()
	s.sessions.Delete(attemptID)
	s.log.Info("quiz attempt closed", "attempt_id", attemptID)
	return target, nil
}

func (s *QuizService) attempt(id string) (*quiz.Attempt, error) {
	attempt, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}
