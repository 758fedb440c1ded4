package quiz

import (
	"context"
	"fmt"
	"time"

	"lesson-quiz-service/internal/domain"
)

// Sink grades a submitted attempt. A networked implementation would persist results server-side.
type Sink interface {
	Submit(ctx context.Context, def domain.QuizDefinition, answers domain.AnswerState) (domain.QuizResult, error)
}

// DefaultSubmitDelay mirrors the simulated network round trip of the web client.
const DefaultSubmitDelay = time.Second

// LocalSink scores on the spot after an artificial delay.
type LocalSink struct {
	Delay time.Duration
}

func (s LocalSink) Submit(ctx context.Context, def domain.QuizDefinition, answers domain.AnswerState) (domain.QuizResult, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.QuizResult{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Score(def, answers), nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, def domain.QuizDefinition, answers domain.AnswerState) (domain.QuizResult, error)

func (f SinkFunc) Submit(ctx context.Context, def domain.QuizDefinition, answers domain.AnswerState) (domain.QuizResult, error) {
	return f(ctx, def, answers)
}

// safeSubmit turns sink panics into errors so a broken sink can not take the attempt down.
func safeSubmit(ctx context.Context, sink Sink, def domain.QuizDefinition, answers domain.AnswerState) (res domain.QuizResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrSubmissionFailed, r)
		}
	}()
	res, err = sink.Submit(ctx, def, answers)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}
	return res, nil
}
