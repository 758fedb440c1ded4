package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lesson-quiz-service/internal/domain"
)

// QuizLoader loads lesson quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, lessonID string) (domain.Payload, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM lesson_quizzes WHERE lesson_id=$1`, lessonID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payload{}, domain.ErrQuizNotFound
		}
		return domain.Payload{}, fmt.Errorf("load quiz: %w", err)
	}
	payload, err := domain.DecodePayload(raw)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("lesson %s: %w", lessonID, err)
	}
	return payload, nil
}
