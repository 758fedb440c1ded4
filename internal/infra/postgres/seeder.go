package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/uptrace/bun"

	"lesson-quiz-service/internal/domain"
)

// LessonQuiz is a row of lesson_quizzes.
type LessonQuiz struct {
	bun.BaseModel `bun:"table:lesson_quizzes"`

	LessonID  string    `bun:"lesson_id,pk"`
	CourseID  string    `bun:"course_id,notnull"`
	Data      string    `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SeedEntry is one item of a seed file: the raw quiz payload in either wire shape.
type SeedEntry struct {
	LessonID string          `json:"lesson_id"`
	CourseID string          `json:"course_id"`
	Quiz     json.RawMessage `json:"quiz"`
}

// ReadSeedFile parses a JSON array of seed entries.
func ReadSeedFile(path string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []SeedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return entries, nil
}

// Seeder upserts lesson quiz payloads.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// Upsert validates every payload before writing any of them.
func (s *Seeder) Upsert(ctx context.Context, entries []SeedEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	rows := make([]LessonQuiz, 0, len(entries))
	for _, e := range entries {
		if e.LessonID == "" {
			return 0, fmt.Errorf("seed entry without lesson_id")
		}
		if _, err := domain.DecodePayload(e.Quiz); err != nil {
			return 0, fmt.Errorf("lesson %s: %w", e.LessonID, err)
		}
		rows = append(rows, LessonQuiz{
			LessonID:  e.LessonID,
			CourseID:  e.CourseID,
			Data:      string(e.Quiz),
			UpdatedAt: time.Now().UTC(),
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (lesson_id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("course_id = EXCLUDED.course_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert lesson quizzes: %w", err)
	}
	return len(rows), nil
}
