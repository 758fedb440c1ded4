package quiz

import "lesson-quiz-service/internal/domain"

// AnswerStore holds in-progress answers keyed by question id.
// It performs no locking or id validation; the owning Attempt serializes access.
type AnswerStore struct {
	answers domain.AnswerState
}

func NewAnswerStore(def domain.QuizDefinition) *AnswerStore {
	s := &AnswerStore{}
	s.Reset(def)
	return s
}

// Reset seeds an empty record for every question of def.
func (s *AnswerStore) Reset(def domain.QuizDefinition) {
	s.answers = make(domain.AnswerState, len(def.Questions))
	for _, q := range def.Questions {
		rec := domain.AnswerRecord{QuestionID: q.ID, Type: q.Type}
		if q.Type == domain.MultipleChoice {
			rec.SelectedChoiceIDs = []domain.ID{}
		}
		s.answers[q.ID] = rec
	}
}

// RecordMultipleChoice replaces the whole selection with choiceID.
func (s *AnswerStore) RecordMultipleChoice(questionID, choiceID domain.ID) {
	rec := s.answers[questionID]
	rec.QuestionID = questionID
	rec.Type = domain.MultipleChoice
	rec.SelectedChoiceIDs = []domain.ID{choiceID}
	s.answers[questionID] = rec
}

// RecordOpenEnded stores text verbatim, empty string included.
func (s *AnswerStore) RecordOpenEnded(questionID domain.ID, text string) {
	rec := s.answers[questionID]
	rec.QuestionID = questionID
	rec.Type = domain.OpenEnded
	rec.TextAnswer = text
	s.answers[questionID] = rec
}

func (s *AnswerStore) Get(questionID domain.ID) (domain.AnswerRecord, bool) {
	rec, ok := s.answers[questionID]
	return rec, ok
}

// Snapshot returns a copy callers may keep after further mutation.
func (s *AnswerStore) Snapshot() domain.AnswerState {
	return s.answers.Clone()
}
