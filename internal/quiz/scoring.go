package quiz

import "lesson-quiz-service/internal/domain"

// Score grades a finished attempt. Only multiple choice questions are auto-scored;
// open ended questions still count toward total points.
func Score(def domain.QuizDefinition, answers domain.AnswerState) domain.QuizResult {
	var (
		correct int
		awarded float64
		total   float64
	)
	for _, q := range def.Questions {
		total += q.Points
		if q.Type != domain.MultipleChoice {
			continue
		}
		if isCorrect(q, answers[q.ID]) {
			correct++
			awarded += q.Points
		}
	}

	percent := 0.0
	if total > 0 {
		percent = 100 * awarded / total
	}
	return domain.QuizResult{
		ScorePercent:       percent,
		ScoreDisplay:       domain.FormatScore(percent),
		CorrectAnswerCount: correct,
		TotalQuestionCount: len(def.Questions),
		AwardedPoints:      awarded,
		TotalPoints:        total,
		Passed:             percent >= def.PassingScorePercent,
	}
}

// isCorrect compares the selection against the first choice flagged correct.
// A question with no correct choice can never be answered correctly.
func isCorrect(q domain.Question, rec domain.AnswerRecord) bool {
	want, ok := q.CorrectChoice()
	if !ok {
		return false
	}
	got, ok := rec.Selected()
	return ok && got == want.ID
}
