package quiz

import "lesson-quiz-service/internal/domain"

// Review builds the per question breakdown for a graded attempt. It only reads its inputs.
func Review(def domain.QuizDefinition, answers domain.AnswerState) []domain.ReviewItem {
	items := make([]domain.ReviewItem, 0, len(def.Questions))
	for i, q := range def.Questions {
		rec := answers[q.ID]
		item := domain.ReviewItem{
			Number:       i + 1,
			QuestionID:   q.ID,
			Type:         q.Type,
			QuestionText: q.Text,
			Explanation:  q.Explanation,
		}

		if q.Type != domain.MultipleChoice {
			item.Answered = rec.TextAnswer != ""
			item.LearnerAnswer = rec.TextAnswer
			if !item.Answered {
				item.LearnerAnswer = MsgNoAnswer
			}
			items = append(items, item)
			continue
		}

		item.LearnerAnswer = MsgNoAnswer
		if id, ok := rec.Selected(); ok {
			if c, ok := q.ChoiceByID(id); ok {
				item.LearnerAnswer = c.Text
				item.Answered = true
			}
		}
		correct := isCorrect(q, rec)
		item.Correct = &correct
		if !correct {
			if c, ok := q.CorrectChoice(); ok {
				item.CorrectChoiceText = c.Text
			}
		}
		items = append(items, item)
	}
	return items
}
