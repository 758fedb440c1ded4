package quiz

import (
	"testing"

	"lesson-quiz-service/internal/domain"
)

func TestReviewItems(t *testing.T) {
	def := sampleDefinition()
	store := NewAnswerStore(def)
	store.RecordMultipleChoice("q1", "A") // right
	store.RecordMultipleChoice("q2", "D") // wrong, correct is C
	// q3 open ended left blank

	items := Review(def, store.Snapshot())
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.Number != 1 || first.Correct == nil || !*first.Correct || first.CorrectChoiceText != "" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if first.LearnerAnswer != "Choice A" || first.Explanation == "" {
		t.Fatalf("expected learner answer text and explanation, got %+v", first)
	}

	second := items[1]
	if second.Correct == nil || *second.Correct {
		t.Fatalf("expected second item marked wrong")
	}
	if second.CorrectChoiceText != "Choice C" {
		t.Fatalf("expected correct choice text, got %q", second.CorrectChoiceText)
	}

	third := items[2]
	if third.Correct != nil {
		t.Fatalf("open ended questions are never marked")
	}
	if third.Answered || third.LearnerAnswer != MsgNoAnswer {
		t.Fatalf("expected no-answer placeholder, got %+v", third)
	}
}

func TestReviewUnansweredMultipleChoice(t *testing.T) {
	def := domain.QuizDefinition{Questions: []domain.Question{mcq("q1", 1, "B", "A", "B")}}
	items := Review(def, NewAnswerStore(def).Snapshot())

	it := items[0]
	if it.Answered || it.LearnerAnswer != MsgNoAnswer {
		t.Fatalf("expected placeholder, got %+v", it)
	}
	if it.Correct == nil || *it.Correct || it.CorrectChoiceText != "Choice B" {
		t.Fatalf("expected wrong with correct text, got %+v", it)
	}
}
