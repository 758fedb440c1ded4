package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// QuestionType discriminates the two supported question variants.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	OpenEnded      QuestionType = "open_ended"
)

// ID is an opaque identifier. Upstream APIs emit either strings or numbers; both decode to a string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Choice is one selectable answer of a multiple choice question.
type Choice struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is either a multiple choice question (Choices set) or an open ended one.
type Question struct {
	ID          ID           `json:"id"`
	Text        string       `json:"text"`
	Points      float64      `json:"points"`
	Type        QuestionType `json:"type"`
	Choices     []Choice     `json:"choices"`
	Explanation string       `json:"explanation"`
}

// CorrectChoice returns the first choice flagged correct.
func (q Question) CorrectChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c, true
		}
	}
	return Choice{}, false
}

// ChoiceByID looks up a choice of the question.
func (q Question) ChoiceByID(id ID) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// QuizDefinition is the normalized quiz. Question order is display and navigation order.
type QuizDefinition struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	TimeLimitMinutes    int        `json:"time_limit_minutes"`
	PassingScorePercent float64    `json:"passing_score"`
	Questions           []Question `json:"questions"`
}

// TimeBudgetSeconds is the full countdown for one attempt.
func (d QuizDefinition) TimeBudgetSeconds() int {
	return d.TimeLimitMinutes * 60
}

// Clone returns a deep copy so callers can not alias shared definitions.
func (d QuizDefinition) Clone() QuizDefinition {
	out := d
	if d.Questions == nil {
		return out
	}
	out.Questions = make([]Question, len(d.Questions))
	for i, q := range d.Questions {
		if q.Choices != nil {
			q.Choices = append([]Choice(nil), q.Choices...)
		}
		out.Questions[i] = q
	}
	return out
}

// AnswerRecord holds the learner's answer to a single question.
// SelectedChoiceIDs is used by multiple choice questions and never holds more than one id.
type AnswerRecord struct {
	QuestionID        ID           `json:"questionId"`
	Type              QuestionType `json:"type"`
	SelectedChoiceIDs []ID         `json:"selectedChoiceIds,omitempty"`
	TextAnswer        string       `json:"textAnswer"`
}

// Selected returns the single selected choice id, if any.
func (r AnswerRecord) Selected() (ID, bool) {
	if len(r.SelectedChoiceIDs) == 0 {
		return "", false
	}
	return r.SelectedChoiceIDs[0], true
}

// AnswerState maps question ids to answer records.
type AnswerState map[ID]AnswerRecord

// Clone copies the state including selection slices.
func (s AnswerState) Clone() AnswerState {
	out := make(AnswerState, len(s))
	for id, rec := range s {
		rec.SelectedChoiceIDs = append([]ID(nil), rec.SelectedChoiceIDs...)
		out[id] = rec
	}
	return out
}

// QuizResult is the outcome of one graded attempt.
type QuizResult struct {
	ScorePercent       float64 `json:"scorePercent"`
	ScoreDisplay       string  `json:"scoreDisplay"`
	CorrectAnswerCount int     `json:"correctAnswerCount"`
	TotalQuestionCount int     `json:"totalQuestionCount"`
	AwardedPoints      float64 `json:"awardedPoints"`
	TotalPoints        float64 `json:"totalPoints"`
	Passed             bool    `json:"passed"`
}

// FormatScore renders a percentage with one decimal place.
func FormatScore(percent float64) string {
	return strconv.FormatFloat(percent, 'f', 1, 64)
}

// ReviewItem is the per question breakdown shown in review mode.
// Correct is nil for open ended questions, which are never marked.
type ReviewItem struct {
	Number            int          `json:"number"`
	QuestionID        ID           `json:"questionId"`
	Type              QuestionType `json:"type"`
	QuestionText      string       `json:"questionText"`
	LearnerAnswer     string       `json:"learnerAnswer"`
	Answered          bool         `json:"answered"`
	Correct           *bool        `json:"correct,omitempty"`
	CorrectChoiceText string       `json:"correctChoiceText,omitempty"`
	Explanation       string       `json:"explanation,omitempty"`
}

// NavigationTarget is where the host should route after the learner leaves a quiz.
type NavigationTarget struct {
	CourseID string `json:"courseId"`
	LessonID string `json:"lessonId"`
}

// QuizSummary is a public description of a lesson quiz without answer keys.
type QuizSummary struct {
	LessonID            string  `json:"lessonId"`
	Available           bool    `json:"available"`
	Title               string  `json:"title,omitempty"`
	Description         string  `json:"description,omitempty"`
	TimeLimitMinutes    int     `json:"timeLimitMinutes,omitempty"`
	PassingScorePercent float64 `json:"passingScorePercent,omitempty"`
	QuestionCount       int     `json:"questionCount"`
}
