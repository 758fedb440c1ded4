package quiz

import (
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"

	"lesson-quiz-service/internal/domain"
)

const (
	defaultTitle            = "Тест"
	defaultDescription      = "Сабақ бойынша тест"
	defaultTimeLimitMinutes = 30
	defaultPassingScore     = 70

	externalMultipleChoice = "MCQ"

	maxMemoEntries = 256
)

// Normalize maps a decoded payload onto the internal quiz shape.
// It returns domain.ErrQuizUnavailable for absent payloads and quizzes without questions.
func Normalize(p domain.Payload) (domain.QuizDefinition, error) {
	var def domain.QuizDefinition
	switch p.Kind {
	case domain.PayloadExternal:
		if p.External == nil {
			return domain.QuizDefinition{}, domain.ErrQuizUnavailable
		}
		def = fromExternal(*p.External)
	case domain.PayloadLegacy:
		if p.Legacy == nil {
			return domain.QuizDefinition{}, domain.ErrQuizUnavailable
		}
		def = p.Legacy.Clone()
	default:
		return domain.QuizDefinition{}, domain.ErrQuizUnavailable
	}
	if len(def.Questions) == 0 {
		return domain.QuizDefinition{}, domain.ErrQuizUnavailable
	}
	return def, nil
}

func fromExternal(ext domain.ExternalQuiz) domain.QuizDefinition {
	def := domain.QuizDefinition{
		Title:               ext.Title,
		Description:         ext.Description,
		TimeLimitMinutes:    defaultTimeLimitMinutes,
		PassingScorePercent: defaultPassingScore,
		Questions:           make([]domain.Question, 0, len(ext.Questions)),
	}
	if def.Title == "" {
		def.Title = defaultTitle
	}
	if def.Description == "" {
		def.Description = defaultDescription
	}
	if ext.TimeLimit != nil && *ext.TimeLimit > 0 {
		def.TimeLimitMinutes = *ext.TimeLimit
	}
	if ext.PassingScore != nil {
		def.PassingScorePercent = *ext.PassingScore
	}

	for _, q := range ext.Questions {
		qt := domain.OpenEnded
		if q.QuestionType != nil && *q.QuestionType == externalMultipleChoice {
			qt = domain.MultipleChoice
		}
		choices := make([]domain.Choice, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, domain.Choice{ID: c.ID, Text: c.Text, IsCorrect: c.IsCorrect})
		}
		def.Questions = append(def.Questions, domain.Question{
			ID:          q.ID,
			Text:        q.Text,
			Points:      q.Points,
			Type:        qt,
			Choices:     choices,
			Explanation: q.Explanation,
		})
	}
	return def
}

// Normalizer memoizes Normalize by payload content.
type Normalizer struct {
	mu      sync.Mutex
	entries map[uint64]memoEntry
	misses  int
}

type memoEntry struct {
	def domain.QuizDefinition
	err error
}

func NewNormalizer() *Normalizer {
	return &Normalizer{entries: make(map[uint64]memoEntry)}
}

// Normalize returns the cached result when an identical payload was normalized before.
func (n *Normalizer) Normalize(p domain.Payload) (domain.QuizDefinition, error) {
	key := fingerprint(p)

	n.mu.Lock()
	defer n.mu.Unlock()
	if e, ok := n.entries[key]; ok {
		return e.def.Clone(), e.err
	}

	n.misses++
	def, err := Normalize(p)
	if len(n.entries) >= maxMemoEntries {
		n.entries = make(map[uint64]memoEntry)
	}
	n.entries[key] = memoEntry{def: def, err: err}
	return def.Clone(), err
}

// Misses counts payloads that were actually normalized rather than served from memo.
func (n *Normalizer) Misses() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.misses
}

func fingerprint(p domain.Payload) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(p.Kind.String())
	raw := p.Raw
	if len(raw) == 0 {
		switch {
		case p.External != nil:
			raw, _ = json.Marshal(p.External)
		case p.Legacy != nil:
			raw, _ = json.Marshal(p.Legacy)
		}
	}
	_, _ = d.Write(raw)
	return d.Sum64()
}
