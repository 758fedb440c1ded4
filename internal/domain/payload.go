package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PayloadKind tells which wire shape a quiz payload arrived in.
type PayloadKind int

const (
	PayloadAbsent PayloadKind = iota
	PayloadLegacy
	PayloadExternal
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadLegacy:
		return "legacy"
	case PayloadExternal:
		return "external"
	default:
		return "absent"
	}
}

// ExternalChoice is a choice as emitted by the lessons API.
type ExternalChoice struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// ExternalQuestion is a question as emitted by the lessons API.
type ExternalQuestion struct {
	ID           ID               `json:"id"`
	Text         string           `json:"text"`
	Points       float64          `json:"points"`
	QuestionType *string          `json:"question_type"`
	Choices      []ExternalChoice `json:"choices"`
	Explanation  string           `json:"explanation"`
}

// ExternalQuiz is the lessons API test shape. Absent fields stay nil so defaults can apply.
type ExternalQuiz struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	TimeLimit    *int               `json:"time_limit"`
	PassingScore *float64           `json:"passing_score"`
	Questions    []ExternalQuestion `json:"questions"`
}

// Payload is a decoded quiz payload. Exactly one of Legacy/External is set unless Kind is PayloadAbsent.
type Payload struct {
	Kind     PayloadKind
	Legacy   *QuizDefinition
	External *ExternalQuiz
	Raw      []byte
}

// AbsentPayload is what loaders hand out when a lesson has no quiz.
func AbsentPayload() Payload {
	return Payload{Kind: PayloadAbsent}
}

// LegacyPayload wraps an already normalized definition.
func LegacyPayload(def QuizDefinition) Payload {
	raw, _ := json.Marshal(def)
	return Payload{Kind: PayloadLegacy, Legacy: &def, Raw: raw}
}

// DecodePayload decodes raw quiz JSON into the shape it was sent in.
// An object whose first question carries a question_type key is the external shape.
// Empty input, null and non-object values decode as absent.
func DecodePayload(raw []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return AbsentPayload(), nil
	}
	if !json.Valid(trimmed) {
		return Payload{}, fmt.Errorf("decode quiz payload: invalid json")
	}
	if trimmed[0] != '{' {
		return Payload{Kind: PayloadAbsent, Raw: trimmed}, nil
	}

	var probe struct {
		Questions []map[string]json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		// questions is not a list of objects; fall back to the legacy shape and let it fail there.
		probe.Questions = nil
	}

	if len(probe.Questions) > 0 {
		if _, ok := probe.Questions[0]["question_type"]; ok {
			var ext ExternalQuiz
			if err := json.Unmarshal(trimmed, &ext); err != nil {
				return Payload{}, fmt.Errorf("decode external quiz: %w", err)
			}
			return Payload{Kind: PayloadExternal, External: &ext, Raw: trimmed}, nil
		}
	}

	var def QuizDefinition
	if err := json.Unmarshal(trimmed, &def); err != nil {
		return Payload{}, fmt.Errorf("decode quiz: %w", err)
	}
	return Payload{Kind: PayloadLegacy, Legacy: &def, Raw: trimmed}, nil
}
