package domain

// Phase is the coarse screen an attempt is on.
type Phase string

const (
	PhaseUnavailable Phase = "unavailable"
	PhaseInProgress  Phase = "in_progress"
	PhaseSubmitting  Phase = "submitting"
	PhaseResults     Phase = "results"
)

// TimerState is the countdown lifecycle.
type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
	TimerExpired TimerState = "expired"
	TimerStopped TimerState = "stopped"
)

// PrimaryAction is what the main button does on the current question.
type PrimaryAction string

const (
	ActionNext   PrimaryAction = "next"
	ActionSubmit PrimaryAction = "submit"
)

// TimerView is the presentation of the countdown.
type TimerView struct {
	RemainingSeconds int        `json:"remainingSeconds"`
	Display          string     `json:"display"`
	Warning          bool       `json:"warning"`
	State            TimerState `json:"state"`
}

// ChoiceView is a choice without its correctness flag.
type ChoiceView struct {
	ID       ID     `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// QuestionView is the question currently on screen.
type QuestionView struct {
	ID         ID           `json:"id"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	Points     float64      `json:"points"`
	Choices    []ChoiceView `json:"choices,omitempty"`
	TextAnswer string       `json:"textAnswer,omitempty"`
}

// View is a full snapshot of an attempt for rendering.
type View struct {
	AttemptID      string        `json:"attemptId"`
	Phase          Phase         `json:"phase"`
	Title          string        `json:"title,omitempty"`
	Description    string        `json:"description,omitempty"`
	CourseID       string        `json:"courseId,omitempty"`
	LessonID       string        `json:"lessonId,omitempty"`
	NextLessonID   string        `json:"nextLessonId,omitempty"`
	QuestionNumber int           `json:"questionNumber,omitempty"`
	QuestionCount  int           `json:"questionCount"`
	Question       *QuestionView `json:"question,omitempty"`
	CanGoBack      bool          `json:"canGoBack"`
	PrimaryAction  PrimaryAction `json:"primaryAction,omitempty"`
	Timer          TimerView     `json:"timer"`
	Message        string        `json:"message,omitempty"`
	Error          string        `json:"error,omitempty"`
	Result         *QuizResult   `json:"result,omitempty"`
	ReviewMode     bool          `json:"reviewMode"`
	Review         []ReviewItem  `json:"review,omitempty"`
}
