package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizUnavailable is returned when a payload is absent or has no questions.
	ErrQuizUnavailable = errors.New("quiz data unavailable")
	// ErrAttemptNotFound is returned for unknown attempt ids.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrAttemptClosed is returned once an attempt has been torn down.
	ErrAttemptClosed = errors.New("quiz attempt closed")
	// ErrAlreadySubmitted rejects a second submission of the same attempt.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrNotSubmitted is returned by result-only actions before grading.
	ErrNotSubmitted = errors.New("quiz not submitted yet")
	// ErrSubmissionPending is returned while a submission is still being graded.
	ErrSubmissionPending = errors.New("quiz submission in progress")
	// ErrInputLocked rejects answer changes once submission has started.
	ErrInputLocked = errors.New("answers are locked")
	// ErrTimeExpired rejects answer changes after the countdown ran out.
	ErrTimeExpired = errors.New("quiz time is up")
	// ErrQuestionNotFound indicates an unknown question id.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrWrongQuestionType is returned when an answer does not fit the question variant.
	ErrWrongQuestionType = errors.New("answer does not match question type")
	// ErrSubmissionFailed wraps sink failures.
	ErrSubmissionFailed = errors.New("quiz submission failed")
)
