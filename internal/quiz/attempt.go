package quiz

import (
	"context"
	"sync"
	"time"

	"lesson-quiz-service/internal/domain"
	"lesson-quiz-service/internal/logger"
)

// Trigger records what started a submission.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerTimer  Trigger = "timer"
)

// Options configure an Attempt. Zero values give an untimed-by-hand attempt with local scoring.
type Options struct {
	ID           string
	CourseID     string
	LessonID     string
	NextLessonID string
	Sink         Sink
	// TickInterval drives the countdown in the background. Zero disables the
	// background tick source and leaves Tick to the caller.
	TickInterval time.Duration
	Logger       *logger.Logger
}

// Attempt is one learner's run through a quiz: answers, navigation, countdown,
// submission and review. Every event is serialized by mu.
type Attempt struct {
	id           string
	courseID     string
	lessonID     string
	nextLessonID string
	def          domain.QuizDefinition
	available    bool
	sink         Sink
	tickInterval time.Duration
	log          *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	answers     *AnswerStore
	nav         *Navigator
	timer       *Timer
	ticks       *tickSource
	generation  uint64
	submitted   bool
	loading     bool
	result      *domain.QuizResult
	reviewMode  bool
	errMsg      string
	closed      bool
	subscribers map[chan domain.View]struct{}
}

// NewAttempt loads def into a fresh attempt and starts its countdown.
// A definition without questions yields an attempt that only renders the unavailable message.
func NewAttempt(def domain.QuizDefinition, opts Options) *Attempt {
	ctx, cancel := context.WithCancel(context.Background())
	sink := opts.Sink
	if sink == nil {
		sink = LocalSink{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	a := &Attempt{
		id:           opts.ID,
		courseID:     opts.CourseID,
		lessonID:     opts.LessonID,
		nextLessonID: opts.NextLessonID,
		def:          def,
		available:    len(def.Questions) > 0,
		sink:         sink,
		tickInterval: opts.TickInterval,
		log:          log.With("attempt_id", opts.ID, "lesson_id", opts.LessonID),
		ctx:          ctx,
		cancel:       cancel,
		answers:      NewAnswerStore(def),
		nav:          NewNavigator(len(def.Questions)),
		timer:        NewTimer(),
		subscribers:  make(map[chan domain.View]struct{}),
	}
	if a.available {
		a.timer.Start(def.TimeBudgetSeconds())
		a.startTicksLocked()
	}
	return a
}

func (a *Attempt) ID() string { return a.id }

// Definition returns a copy of the quiz being taken.
func (a *Attempt) Definition() domain.QuizDefinition { return a.def.Clone() }

func (a *Attempt) Available() bool { return a.available }

// SelectChoice records a single choice for a multiple choice question.
func (a *Attempt) SelectChoice(questionID, choiceID domain.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkInputLocked(); err != nil {
		return err
	}
	q, ok := a.questionLocked(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if q.Type != domain.MultipleChoice {
		return domain.ErrWrongQuestionType
	}
	if _, ok := q.ChoiceByID(choiceID); !ok {
		return domain.ErrQuestionNotFound
	}
	a.answers.RecordMultipleChoice(questionID, choiceID)
	a.broadcastLocked()
	return nil
}

// AnswerText records free text for any question that is not multiple choice.
func (a *Attempt) AnswerText(questionID domain.ID, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkInputLocked(); err != nil {
		return err
	}
	q, ok := a.questionLocked(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if q.Type == domain.MultipleChoice {
		return domain.ErrWrongQuestionType
	}
	a.answers.RecordOpenEnded(questionID, text)
	a.broadcastLocked()
	return nil
}

func (a *Attempt) Next() error {
	return a.navigate(a.nav.Next)
}

func (a *Attempt) Previous() error {
	return a.navigate(a.nav.Previous)
}

func (a *Attempt) navigate(move func() bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkInputLocked(); err != nil {
		return err
	}
	if move() {
		a.broadcastLocked()
	}
	return nil
}

// Tick advances the countdown by one second. Hosts without a background tick
// source call it themselves. Expiry submits the attempt exactly once.
func (a *Attempt) Tick() {
	a.tick(0, false)
}

func (a *Attempt) tick(gen uint64, checkGen bool) {
	a.mu.Lock()
	if a.closed || !a.available || a.submitted || (checkGen && gen != a.generation) {
		a.mu.Unlock()
		return
	}
	if !a.timer.Tick() {
		a.broadcastLocked()
		a.mu.Unlock()
		return
	}

	a.log.Info("quiz time expired, submitting")
	def, answers, subGen := a.beginSubmitLocked()
	a.broadcastLocked()
	a.mu.Unlock()

	_, _ = a.finishSubmit(a.ctx, TriggerTimer, def, answers, subGen)
}

// Submit grades the attempt. A second submission, including one racing timer
// expiry, returns domain.ErrAlreadySubmitted and changes nothing.
func (a *Attempt) Submit(ctx context.Context) (domain.QuizResult, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return domain.QuizResult{}, domain.ErrAttemptClosed
	}
	if !a.available {
		a.mu.Unlock()
		return domain.QuizResult{}, domain.ErrQuizUnavailable
	}
	if a.submitted {
		a.mu.Unlock()
		return domain.QuizResult{}, domain.ErrAlreadySubmitted
	}
	def, answers, gen := a.beginSubmitLocked()
	a.broadcastLocked()
	a.mu.Unlock()

	return a.finishSubmit(ctx, TriggerManual, def, answers, gen)
}

// beginSubmitLocked marks the attempt submitted before any grading work starts.
func (a *Attempt) beginSubmitLocked() (domain.QuizDefinition, domain.AnswerState, uint64) {
	a.submitted = true
	a.loading = true
	a.errMsg = ""
	a.timer.Stop()
	a.stopTicksLocked()
	return a.def, a.answers.Snapshot(), a.generation
}

func (a *Attempt) finishSubmit(ctx context.Context, trigger Trigger, def domain.QuizDefinition, answers domain.AnswerState, gen uint64) (domain.QuizResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(a.ctx, cancel)
	defer stop()

	res, err := safeSubmit(ctx, a.sink, def, answers)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || gen != a.generation {
		return domain.QuizResult{}, domain.ErrAttemptClosed
	}
	a.loading = false
	if err != nil {
		a.submitted = false
		a.errMsg = MsgSubmitFailed
		if a.timer.Resume() {
			a.startTicksLocked()
		}
		a.log.Warn("quiz submission failed", "trigger", trigger, "error", err)
		a.broadcastLocked()
		return domain.QuizResult{}, err
	}

	a.result = &res
	a.log.Info("quiz graded",
		"trigger", trigger,
		"score", res.ScoreDisplay,
		"correct", res.CorrectAnswerCount,
		"total", res.TotalQuestionCount,
		"passed", res.Passed,
	)
	a.broadcastLocked()
	return res, nil
}

// Retake starts a new attempt on the same quiz. All state resets land in one view.
func (a *Attempt) Retake() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkResultLocked(); err != nil {
		return err
	}
	a.submitted = false
	a.result = nil
	a.nav.Reset()
	a.reviewMode = false
	a.answers.Reset(a.def)
	a.timer.Start(a.def.TimeBudgetSeconds())
	a.errMsg = ""
	a.startTicksLocked()
	a.broadcastLocked()
	return nil
}

// EnterReview switches the results screen into review mode.
func (a *Attempt) EnterReview() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkResultLocked(); err != nil {
		return err
	}
	if !a.reviewMode {
		a.reviewMode = true
		a.broadcastLocked()
	}
	return nil
}

// Result returns the graded result once available.
func (a *Attempt) Result() (domain.QuizResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return domain.QuizResult{}, false
	}
	return *a.result, true
}

// Answers returns a copy of the current answer state.
func (a *Attempt) Answers() domain.AnswerState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.answers.Snapshot()
}

func (a *Attempt) View() domain.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

// Close tears the attempt down: the tick source and any pending submission are
// cancelled and subscriber channels are closed. Safe to call more than once.
func (a *Attempt) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.stopTicksLocked()
	a.cancel()
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}

// Leave closes the attempt and tells the host where to go back to.
func (a *Attempt) Leave() domain.NavigationTarget {
	a.Close()
	return domain.NavigationTarget{CourseID: a.courseID, LessonID: a.lessonID}
}

// Subscribe returns a channel of view snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (a *Attempt) Subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	a.subscribers[ch] = struct{}{}
	ch <- a.viewLocked()
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) checkInputLocked() error {
	switch {
	case a.closed:
		return domain.ErrAttemptClosed
	case !a.available:
		return domain.ErrQuizUnavailable
	case a.loading || a.submitted:
		return domain.ErrInputLocked
	case a.timer.State() == domain.TimerExpired:
		// A failed time-up submission leaves only Submit open.
		return domain.ErrTimeExpired
	}
	return nil
}

func (a *Attempt) checkResultLocked() error {
	switch {
	case a.closed:
		return domain.ErrAttemptClosed
	case !a.available:
		return domain.ErrQuizUnavailable
	case a.loading:
		return domain.ErrSubmissionPending
	case a.result == nil:
		return domain.ErrNotSubmitted
	}
	return nil
}

func (a *Attempt) questionLocked(id domain.ID) (domain.Question, bool) {
	for _, q := range a.def.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

func (a *Attempt) startTicksLocked() {
	a.stopTicksLocked()
	if a.tickInterval <= 0 || !a.timer.Running() {
		return
	}
	gen := a.generation
	a.ticks = startTicks(a.ctx, a.tickInterval, func() { a.tick(gen, true) })
}

// stopTicksLocked cancels the tick source and invalidates ticks already in flight.
func (a *Attempt) stopTicksLocked() {
	a.generation++
	a.ticks.Stop()
	a.ticks = nil
}

func (a *Attempt) broadcastLocked() {
	if len(a.subscribers) == 0 {
		return
	}
	v := a.viewLocked()
	for ch := range a.subscribers {
		select {
		case ch <- v:
		default:
			// Drop the stale snapshot so a slow reader never blocks the attempt.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

func (a *Attempt) viewLocked() domain.View {
	v := domain.View{
		AttemptID:    a.id,
		CourseID:     a.courseID,
		LessonID:     a.lessonID,
		NextLessonID: a.nextLessonID,
	}
	if !a.available {
		v.Phase = domain.PhaseUnavailable
		v.Message = MsgUnavailable
		return v
	}

	v.Title = a.def.Title
	v.Description = a.def.Description
	v.QuestionCount = len(a.def.Questions)
	v.Timer = a.timer.View()

	switch {
	case a.result != nil:
		res := *a.result
		v.Phase = domain.PhaseResults
		v.Result = &res
		v.Message = MsgFailed
		if res.Passed {
			v.Message = MsgPassed
		}
		v.ReviewMode = a.reviewMode
		if a.reviewMode {
			v.Review = Review(a.def, a.answers.answers)
		}
	case a.loading:
		v.Phase = domain.PhaseSubmitting
		v.Message = MsgSubmitting
	default:
		v.Phase = domain.PhaseInProgress
		v.QuestionNumber = a.nav.Index() + 1
		v.Question = a.questionViewLocked()
		v.CanGoBack = a.nav.CanGoBack()
		v.PrimaryAction = a.nav.PrimaryAction()
		if a.timer.State() == domain.TimerExpired {
			v.CanGoBack = false
			v.PrimaryAction = domain.ActionSubmit
		}
		v.Error = a.errMsg
	}
	return v
}

func (a *Attempt) questionViewLocked() *domain.QuestionView {
	q := a.def.Questions[a.nav.Index()]
	rec, _ := a.answers.Get(q.ID)
	qv := &domain.QuestionView{
		ID:     q.ID,
		Type:   q.Type,
		Text:   q.Text,
		Points: q.Points,
	}
	if q.Type == domain.MultipleChoice {
		selected, _ := rec.Selected()
		qv.Choices = make([]domain.ChoiceView, 0, len(q.Choices))
		for _, c := range q.Choices {
			qv.Choices = append(qv.Choices, domain.ChoiceView{ID: c.ID, Text: c.Text, Selected: c.ID == selected && selected != ""})
		}
	} else {
		qv.TextAnswer = rec.TextAnswer
	}
	return qv
}
