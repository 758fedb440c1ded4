package quiz

import (
	"context"
	"fmt"
	"time"

	"lesson-quiz-service/internal/domain"
)

// WarningThreshold is the remaining time under which the countdown is flagged.
const WarningThreshold = 60

// Timer is the countdown state machine: Idle -> Running -> Expired, Running -> Stopped.
// It holds no goroutines; a tickSource drives Tick.
type Timer struct {
	remaining int
	state     domain.TimerState
}

func NewTimer() *Timer {
	return &Timer{state: domain.TimerIdle}
}

// Start resets the countdown to budget seconds and runs it.
// A non-positive budget leaves the timer idle, so the quiz runs untimed.
func (t *Timer) Start(budget int) {
	if budget <= 0 {
		t.remaining = 0
		t.state = domain.TimerIdle
		return
	}
	t.remaining = budget
	t.state = domain.TimerRunning
}

// Tick decrements a running countdown and reports whether it just expired.
func (t *Timer) Tick() bool {
	if t.state != domain.TimerRunning {
		return false
	}
	if t.remaining <= 1 {
		t.remaining = 0
		t.state = domain.TimerExpired
		return true
	}
	t.remaining--
	return false
}

// Stop freezes a running countdown.
func (t *Timer) Stop() {
	if t.state == domain.TimerRunning {
		t.state = domain.TimerStopped
	}
}

// Resume restarts a stopped countdown that still has time left.
func (t *Timer) Resume() bool {
	if t.state != domain.TimerStopped || t.remaining <= 0 {
		return false
	}
	t.state = domain.TimerRunning
	return true
}

func (t *Timer) Remaining() int           { return t.remaining }
func (t *Timer) State() domain.TimerState { return t.state }
func (t *Timer) Running() bool            { return t.state == domain.TimerRunning }

// Warning reports whether less than a minute is left on a started countdown.
func (t *Timer) Warning() bool {
	return t.state != domain.TimerIdle && t.remaining < WarningThreshold
}

func (t *Timer) View() domain.TimerView {
	return domain.TimerView{
		RemainingSeconds: t.remaining,
		Display:          FormatClock(t.remaining),
		Warning:          t.Warning(),
		State:            t.state,
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// tickSource calls fn once per interval until its context is cancelled.
// Stop does not wait for an in-flight fn; callers guard fn with a generation check.
type tickSource struct {
	cancel context.CancelFunc
}

func startTicks(parent context.Context, interval time.Duration, fn func()) *tickSource {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()
	return &tickSource{cancel: cancel}
}

func (s *tickSource) Stop() {
	if s != nil {
		s.cancel()
	}
}
