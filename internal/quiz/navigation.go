package quiz

import "lesson-quiz-service/internal/domain"

// Navigator tracks the question on screen. It never touches answers.
type Navigator struct {
	index int
	count int
}

func NewNavigator(count int) *Navigator {
	return &Navigator{count: count}
}

func (n *Navigator) Reset() { n.index = 0 }

func (n *Navigator) Index() int { return n.index }

// Next is a no-op on the last question.
func (n *Navigator) Next() bool {
	if n.index >= n.count-1 {
		return false
	}
	n.index++
	return true
}

// Previous is a no-op on the first question.
func (n *Navigator) Previous() bool {
	if n.index <= 0 {
		return false
	}
	n.index--
	return true
}

func (n *Navigator) IsLast() bool { return n.index >= n.count-1 }

func (n *Navigator) CanGoBack() bool { return n.index > 0 }

// PrimaryAction is submit on the last question and next everywhere else.
func (n *Navigator) PrimaryAction() domain.PrimaryAction {
	if n.IsLast() {
		return domain.ActionSubmit
	}
	return domain.ActionNext
}
