package session

import "study-quiz-service/internal/domain"

// Navigator walks a quiz forward one question at a time and records selections.
// It is not safe for concurrent use; the Controller serializes access.
type Navigator struct {
	questions []domain.Question
	current   int
	answers   domain.Answers
}

// NewNavigator positions a navigator on the first question with no answers.
func NewNavigator(questions []domain.Question) *Navigator {
	return &Navigator{
		questions: questions,
		answers:   domain.NewAnswers(),
	}
}

// Len is the number of questions.
func (n *Navigator) Len() int {
	return len(n.questions)
}

// Index is the position of the current question.
func (n *Navigator) Index() int {
	return n.current
}

// Current returns the question being shown, false for an empty quiz.
func (n *Navigator) Current() (domain.Question, bool) {
	if n.current >= len(n.questions) {
		return domain.Question{}, false
	}
	return n.questions[n.current], true
}

// Answers exposes the recorded selections. Callers must not mutate the result.
func (n *Navigator) Answers() domain.Answers {
	return n.answers
}

// SelectAnswer records option for the current question, overwriting an earlier choice.
func (n *Navigator) SelectAnswer(option int) error {
	question, ok := n.Current()
	if !ok || option < 0 || option >= len(question.Options) {
		return domain.ErrOptionOutOfRange
	}
	n.answers.Set(n.current, option)
	return nil
}

// CanAdvance reports whether the current question has a selection.
// An empty quiz can always advance.
func (n *Navigator) CanAdvance() bool {
	if len(n.questions) == 0 {
		return true
	}
	return n.IsAnswered(n.current)
}

// Advance moves to the next question. It returns finished=true instead of
// moving when the current question is the last one.
func (n *Navigator) Advance() (finished bool, err error) {
	if !n.CanAdvance() {
		return false, domain.ErrNoAnswerSelected
	}
	if n.current+1 >= len(n.questions) {
		return true, nil
	}
	n.current++
	return false, nil
}

// IsAnswered reports whether question index has a selection.
func (n *Navigator) IsAnswered(index int) bool {
	_, ok := n.answers.Get(index)
	return ok
}

// IsCorrectOption reports whether option should be highlighted as the right
// answer: only once the question is answered.
func (n *Navigator) IsCorrectOption(index, option int) bool {
	if index < 0 || index >= len(n.questions) || !n.IsAnswered(index) {
		return false
	}
	return option == n.questions[index].CorrectOption
}

// IsWrongSelection reports whether option is the user's incorrect choice.
func (n *Navigator) IsWrongSelection(index, option int) bool {
	if index < 0 || index >= len(n.questions) {
		return false
	}
	selected, ok := n.answers.Get(index)
	return ok && selected == option && option != n.questions[index].CorrectOption
}
