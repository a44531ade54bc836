package session

import "study-quiz-service/internal/domain"

// OptionView is one option of the current question with its highlight state.
type OptionView struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Wrong   bool   `json:"wrong"`
}

// QuestionView is the current question as the UI shows it.
type QuestionView struct {
	Text        string       `json:"text"`
	Options     []OptionView `json:"options"`
	Selected    *int         `json:"selected,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// Snapshot is a point-in-time copy of a session for rendering.
type Snapshot struct {
	ID                 string         `json:"id"`
	QuizID             string         `json:"quizId"`
	Title              string         `json:"title"`
	Status             domain.Status  `json:"status"`
	Index              int            `json:"index"`
	Total              int            `json:"total"`
	Timed              bool           `json:"timed"`
	Remaining          int            `json:"remaining"`
	Clock              string         `json:"clock,omitempty"`
	Question           *QuestionView  `json:"question,omitempty"`
	CanAdvance         bool           `json:"canAdvance"`
	Last               bool           `json:"last"`
	CompletedByTimeout bool           `json:"completedByTimeout"`
	Result             *domain.Result `json:"result,omitempty"`
	Saved              bool           `json:"saved"`
	SaveError          string         `json:"saveError,omitempty"`
}

// Snapshot captures the current state. The explanation is only revealed once
// the current question is answered.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:                 c.id,
		QuizID:             c.quiz.ID,
		Title:              c.quiz.Title,
		Status:             c.status,
		Index:              c.nav.Index(),
		Total:              c.nav.Len(),
		Timed:              c.quiz.Timed(),
		Remaining:          c.remaining,
		CompletedByTimeout: c.completedByTimeout,
		Saved:              c.saved,
	}
	if snap.Timed && c.remaining != Untimed {
		snap.Clock = FormatClock(c.remaining)
	}
	if c.saveErr != nil {
		snap.SaveError = SaveFailedMessage
	}
	if c.result != nil {
		result := *c.result
		snap.Result = &result
	}

	if c.status != domain.StatusInProgress {
		return snap
	}
	snap.CanAdvance = c.nav.CanAdvance()
	snap.Last = c.nav.Index()+1 >= c.nav.Len()

	question, ok := c.nav.Current()
	if !ok {
		return snap
	}
	index := c.nav.Index()
	view := &QuestionView{
		Text:    question.Text,
		Options: make([]OptionView, len(question.Options)),
	}
	for i, text := range question.Options {
		view.Options[i] = OptionView{
			Text:    text,
			Correct: c.nav.IsCorrectOption(index, i),
			Wrong:   c.nav.IsWrongSelection(index, i),
		}
	}
	if selected, ok := c.nav.Answers().Get(index); ok {
		view.Selected = &selected
		view.Explanation = question.Explanation
	}
	snap.Question = view
	return snap
}
