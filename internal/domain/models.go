package domain

import "time"

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Question models a multiple choice question; the option index is its identifier.
type Question struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"min=1"`
	CorrectOption int      `json:"correctOption" validate:"gte=0"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is an ordered collection of questions with an optional time budget.
type Quiz struct {
	ID              string     `json:"id" validate:"required"`
	Title           string     `json:"title"`
	SubjectID       string     `json:"subjectId,omitempty"`
	DurationMinutes int        `json:"durationMinutes" validate:"gte=0"`
	PassingScore    int        `json:"passingScore"`
	Questions       []Question `json:"questions" validate:"dive"`
}

// Timed reports whether the quiz enforces a time budget.
func (q Quiz) Timed() bool {
	return q.DurationMinutes > 0
}

// DurationSeconds is the time budget in seconds, zero for untimed quizzes.
func (q Quiz) DurationSeconds() int {
	if !q.Timed() {
		return 0
	}
	return q.DurationMinutes * 60
}

// Attempt is the finished-session snapshot handed to an attempt gateway.
type Attempt struct {
	QuizID             string    `json:"quizId"`
	UserID             string    `json:"userId,omitempty"`
	Answers            Answers   `json:"answers"`
	Score              int       `json:"score"`
	Passed             bool      `json:"passed"`
	TimeTaken          int       `json:"timeTaken"`
	Total              int       `json:"total"`
	Attempted          int       `json:"attempted"`
	CompletedByTimeout bool      `json:"completedByTimeout"`
	CompletedAt        time.Time `json:"completedAt"`
}

// ReviewItem is one attempted question on the result screen.
type ReviewItem struct {
	Index         int      `json:"index"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	Selected      int      `json:"selected"`
	CorrectOption int      `json:"correctOption"`
	Correct       bool     `json:"correct"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Result summarizes a completed session for the result view.
type Result struct {
	QuizID             string       `json:"quizId"`
	Score              int          `json:"score"`
	Total              int          `json:"total"`
	Attempted          int          `json:"attempted"`
	PassingScore       int          `json:"passingScore"`
	Passed             bool         `json:"passed"`
	TimeTaken          int          `json:"timeTaken"`
	CompletedByTimeout bool         `json:"completedByTimeout"`
	Review             []ReviewItem `json:"review"`
}
