package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live quiz session has the given ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates the loaded quiz failed structural validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrOptionOutOfRange is returned when a selection does not name an option of the current question.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrNoAnswerSelected is returned when advancing past a question that has no selection.
	ErrNoAnswerSelected = errors.New("no answer selected for current question")
	// ErrSessionNotInProgress is returned for answer/advance calls outside the in-progress state.
	ErrSessionNotInProgress = errors.New("quiz session is not in progress")
	// ErrSessionClosed is returned once a session has been torn down.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrHistoryUnavailable is returned when the configured attempt store cannot list attempts.
	ErrHistoryUnavailable = errors.New("attempt history unavailable")
)
