package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks the quiz structure before a session is built on it.
// Zero-question quizzes are valid; they complete as soon as they start.
func (q Quiz) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidQuiz, q.ID, err)
	}
	for i, question := range q.Questions {
		if question.CorrectOption >= len(question.Options) {
			return fmt.Errorf("%w: %s: question %d correct option %d of %d",
				ErrInvalidQuiz, q.ID, i, question.CorrectOption, len(question.Options))
		}
	}
	return nil
}
