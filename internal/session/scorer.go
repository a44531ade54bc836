package session

import (
	"fmt"
	"sort"

	"study-quiz-service/internal/domain"
)

// ComputeScore counts questions whose selection equals the correct option.
// Unanswered questions never score.
func ComputeScore(quiz domain.Quiz, answers domain.Answers) int {
	score := 0
	for i, question := range quiz.Questions {
		if selected, ok := answers.Get(i); ok && selected == question.CorrectOption {
			score++
		}
	}
	return score
}

// IsPassed applies the passing rule: the score must exceed the threshold.
func IsPassed(score, passingScore int) bool {
	return score > passingScore
}

// AttemptedCount is the number of answered questions regardless of correctness.
func AttemptedCount(answers domain.Answers) int {
	return answers.Len()
}

// Review lists the attempted questions in quiz order; unattempted ones are skipped.
func Review(quiz domain.Quiz, answers domain.Answers) []domain.ReviewItem {
	indices := answers.Indices()
	sort.Ints(indices)

	items := make([]domain.ReviewItem, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(quiz.Questions) {
			continue
		}
		question := quiz.Questions[i]
		selected, _ := answers.Get(i)
		items = append(items, domain.ReviewItem{
			Index:         i,
			Text:          question.Text,
			Options:       question.Options,
			Selected:      selected,
			CorrectOption: question.CorrectOption,
			Correct:       selected == question.CorrectOption,
			Explanation:   question.Explanation,
		})
	}
	return items
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
