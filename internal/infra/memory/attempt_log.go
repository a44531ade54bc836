package memory

import (
	"context"
	"sync"

	"study-quiz-service/internal/domain"
)

// AttemptLog keeps saved attempts in process. It is the gateway used when no
// backend or database is configured.
type AttemptLog struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

func (l *AttemptLog) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	attempt.Answers = attempt.Answers.Clone()
	l.attempts = append(l.attempts, attempt)
	return nil
}

// Attempts returns saved attempts for quizID in save order; an empty quizID returns all.
func (l *AttemptLog) Attempts(quizID string) []domain.Attempt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Attempt, 0, len(l.attempts))
	for _, attempt := range l.attempts {
		if quizID == "" || attempt.QuizID == quizID {
			out = append(out, attempt)
		}
	}
	return out
}

// ListAttempts returns a quiz's attempts newest first, at most limit when limit > 0.
func (l *AttemptLog) ListAttempts(_ context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	saved := l.Attempts(quizID)
	out := make([]domain.Attempt, 0, len(saved))
	for i := len(saved) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, saved[i])
	}
	return out, nil
}
