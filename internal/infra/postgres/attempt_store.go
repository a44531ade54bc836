package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"study-quiz-service/internal/domain"
)

// AttemptRecord is the quiz_attempts row.
type AttemptRecord struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID                 uuid.UUID       `bun:"id,pk,type:uuid"`
	QuizID             string          `bun:"quiz_id,notnull"`
	UserID             string          `bun:"user_id"`
	Answers            json.RawMessage `bun:"answers,type:jsonb,notnull"`
	Score              int             `bun:"score,notnull"`
	Total              int             `bun:"total,notnull"`
	Attempted          int             `bun:"attempted,notnull"`
	Passed             bool            `bun:"passed,notnull"`
	TimeTaken          int             `bun:"time_taken,notnull"`
	CompletedByTimeout bool            `bun:"completed_by_timeout,notnull"`
	CompletedAt        time.Time       `bun:"completed_at,notnull"`
}

// AttemptStore persists finished attempts with bun.
type AttemptStore struct {
	db    *bun.DB
	newID func() uuid.UUID
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db, newID: uuid.New}
}

// SaveAttempt inserts one row per finished session.
func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	completedAt := attempt.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	record := &AttemptRecord{
		ID:                 s.newID(),
		QuizID:             attempt.QuizID,
		UserID:             attempt.UserID,
		Answers:            answers,
		Score:              attempt.Score,
		Total:              attempt.Total,
		Attempted:          attempt.Attempted,
		Passed:             attempt.Passed,
		TimeTaken:          attempt.TimeTaken,
		CompletedByTimeout: attempt.CompletedByTimeout,
		CompletedAt:        completedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListAttempts returns a quiz's attempts, newest first.
func (s *AttemptStore) ListAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	var records []AttemptRecord
	q := s.db.NewSelect().Model(&records).Where("quiz_id = ?", quizID).Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	attempts := make([]domain.Attempt, 0, len(records))
	for _, r := range records {
		var answers domain.Answers
		if err := json.Unmarshal(r.Answers, &answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %s: %w", r.ID, err)
		}
		attempts = append(attempts, domain.Attempt{
			QuizID:             r.QuizID,
			UserID:             r.UserID,
			Answers:            answers,
			Score:              r.Score,
			Passed:             r.Passed,
			TimeTaken:          r.TimeTaken,
			Total:              r.Total,
			Attempted:          r.Attempted,
			CompletedByTimeout: r.CompletedByTimeout,
			CompletedAt:        r.CompletedAt,
		})
	}
	return attempts, nil
}
