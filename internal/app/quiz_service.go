package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/session"
)

// SessionRepository abstracts where live quiz sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(c *session.Controller)
	Get(sessionID string) (*session.Controller, bool)
	Delete(sessionID string)
	List() []*session.Controller
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// AttemptLister is implemented by attempt gateways that can read history back.
type AttemptLister interface {
	ListAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error)
}

// liveCounter is implemented by registries shared between instances.
type liveCounter interface {
	LiveCount(ctx context.Context) (int, error)
}

const (
	defaultCompletedGrace = 10 * time.Minute
	defaultIdleTimeout    = 30 * time.Minute
)

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	attempts session.AttemptGateway
	ticks    session.TickSource
	log      *zap.Logger
	newID    func() string
	now      func() time.Time

	// completedGrace keeps a finished session readable; idleTimeout bounds
	// sessions nothing else will end.
	completedGrace time.Duration
	idleTimeout    time.Duration
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

// WithTickSource replaces the wall-clock countdown, mainly for tests.
func WithTickSource(ticks session.TickSource) Option {
	return func(s *QuizService) { s.ticks = ticks }
}

// WithSessionExpiry sets how long finished sessions stay registered and how
// long a session without a running countdown may sit idle. Zero keeps the default.
func WithSessionExpiry(completedGrace, idleTimeout time.Duration) Option {
	return func(s *QuizService) {
		if completedGrace > 0 {
			s.completedGrace = completedGrace
		}
		if idleTimeout > 0 {
			s.idleTimeout = idleTimeout
		}
	}
}

// WithClock replaces time.Now for sessions and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, attempts session.AttemptGateway, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: store,
		quizzes:  quizzes,
		attempts: attempts,
		ticks:    session.WallClockTicks,
		log:      zap.NewNop(),
		newID:    uuid.NewString,
		now:      time.Now,

		completedGrace: defaultCompletedGrace,
		idleTimeout:    defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the quiz and begins a fresh session for userID.
func (s *QuizService) Start(ctx context.Context, quizID, userID string) (session.Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := quiz.Validate(); err != nil {
		s.log.Warn("rejected malformed quiz", zap.String("quiz_id", quizID), zap.Error(err))
		return session.Snapshot{}, err
	}

	c := session.New(quiz, s.attempts, session.Options{
		ID:     s.newID(),
		UserID: userID,
		Ticks:  s.ticks,
		Logger: s.log,
		Now:    s.now,
		// A countdown can complete the session with no request in flight.
		OnComplete: func(c *session.Controller) {
			if !c.Closed() {
				s.sessions.Put(c)
			}
		},
	})
	s.sessions.Put(c)

	// The countdown outlives the request that started it; persistence on
	// expiry must not inherit the request's cancellation.
	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		s.sessions.Delete(c.ID())
		c.Close()
		return session.Snapshot{}, fmt.Errorf("start session: %w", err)
	}
	return s.refresh(c), nil
}

// SelectAnswer records option for the current question of a session.
func (s *QuizService) SelectAnswer(_ context.Context, sessionID string, option int) (session.Snapshot, error) {
	c, err := s.lookup(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := c.SelectAnswer(option); err != nil {
		return session.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Advance moves a session past its current question, completing it after the last one.
func (s *QuizService) Advance(_ context.Context, sessionID string) (session.Snapshot, error) {
	c, err := s.lookup(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if _, err := c.Advance(); err != nil {
		return session.Snapshot{}, err
	}
	return s.refresh(c), nil
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (session.Snapshot, error) {
	c, err := s.lookup(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Subscribe returns a channel of session events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan session.Event, func(), error) {
	c, err := s.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := c.Subscribe()
	return ch, cancel, nil
}

// Close tears a session down and forgets it. Unfinished sessions are not saved.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	c, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	c.Close()
	s.sessions.Delete(sessionID)
}

// Attempts lists saved attempts of a quiz, newest first.
func (s *QuizService) Attempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	lister, ok := s.attempts.(AttemptLister)
	if !ok {
		return nil, domain.ErrHistoryUnavailable
	}
	return lister.ListAttempts(ctx, quizID, limit)
}

// InvalidateQuiz drops a cached quiz so the next start reloads it.
func (s *QuizService) InvalidateQuiz(ctx context.Context, quizID string) error {
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		return fmt.Errorf("invalidate quiz %s: %w", quizID, err)
	}
	s.log.Info("quiz cache invalidated", zap.String("quiz_id", quizID))
	return nil
}

// LiveSessions counts registered sessions, across instances when the
// registry is shared.
func (s *QuizService) LiveSessions(ctx context.Context) (int, error) {
	if counter, ok := s.sessions.(liveCounter); ok {
		return counter.LiveCount(ctx)
	}
	return len(s.sessions.List()), nil
}

// EvictExpired closes and forgets completed sessions past their grace
// period and idle sessions that no countdown will end. It returns the number
// of sessions evicted.
func (s *QuizService) EvictExpired(ctx context.Context) int {
	now := s.now()
	evicted := 0
	for _, c := range s.sessions.List() {
		idle := now.Sub(c.LastActive())
		var expired bool
		switch c.Status() {
		case domain.StatusCompleted:
			expired = idle >= s.completedGrace
		case domain.StatusInProgress:
			expired = !c.CountdownRunning() && idle >= s.idleTimeout
		}
		if !expired {
			continue
		}
		s.log.Debug("evicting quiz session",
			zap.String("session_id", c.ID()),
			zap.String("status", string(c.Status())),
			zap.Duration("idle", idle))
		s.Close(ctx, c.ID())
		evicted++
	}
	return evicted
}

// RunJanitor evicts expired sessions every interval until ctx is done.
func (s *QuizService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictExpired(ctx); n > 0 {
				s.log.Info("evicted expired quiz sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *QuizService) lookup(sessionID string) (*session.Controller, error) {
	c, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return c, nil
}

// refresh re-registers the session so stores tracking status see the change.
func (s *QuizService) refresh(c *session.Controller) session.Snapshot {
	s.sessions.Put(c)
	return c.Snapshot()
}
