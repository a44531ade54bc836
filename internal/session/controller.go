package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"study-quiz-service/internal/domain"
)

// AttemptGateway persists a finished attempt outside the process.
type AttemptGateway interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
}

// EventType names the notifications a Controller pushes to subscribers.
type EventType string

const (
	EventTick       EventType = "tick"
	EventCompleted  EventType = "completed"
	EventSaved      EventType = "saved"
	EventSaveFailed EventType = "save_failed"
)

// Event is a notification about session progress.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	Remaining int            `json:"remaining"`
	Result    *domain.Result `json:"result,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Notification texts pushed after the save attempt.
const (
	SavedMessage      = "Quiz attempt saved."
	SaveFailedMessage = "Your quiz result could not be saved."
)

// Options configures a Controller. Zero values select production defaults.
type Options struct {
	ID     string
	UserID string
	Ticks  TickSource
	Logger *zap.Logger
	Now    func() time.Time
	// OnComplete runs once after the session completes, before the attempt
	// is saved. It is called without the controller lock held.
	OnComplete func(*Controller)
}

// Controller drives one quiz attempt: NotStarted -> InProgress -> Completed.
// A Controller is never restarted; each quiz start builds a new one.
type Controller struct {
	id      string
	userID  string
	quiz    domain.Quiz
	gateway AttemptGateway
	log     *zap.Logger
	now     func() time.Time
	timer   *Timer
	onDone  func(*Controller)

	mu                 sync.Mutex
	ctx                context.Context
	nav                *Navigator
	status             domain.Status
	remaining          int
	completedByTimeout bool
	closed             bool
	startedAt          time.Time
	completedAt        time.Time
	lastActive         time.Time
	result             *domain.Result
	saved              bool
	saveErr            error
	subscribers        map[chan Event]struct{}
}

// New builds a controller for quiz. A nil gateway disables persistence.
func New(quiz domain.Quiz, gateway AttemptGateway, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		id:          opts.ID,
		userID:      opts.UserID,
		quiz:        quiz,
		gateway:     gateway,
		now:         opts.Now,
		onDone:      opts.OnComplete,
		lastActive:  opts.Now(),
		status:      domain.StatusNotStarted,
		remaining:   Untimed,
		nav:         NewNavigator(quiz.Questions),
		subscribers: make(map[chan Event]struct{}),
		log: opts.Logger.With(
			zap.String("session_id", opts.ID),
			zap.String("quiz_id", quiz.ID),
		),
	}
	c.timer = NewTimer(opts.Ticks, c.handleTick, c.handleExpire)
	return c
}

func (c *Controller) ID() string         { return c.id }
func (c *Controller) UserID() string     { return c.userID }
func (c *Controller) Quiz() domain.Quiz { return c.quiz }

// Start moves the session into progress and arms the countdown. A quiz
// without questions completes immediately with no timer activity.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if c.status != domain.StatusNotStarted {
		c.mu.Unlock()
		return domain.ErrSessionNotInProgress
	}

	c.ctx = ctx
	c.nav = NewNavigator(c.quiz.Questions)
	c.status = domain.StatusInProgress
	c.completedByTimeout = false
	c.startedAt = c.now()
	c.lastActive = c.startedAt
	c.remaining = Untimed
	if c.quiz.Timed() {
		c.remaining = c.quiz.DurationSeconds()
	}

	empty := c.nav.Len() == 0
	if !empty {
		c.timer.Start(c.remaining)
	}
	c.mu.Unlock()

	c.log.Info("quiz session started",
		zap.Int("questions", len(c.quiz.Questions)),
		zap.Int("duration_seconds", c.quiz.DurationSeconds()))

	if empty {
		c.finish(false)
	}
	return nil
}

// SelectAnswer records option for the current question.
func (c *Controller) SelectAnswer(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkInProgressLocked(); err != nil {
		return err
	}
	if err := c.nav.SelectAnswer(option); err != nil {
		return err
	}
	c.lastActive = c.now()
	return nil
}

// Advance moves past the current question. Advancing past the last question
// completes the session and persists the attempt before returning.
func (c *Controller) Advance() (finished bool, err error) {
	c.mu.Lock()
	if err := c.checkInProgressLocked(); err != nil {
		c.mu.Unlock()
		return false, err
	}
	finished, err = c.nav.Advance()
	if err == nil {
		c.lastActive = c.now()
	}
	c.mu.Unlock()
	if err != nil {
		return false, err
	}

	if finished {
		c.finish(false)
	}
	return finished, nil
}

// Close tears the session down. The countdown is stopped before Close
// returns; an unfinished session is abandoned and never persisted.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	abandoned := c.status == domain.StatusInProgress
	c.mu.Unlock()

	c.timer.Stop()

	c.mu.Lock()
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.mu.Unlock()

	if abandoned {
		c.log.Info("quiz session abandoned")
	}
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function; Close also ends every subscription.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// Status returns the lifecycle state.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// LastActive is when the session last started, took an answer, moved on or completed.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// CountdownRunning reports whether the timer can still end the session.
func (c *Controller) CountdownRunning() bool {
	return c.timer.Running()
}

func (c *Controller) checkInProgressLocked() error {
	if c.closed {
		return domain.ErrSessionClosed
	}
	if c.status != domain.StatusInProgress {
		return domain.ErrSessionNotInProgress
	}
	return nil
}

func (c *Controller) handleTick(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.status != domain.StatusInProgress {
		return
	}
	c.remaining = remaining
	c.broadcastLocked(Event{Type: EventTick, Remaining: remaining})
}

func (c *Controller) handleExpire() {
	c.finish(true)
}

// finish completes the session at most once, whichever trigger gets here first.
func (c *Controller) finish(timedOut bool) {
	c.mu.Lock()
	if c.closed || c.status != domain.StatusInProgress {
		c.mu.Unlock()
		return
	}
	c.status = domain.StatusCompleted
	c.completedByTimeout = timedOut
	c.completedAt = c.now()
	c.lastActive = c.completedAt
	if timedOut {
		c.remaining = 0
	}

	answers := c.nav.Answers().Clone()
	score := ComputeScore(c.quiz, answers)
	passed := IsPassed(score, c.quiz.PassingScore)
	timeTaken := 0
	if c.quiz.Timed() {
		timeTaken = c.quiz.DurationSeconds() - c.remaining
	}

	result := &domain.Result{
		QuizID:             c.quiz.ID,
		Score:              score,
		Total:              len(c.quiz.Questions),
		Attempted:          AttemptedCount(answers),
		PassingScore:       c.quiz.PassingScore,
		Passed:             passed,
		TimeTaken:          timeTaken,
		CompletedByTimeout: timedOut,
		Review:             Review(c.quiz, answers),
	}
	c.result = result
	attempt := domain.Attempt{
		QuizID:             c.quiz.ID,
		UserID:             c.userID,
		Answers:            answers,
		Score:              score,
		Passed:             passed,
		TimeTaken:          timeTaken,
		Total:              result.Total,
		Attempted:          result.Attempted,
		CompletedByTimeout: timedOut,
		CompletedAt:        c.completedAt,
	}
	ctx := c.ctx
	c.broadcastLocked(Event{Type: EventCompleted, Remaining: c.remaining, Result: result})
	c.mu.Unlock()

	c.timer.Stop()
	if c.onDone != nil {
		c.onDone(c)
	}

	c.log.Info("quiz session completed",
		zap.Int("score", score),
		zap.Int("total", result.Total),
		zap.Bool("passed", passed),
		zap.Bool("timed_out", timedOut),
		zap.Int("time_taken", timeTaken))

	if c.gateway == nil {
		return
	}
	err := c.gateway.SaveAttempt(ctx, attempt)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.saveErr = err
		c.log.Warn("failed to save quiz attempt", zap.Error(err))
		c.broadcastLocked(Event{Type: EventSaveFailed, Message: SaveFailedMessage})
		return
	}
	c.saved = true
	c.broadcastLocked(Event{Type: EventSaved, Message: SavedMessage})
}

// broadcastLocked delivers ev without blocking, replacing the oldest queued
// event when a subscriber falls behind.
func (c *Controller) broadcastLocked(ev Event) {
	ev.SessionID = c.id
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
