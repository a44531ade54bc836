package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"study-quiz-service/internal/domain"
)

// manualTicks hands ticks to the timer goroutine one at a time.
type manualTicks struct {
	ch chan time.Time

	mu      sync.Mutex
	started int
	stopped int
}

func newManualTicks() *manualTicks {
	return &manualTicks{ch: make(chan time.Time)}
}

func (m *manualTicks) source(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
	return m.ch, func() {
		m.mu.Lock()
		m.stopped++
		m.mu.Unlock()
	}
}

func (m *manualTicks) startedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// tick delivers one tick or fails the test if nothing is listening.
func (m *manualTicks) tick(t *testing.T) {
	t.Helper()
	if !m.tryTick() {
		t.Fatalf("timer is not accepting ticks")
	}
}

// tryTick reports whether a running timer goroutine accepted a tick.
func (m *manualTicks) tryTick() bool {
	select {
	case m.ch <- time.Time{}:
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

type recordingGateway struct {
	mu       sync.Mutex
	attempts []domain.Attempt
	err      error
	saved    chan domain.Attempt
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{saved: make(chan domain.Attempt, 4)}
}

func (g *recordingGateway) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	g.mu.Lock()
	g.attempts = append(g.attempts, attempt)
	err := g.err
	g.mu.Unlock()
	g.saved <- attempt
	return err
}

func (g *recordingGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.attempts)
}

func (g *recordingGateway) waitAttempt(t *testing.T) domain.Attempt {
	t.Helper()
	select {
	case attempt := <-g.saved:
		return attempt
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for attempt to be saved")
	}
	return domain.Attempt{}
}

func waitEvent(t *testing.T, events <-chan Event, typ EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func newQuiz(id string, minutes int, correct ...int) domain.Quiz {
	quiz := domain.Quiz{ID: id, Title: "Quiz " + id, DurationMinutes: minutes}
	for i, c := range correct {
		quiz.Questions = append(quiz.Questions, domain.Question{
			Text:          "Question " + string(rune('A'+i)),
			Options:       []string{"one", "two", "three", "four"},
			CorrectOption: c,
			Explanation:   "because",
		})
	}
	return quiz
}
