package session

import (
	"sync"
	"time"
)

// Untimed is the initial value that disables the countdown.
const Untimed = -1

// TickSource starts a periodic tick and returns its channel plus a stop function.
type TickSource func(interval time.Duration) (<-chan time.Time, func())

// WallClockTicks is the production TickSource backed by time.Ticker.
func WallClockTicks(interval time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}

// Timer counts down once per second and reports each new value to its owner.
// When the count reaches zero it reports expiry once and stops itself.
type Timer struct {
	ticks    TickSource
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	running   bool
	stop      chan struct{}
	done      chan struct{}
}

// NewTimer builds a stopped timer. A nil TickSource uses WallClockTicks.
func NewTimer(ticks TickSource, onTick func(remaining int), onExpire func()) *Timer {
	if ticks == nil {
		ticks = WallClockTicks
	}
	if onTick == nil {
		onTick = func(int) {}
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &Timer{
		ticks:     ticks,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: Untimed,
	}
}

// Start begins the countdown from initialSeconds. Untimed, or a timer that is
// already running, is a no-op.
func (t *Timer) Start(initialSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running || initialSeconds == Untimed {
		return
	}
	if initialSeconds < 0 {
		initialSeconds = 0
	}

	t.remaining = initialSeconds
	t.running = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	ch, stopTicks := t.ticks(time.Second)
	go t.run(ch, stopTicks, t.stop, t.done)
}

// Stop halts the countdown and waits for the tick goroutine to exit, so no
// tick is delivered after it returns. Stopping a stopped timer is a no-op.
// Stop must not be called from the onTick callback.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stop)
	done := t.done
	t.mu.Unlock()

	<-done
}

// Running reports whether the countdown is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) run(ticks <-chan time.Time, stopTicks func(), stop <-chan struct{}, done chan struct{}) {
	exit := func() {
		stopTicks()
		close(done)
	}

	for {
		select {
		case <-stop:
			exit()
			return
		case <-ticks:
		}

		t.mu.Lock()
		if !t.running {
			t.mu.Unlock()
			exit()
			return
		}
		if t.remaining > 0 {
			t.remaining--
		}
		remaining := t.remaining
		expired := remaining == 0
		if expired {
			// Mark stopped before the callbacks run so an owner reacting to
			// expiry can call Stop without waiting on this goroutine.
			t.running = false
		}
		t.mu.Unlock()

		t.onTick(remaining)
		if expired {
			exit()
			t.onExpire()
			return
		}
	}
}
