package stopwatch

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cubetimer/internal/core/model"
)

// Config contains runtime options for the Stopwatch.
type Config struct {
	// TickInterval is how often display refresh events are emitted while
	// running. Ticks are feedback only; the recorded elapsed time is always
	// computed from the captured start and stop instants.
	TickInterval time.Duration
}

// Session is a single timing run between two toggle presses.
type Session struct {
	ID        string
	Cube      string
	StartedAt time.Time
	StoppedAt time.Time
}

// Elapsed returns the measured duration of the session. For a session that
// is still running it returns the time since the start instant.
func (session Session) Elapsed() time.Duration {
	if session.StartedAt.IsZero() {
		return 0
	}
	if session.StoppedAt.IsZero() {
		return time.Since(session.StartedAt)
	}
	return session.StoppedAt.Sub(session.StartedAt)
}

// Measurement converts a completed session into the data point sent to the
// time-series store. The timestamp is the stop instant.
func (session Session) Measurement() model.Measurement {
	return model.NewMeasurement(session.Elapsed(), session.Cube, session.StoppedAt)
}

// Stopwatch is a two-state machine that times solves. It cycles between
// StateIdle and StateRunning for the life of the process; at most one
// session is active at a time.
type Stopwatch struct {
	mu       sync.Mutex
	options  Config
	state    State
	session  Session
	last     Session
	cube     string
	events   []chan Event
	tickStop chan struct{}
	closed   bool
}

// New creates a Stopwatch in StateIdle timing the given cube type.
func New(cube string, options Config) *Stopwatch {
	if options.TickInterval <= 0 {
		options.TickInterval = model.DefaultTickInterval
	}
	return &Stopwatch{
		options: options,
		state:   StateIdle,
		cube:    cube,
	}
}

// Subscribe registers a new observer channel.
func (watch *Stopwatch) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	watch.mu.Lock()
	watch.events = append(watch.events, ch)
	watch.mu.Unlock()
	return ch
}

// SetCube changes the cube type used for sessions started from now on. An
// active session keeps the cube it was started with.
func (watch *Stopwatch) SetCube(cube string) {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	watch.cube = cube
}

// Cube returns the cube type new sessions will be tagged with.
func (watch *Stopwatch) Cube() string {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.cube
}

// State returns the current machine state.
func (watch *Stopwatch) State() State {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	return watch.state
}

// Elapsed returns the live elapsed time while running, or the final elapsed
// time of the last completed session while idle.
func (watch *Stopwatch) Elapsed() time.Duration {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	if watch.state == StateRunning {
		return watch.session.Elapsed()
	}
	return watch.last.Elapsed()
}

// Toggle advances the machine: idle starts a new session, running stops the
// active one. It returns the completed session and true when the press
// stopped a run. There is no minimum duration; two immediate toggles yield a
// near-zero session that is still reported.
func (watch *Stopwatch) Toggle() (Session, bool) {
	watch.mu.Lock()
	if watch.closed {
		watch.mu.Unlock()
		return Session{}, false
	}
	if watch.state == StateIdle {
		watch.startLocked()
		watch.mu.Unlock()
		return Session{}, false
	}
	done := watch.stopLocked()
	watch.mu.Unlock()
	return done, true
}

// Close terminates the machine and closes all observer channels. Any active
// session is abandoned without emitting a stop event.
func (watch *Stopwatch) Close() {
	watch.mu.Lock()
	if watch.closed {
		watch.mu.Unlock()
		return
	}
	watch.closed = true
	if watch.tickStop != nil {
		close(watch.tickStop)
		watch.tickStop = nil
	}
	events := watch.events
	watch.events = nil
	watch.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (watch *Stopwatch) startLocked() {
	now := time.Now()
	watch.session = Session{
		ID:        uuid.New().String(),
		Cube:      watch.cube,
		StartedAt: now,
	}
	watch.state = StateRunning
	watch.tickStop = make(chan struct{})

	watch.emitLocked(Event{
		Type:    EventStart,
		State:   StateRunning,
		Session: watch.session,
		At:      now,
	})

	go watch.run(watch.session, watch.tickStop)
}

func (watch *Stopwatch) stopLocked() Session {
	now := time.Now()
	watch.session.StoppedAt = now
	done := watch.session
	watch.last = done
	watch.session = Session{}
	watch.state = StateIdle
	if watch.tickStop != nil {
		close(watch.tickStop)
		watch.tickStop = nil
	}

	watch.emitLocked(Event{
		Type:    EventStop,
		State:   StateIdle,
		Session: done,
		Elapsed: done.Elapsed(),
		At:      now,
	})
	return done
}

func (watch *Stopwatch) run(session Session, stop chan struct{}) {
	ticker := time.NewTicker(watch.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case tickTime := <-ticker.C:
			watch.tick(session, tickTime)
		}
	}
}

func (watch *Stopwatch) tick(session Session, tickTime time.Time) {
	watch.mu.Lock()
	defer watch.mu.Unlock()
	// A tick can race the stop transition; drop it once the session changed.
	if watch.state != StateRunning || watch.session.ID != session.ID {
		return
	}
	watch.emitLocked(Event{
		Type:    EventTick,
		State:   StateRunning,
		Elapsed: tickTime.Sub(session.StartedAt),
		At:      tickTime,
	})
}

func (watch *Stopwatch) emitLocked(event Event) {
	events := append([]chan Event(nil), watch.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
