package stopwatch

import "time"

// State represents the current Stopwatch mode.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// EventType defines the type of Stopwatch event.
type EventType string

const (
	EventStart EventType = "start"
	EventTick  EventType = "tick"
	EventStop  EventType = "stop"
)

// Event represents a Stopwatch update for observers.
//
// EventStart and EventStop carry the session the transition concerns;
// EventTick carries only the live elapsed value for display refresh.
type Event struct {
	Type    EventType
	State   State
	Session Session
	Elapsed time.Duration
	At      time.Time
}
