// Package model holds the shared domain types of the cube timer.
package model

import (
	"strings"
	"time"
)

// Cubes lists the cube kinds a solve can be tagged with when the user has
// not configured their own list.
var Cubes = []string{"speed", "classic"}

// DefaultCube is the kind selected on first launch.
const DefaultCube = "speed"

// DefaultTickInterval is how often the running display refreshes.
const DefaultTickInterval = 50 * time.Millisecond

// DefaultToggleDebounce is the window in which repeated toggle key events
// are treated as key-repeat echoes and dropped.
const DefaultToggleDebounce = 250 * time.Millisecond

// ParseCubeOptions splits a comma-separated cube list into the kinds a
// solve can be tagged with. Blank entries are dropped and duplicates keep
// their first occurrence; an empty result means the caller should fall
// back to Cubes.
func ParseCubeOptions(list string) []string {
	var options []string
	seen := map[string]bool{}
	for _, entry := range strings.Split(list, ",") {
		name := strings.TrimSpace(entry)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		options = append(options, name)
	}
	return options
}

// Measurement is one finished solve, ready to be written to the
// time-series backend.
type Measurement struct {
	// Elapsed is the solve duration in seconds.
	Elapsed float64
	// Cube tags which cube kind was solved.
	Cube string
	// At is the instant the solve was stopped.
	At time.Time
}

// NewMeasurement converts a solve duration to a recordable measurement.
// Negative durations are clamped to zero.
func NewMeasurement(elapsed time.Duration, cube string, at time.Time) Measurement {
	if elapsed < 0 {
		elapsed = 0
	}
	return Measurement{
		Elapsed: elapsed.Seconds(),
		Cube:    cube,
		At:      at,
	}
}
