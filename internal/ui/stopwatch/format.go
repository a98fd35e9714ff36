package stopwatch

import (
	"fmt"
	"time"
)

// FormatElapsed renders a solve duration as M:SS.cc, growing to H:MM:SS.cc
// past an hour. Hundredths are truncated, not rounded, so the readout never
// runs ahead of the clock.
func FormatElapsed(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}

	centis := int64(elapsed / (10 * time.Millisecond))
	hundredths := centis % 100
	seconds := (centis / 100) % 60
	minutes := centis / 6000

	if minutes >= 60 {
		hours := minutes / 60
		minutes = minutes % 60
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, hundredths)
	}
	return fmt.Sprintf("%d:%02d.%02d", minutes, seconds, hundredths)
}
