// Package tick converts the replay's fixed-rate tick counter to wall-clock time.
package tick

import (
	"fmt"
	"time"
)

const (
	TicksPerSecond      uint32 = 8
	MillisecondsPerTick uint32 = 125
)

// ToMillis converts a tick index to milliseconds since match start.
func ToMillis(t uint32) uint32 {
	return t * MillisecondsPerTick
}

// ToSeconds converts a tick count to whole seconds, truncating.
func ToSeconds(ticks uint32) uint32 {
	return ticks / TicksPerSecond
}

func Duration(ticks uint32) time.Duration {
	return time.Duration(ToMillis(ticks)) * time.Millisecond
}

// FormatClock renders milliseconds as mm:ss. Minutes are not wrapped at an hour.
func FormatClock(ms uint32) string {
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
