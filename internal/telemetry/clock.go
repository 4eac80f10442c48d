package telemetry

import "time"

// Clock supplies the wall-clock time used to stamp readings and verdicts.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Stamp formats the clock's current time with TimeLayout.
func Stamp(c Clock) string {
	return c.Now().Format(TimeLayout)
}
