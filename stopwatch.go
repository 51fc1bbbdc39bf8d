package cts

import "time"

// Stopwatch measures elapsed time with explicit start/stop control.
// The zero value is a stopped stopwatch with zero elapsed time.
type Stopwatch struct {
	start   time.Time
	stopped time.Time
	running bool
}

// NewStopwatch returns a stopwatch, optionally already running.
func NewStopwatch(start bool) *Stopwatch {
	sw := &Stopwatch{}
	if start {
		sw.Restart()
	}
	return sw
}

// Restart starts (or restarts) timing from now.
func (sw *Stopwatch) Restart() {
	sw.start = time.Now()
	sw.running = true
}

// Stop freezes the elapsed time.
func (sw *Stopwatch) Stop() {
	if sw.running {
		sw.stopped = time.Now()
		sw.running = false
	}
}

// IsRunning reports whether the stopwatch is timing.
func (sw *Stopwatch) IsRunning() bool { return sw.running }

// Elapsed returns the measured duration so far.
func (sw *Stopwatch) Elapsed() time.Duration {
	if sw.running {
		return time.Since(sw.start)
	}
	if sw.start.IsZero() {
		return 0
	}
	return sw.stopped.Sub(sw.start)
}

// CountdownTimer signals when a duration has passed.
type CountdownTimer struct {
	sw       Stopwatch
	duration time.Duration
}

// NewCountdownTimer starts a countdown of the given duration.
func NewCountdownTimer(d time.Duration) *CountdownTimer {
	ct := &CountdownTimer{duration: d}
	ct.sw.Restart()
	return ct
}

// Restart restarts the countdown with a new duration.
func (ct *CountdownTimer) Restart(d time.Duration) {
	ct.duration = d
	ct.sw.Restart()
}

// IsTimeUp reports whether the countdown has expired.
func (ct *CountdownTimer) IsTimeUp() bool {
	return ct.sw.Elapsed() >= ct.duration
}
