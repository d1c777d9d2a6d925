package session

import "time"

// CancelFunc stops a scheduled task. Returns false if the task already
// ran or was stopped.
type CancelFunc func() bool

// Scheduler schedules one-shot delayed tasks. Expiry runs through this
// abstraction so tests can advance time without wall-clock sleeps.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

// WallClock is the production scheduler backed by time.AfterFunc.
type WallClock struct{}

// AfterFunc schedules fn after d.
func (WallClock) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
