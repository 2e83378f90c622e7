package engine

import (
	"sync"
	"time"
)

// TimerRegistry holds the in-process resume timers, keyed by execution id.
// Timers are deliberately non-durable: the deadline lives in the persisted
// execution context and is re-derived by startup recovery, so losing the
// process loses only the mechanism, never the schedule. The registry is
// owned by one Engine instance and stops with it.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTimerRegistry creates an empty registry.
func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[string]*time.Timer)}
}

// Schedule arms a timer for the execution, replacing any existing one. The
// callback runs on the timer goroutine after the entry is removed from the
// registry.
func (r *TimerRegistry) Schedule(executionID string, delay time.Duration, fire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[executionID]; ok {
		existing.Stop()
	}

	r.timers[executionID] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, executionID)
		r.mu.Unlock()

		fire()
	})
}

// Cancel stops and removes the execution's timer. It reports whether a timer
// was pending.
func (r *TimerRegistry) Cancel(executionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer, ok := r.timers[executionID]
	if !ok {
		return false
	}

	timer.Stop()
	delete(r.timers, executionID)

	return true
}

// Pending returns the number of armed timers.
func (r *TimerRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.timers)
}

// Stop cancels every pending timer.
func (r *TimerRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}
