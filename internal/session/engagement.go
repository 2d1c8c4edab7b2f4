package session

import (
	"sync"
	"time"
)

// engagementFrameInterval is how often the running loop samples the clock.
// Progress itself is computed from elapsed wall-clock time, not from tick
// counts, so rendering stays smooth regardless of the sampling rate.
const engagementFrameInterval = 50 * time.Millisecond

// Engagement is the recurring attention-check timer. It runs continuously
// and independently of question boundaries: the student must Touch it
// within each window, otherwise the expiry callback fires and the window
// restarts on its own. Pausing freezes displayed progress without losing
// elapsed time; Resume continues from exactly where it paused.
type Engagement struct {
	mu       sync.Mutex
	clock    Clock
	duration time.Duration
	onExpire func()

	windowStart   time.Time
	pausedElapsed time.Duration
	paused        bool
	running       bool
	stopCh        chan struct{}
}

// NewEngagement creates a stopped engagement timer. onExpire is invoked
// from the timer goroutine without any lock held.
func NewEngagement(duration time.Duration, onExpire func(), clock Clock) *Engagement {
	if duration <= 0 {
		duration = DefaultConfig().EngagementTimer
	}
	return &Engagement{
		clock:    clock,
		duration: duration,
		onExpire: onExpire,
	}
}

// Start opens a fresh window and begins the frame loop.
func (e *Engagement) Start() {
	e.mu.Lock()
	if e.running {
		close(e.stopCh)
	}
	e.windowStart = e.clock.Now()
	e.pausedElapsed = 0
	e.paused = false
	e.running = true
	stopCh := make(chan struct{})
	e.stopCh = stopCh
	e.mu.Unlock()

	go e.loop(stopCh)
}

// Stop halts the timer permanently (session teardown).
func (e *Engagement) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stopCh)
}

// Touch acknowledges the attention check, resetting the window with no
// other side effects.
func (e *Engagement) Touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.windowStart = e.clock.Now()
	e.pausedElapsed = 0
}

// Pause freezes the window, preserving the elapsed time exactly.
func (e *Engagement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return
	}
	e.pausedElapsed = e.clock.Now().Sub(e.windowStart)
	e.paused = true
}

// Resume continues the window from where Pause left it. Wall-clock time
// spent paused is not counted against the window.
func (e *Engagement) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return
	}
	e.windowStart = e.clock.Now().Add(-e.pausedElapsed)
	e.paused = false
}

// Progress reports the fraction of the current window that has elapsed,
// in [0, 1]. While paused it stays at the frozen value.
func (e *Engagement) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := float64(e.elapsedLocked()) / float64(e.duration)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// Remaining returns the time left in the current window.
func (e *Engagement) Remaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.duration - e.elapsedLocked()
	if r < 0 {
		r = 0
	}
	return r
}

func (e *Engagement) elapsedLocked() time.Duration {
	if e.paused {
		return e.pausedElapsed
	}
	return e.clock.Now().Sub(e.windowStart)
}

func (e *Engagement) loop(stopCh chan struct{}) {
	ticker := e.clock.NewTicker(engagementFrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			e.frame(stopCh)
		}
	}
}

// frame checks whether the window elapsed and, if so, fires the expiry
// callback and restarts the window. The restart does not depend on the
// controller advancing to a new question.
func (e *Engagement) frame(stopCh chan struct{}) {
	e.mu.Lock()
	if !e.running || e.stopCh != stopCh || e.paused {
		e.mu.Unlock()
		return
	}
	if e.clock.Now().Sub(e.windowStart) < e.duration {
		e.mu.Unlock()
		return
	}

	e.windowStart = e.clock.Now()
	e.pausedElapsed = 0
	fire := e.onExpire
	e.mu.Unlock()

	if fire != nil {
		fire()
	}
}
